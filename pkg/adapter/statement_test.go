package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstKeyword(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"SELECT 1", "SELECT"},
		{"  select * from t", "SELECT"},
		{"-- leading comment\nWITH x AS (SELECT 1) SELECT * FROM x", "WITH"},
		{"/* block */ insert into t values (1)", "INSERT"},
		{"(SELECT 1) UNION (SELECT 2)", "SELECT"},
		{"PRAGMA table_info(t)", "PRAGMA"},
		{"", ""},
		{"-- only a comment", ""},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstKeyword(tt.sql))
		})
	}
}

func TestIsReadStatement(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT * FROM t", true},
		{"with cte as (select 1) select * from cte", true},
		{"SHOW TABLES", true},
		{"DESCRIBE users", true},
		{"EXPLAIN SELECT 1", true},
		{"PRAGMA table_info(users)", true},
		{"VALUES (1), (2)", true},
		{"INSERT INTO t (a) VALUES (1) RETURNING id", true},
		{"INSERT INTO t (a) VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"DELETE FROM t", false},
		{"CREATE TABLE t (id INT)", false},
		{"UPDATE t SET returning_flag = 1", false},
		{"UPDATE t SET name = 'returning customer' WHERE id <= 2", false},
		{`INSERT INTO t ("returning") VALUES (1)`, false},
		{"INSERT INTO t (`returning`) VALUES (1)", false},
		{"DELETE FROM t -- returning\nWHERE id = 1", false},
		{"UPDATE t SET name = 'it''s' WHERE id = 1 RETURNING id", true},
		{"delete from t where id = 1 /* note */ returning *", true},
		{"CREATE TABLE returning_log (id INT)", false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, IsReadStatement(tt.sql))
		})
	}
}

func TestStripQuoted(t *testing.T) {
	assert.Equal(t, "UPDATE t SET a =   WHERE b =   ", stripQuoted("UPDATE t SET a = 'x' WHERE b = \"y\" "))
	assert.Equal(t, "a   b", stripQuoted("a /* c */ b"))
	assert.Equal(t, "a ", stripQuoted("a 'unterminated"))
}

func TestTrimStatement(t *testing.T) {
	assert.Equal(t, "SELECT 1", TrimStatement("  SELECT 1 ;; \n"))
	assert.Equal(t, "SELECT 1", TrimStatement("SELECT 1"))
}
