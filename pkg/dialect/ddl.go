package dialect

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// Column is an engine-neutral column description.
type Column struct {
	Name          string
	Type          string // abstract type, e.g. "VARCHAR(100)", "DECIMAL(10,2)", "JSON"
	NotNull       bool
	PrimaryKey    bool
	AutoIncrement bool
	Unique        bool
	Default       string // raw SQL default expression, e.g. "0", "'active'", "CURRENT_TIMESTAMP"
}

// ForeignKey is a table-level foreign key constraint.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string // "CASCADE", "SET NULL", ...; empty for the engine default
}

// Table is an engine-neutral table description.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Unique      [][]string // multi-column unique constraints
}

// TranslateCreateTable renders CREATE TABLE for columns on the target engine.
func TranslateCreateTable(tableName string, columns []Column, engine core.EngineKind, ifNotExists bool) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	return d.CreateTable(Table{Name: tableName, Columns: columns}, ifNotExists)
}

// CreateTable renders CREATE TABLE for t.
//
// A column that is both primary key and auto-increment collapses into the
// engine's single form: "INTEGER PRIMARY KEY AUTOINCREMENT" on SQLite,
// "SERIAL PRIMARY KEY" (BIGSERIAL for BIGINT) on PostgreSQL, and
// "INT NOT NULL AUTO_INCREMENT PRIMARY KEY" on MySQL.
func (d *Dialect) CreateTable(t Table, ifNotExists bool) (string, error) {
	if t.Name == "" || len(t.Columns) == 0 {
		return "", &core.Error{Kind: core.KindConfig, Op: "translate create table", Err: fmt.Errorf("%w: table needs a name and columns", core.ErrInvalidConfig)}
	}

	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+len(t.Unique))
	for _, c := range t.Columns {
		defs = append(defs, d.columnDefinition(c))
	}
	for _, u := range t.Unique {
		defs = append(defs, "UNIQUE ("+d.identList(u)+")")
	}
	for _, fk := range t.ForeignKeys {
		clause := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
			d.identList(fk.Columns), d.QuoteIdentifierIfNeeded(fk.RefTable), d.identList(fk.RefColumns))
		if fk.OnDelete != "" {
			clause += " ON DELETE " + fk.OnDelete
		}
		defs = append(defs, clause)
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.QuoteIdentifierIfNeeded(t.Name))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(defs, ",\n  "))
	b.WriteString("\n)")
	return b.String(), nil
}

func (d *Dialect) columnDefinition(c Column) string {
	name := d.QuoteIdentifierIfNeeded(c.Name)

	if c.PrimaryKey && c.AutoIncrement {
		switch d.Engine {
		case core.EngineSQLite:
			return name + " INTEGER PRIMARY KEY AUTOINCREMENT"
		case core.EnginePostgres:
			base, _ := splitType(c.Type)
			if base == "BIGINT" {
				return name + " BIGSERIAL PRIMARY KEY"
			}
			return name + " " + d.autoIncrement + " PRIMARY KEY"
		default:
			return name + " " + d.DataType(c.Type) + " NOT NULL " + d.autoIncrement + " PRIMARY KEY"
		}
	}

	parts := []string{name, d.DataType(c.Type)}
	if c.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	} else if c.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if c.Unique && !c.PrimaryKey {
		parts = append(parts, "UNIQUE")
	}
	if c.Default != "" {
		parts = append(parts, "DEFAULT "+c.Default)
	}
	return strings.Join(parts, " ")
}

func (d *Dialect) identList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifierIfNeeded(n)
	}
	return strings.Join(quoted, ", ")
}
