package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// TranslateDataType maps an abstract column type to the target engine's
// native type. Types outside the abstract vocabulary pass through unchanged.
func TranslateDataType(abstract string, engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	return d.DataType(abstract), nil
}

// TranslateAutoIncrement returns the auto-increment keyword for the engine.
func TranslateAutoIncrement(engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	return d.AutoIncrementKeyword(), nil
}

// TranslateCurrentTimestamp returns the current timestamp expression for the engine.
func TranslateCurrentTimestamp(engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	return d.CurrentTimestamp(), nil
}

// TranslateLimitOffset renders a LIMIT/OFFSET clause. OFFSET is omitted when zero.
func TranslateLimitOffset(limit, offset int, engine core.EngineKind) (string, error) {
	if _, err := ForEngine(engine); err != nil {
		return "", err
	}
	return LimitOffset(limit, offset), nil
}

// LimitOffset renders "LIMIT n[ OFFSET m]", which all supported engines accept.
func LimitOffset(limit, offset int) string {
	clause := "LIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		clause += " OFFSET " + strconv.Itoa(offset)
	}
	return clause
}

// TranslateConcat joins SQL expressions into one string expression.
// MySQL uses CONCAT(); PostgreSQL and SQLite use the || operator.
func TranslateConcat(engine core.EngineKind, parts ...string) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	if len(parts) == 0 {
		return "''", nil
	}
	if d.Engine == core.EngineMySQL {
		return "CONCAT(" + strings.Join(parts, ", ") + ")", nil
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return strings.Join(parts, " || "), nil
}

// strftime token -> PostgreSQL TO_CHAR pattern.
var pgDateTokens = map[byte]string{
	'Y': "YYYY",
	'y': "YY",
	'm': "MM",
	'd': "DD",
	'H': "HH24",
	'M': "MI",
	'S': "SS",
	'j': "DDD",
}

// strftime token -> MySQL DATE_FORMAT token, where they differ.
var mysqlDateTokens = map[byte]string{
	'M': "%i",
	'S': "%s",
}

// TranslateDateFormat formats a date expression using a strftime-style
// pattern (%Y, %m, %d, %H, %M, %S). The pattern is converted to the
// engine's own notation.
func TranslateDateFormat(expr, format string, engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	switch d.Engine {
	case core.EngineMySQL:
		return "DATE_FORMAT(" + expr + ", " + QuoteLiteral(convertDateFormat(format, mysqlDateTokens, true)) + ")", nil
	case core.EnginePostgres:
		return "TO_CHAR(" + expr + ", " + QuoteLiteral(convertDateFormat(format, pgDateTokens, false)) + ")", nil
	default:
		return "strftime(" + QuoteLiteral(format) + ", " + expr + ")", nil
	}
}

// convertDateFormat rewrites %X tokens. Unmapped tokens are kept verbatim
// when keepUnknown is set and dropped to their letter otherwise.
func convertDateFormat(format string, tokens map[byte]string, keepUnknown bool) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		next := format[i]
		if next == '%' {
			b.WriteByte('%')
			if keepUnknown {
				b.WriteByte('%')
			}
			continue
		}
		if repl, ok := tokens[next]; ok {
			b.WriteString(repl)
			continue
		}
		if keepUnknown {
			b.WriteByte('%')
		}
		b.WriteByte(next)
	}
	return b.String()
}

// TranslateJSONExtract extracts a scalar from a JSON column as text.
// path accepts "$.a.b" or "a.b".
func TranslateJSONExtract(expr, path string, engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	keys := jsonPathKeys(path)
	jsonPath := "$"
	if len(keys) > 0 {
		jsonPath += "." + strings.Join(keys, ".")
	}
	switch d.Engine {
	case core.EngineMySQL:
		return "JSON_UNQUOTE(JSON_EXTRACT(" + expr + ", " + QuoteLiteral(jsonPath) + "))", nil
	case core.EnginePostgres:
		if len(keys) == 1 {
			return expr + "->>" + QuoteLiteral(keys[0]), nil
		}
		return expr + " #>> " + QuoteLiteral("{"+strings.Join(keys, ",")+"}"), nil
	default:
		return "json_extract(" + expr + ", " + QuoteLiteral(jsonPath) + ")", nil
	}
}

func jsonPathKeys(path string) []string {
	path = strings.TrimPrefix(strings.TrimSpace(path), "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// TranslateUpsert renders a parameterized insert-or-update statement for
// table. Placeholders follow the engine's style, one per column in order.
//
// MySQL updates every non-conflict column from VALUES(); PostgreSQL does the
// same through ON CONFLICT ... DO UPDATE with EXCLUDED. SQLite renders
// INSERT OR REPLACE, which deletes the conflicting row and inserts a new one:
// columns not listed are reset to their defaults rather than merged.
func TranslateUpsert(table string, columns, conflictColumns []string, engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", &core.Error{Kind: core.KindConfig, Op: "translate upsert", Err: fmt.Errorf("%w: no columns", core.ErrInvalidConfig)}
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	conflict := make(map[string]struct{}, len(conflictColumns))
	for _, c := range conflictColumns {
		conflict[c] = struct{}{}
	}
	var updates []string
	for _, c := range columns {
		if _, ok := conflict[c]; !ok {
			updates = append(updates, c)
		}
	}

	insert := fmt.Sprintf("INTO %s (%s) VALUES (%s)", d.QuoteQualified(table), strings.Join(quoted, ", "), d.Placeholders(len(columns)))

	switch d.Engine {
	case core.EngineMySQL:
		set := make([]string, 0, len(updates))
		for _, c := range updates {
			q := d.QuoteIdentifier(c)
			set = append(set, q+" = VALUES("+q+")")
		}
		if len(set) == 0 {
			q := quoted[0]
			set = append(set, q+" = "+q)
		}
		return "INSERT " + insert + " ON DUPLICATE KEY UPDATE " + strings.Join(set, ", "), nil
	case core.EnginePostgres:
		if len(conflictColumns) == 0 {
			return "", &core.Error{Kind: core.KindConfig, Op: "translate upsert", Err: fmt.Errorf("%w: postgres upsert needs conflict columns", core.ErrInvalidConfig)}
		}
		target := make([]string, len(conflictColumns))
		for i, c := range conflictColumns {
			target[i] = d.QuoteIdentifier(c)
		}
		stmt := "INSERT " + insert + " ON CONFLICT (" + strings.Join(target, ", ") + ")"
		if len(updates) == 0 {
			return stmt + " DO NOTHING", nil
		}
		set := make([]string, len(updates))
		for i, c := range updates {
			q := d.QuoteIdentifier(c)
			set[i] = q + " = EXCLUDED." + q
		}
		return stmt + " DO UPDATE SET " + strings.Join(set, ", "), nil
	default:
		return "INSERT OR REPLACE " + insert, nil
	}
}

// QuoteIdentifier quotes name for the engine: backticks for MySQL, double
// quotes for PostgreSQL and SQLite. Embedded quote characters are doubled.
func QuoteIdentifier(name string, engine core.EngineKind) (string, error) {
	d, err := ForEngine(engine)
	if err != nil {
		return "", err
	}
	return d.QuoteIdentifier(name), nil
}

// QuoteLiteral renders s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
