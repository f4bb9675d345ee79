// Package dialect provides SQL dialect configuration and the dialect translator.
//
// A Dialect captures everything that differs between the supported engine
// families at the SQL-text level: identifier quoting, placeholder style, the
// native spelling of each abstract column type, and the keywords used for
// auto-increment keys and the current timestamp. The Translate* functions
// render SQL fragments for a target engine. Nothing in this package performs
// I/O and every exported function is safe for concurrent use.
package dialect

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/polydb/pkg/core"
)

// TypeMapping describes how one abstract type is spelled natively.
type TypeMapping struct {
	Native  string // native type name, e.g. "VARCHAR", "JSONB", "TINYINT(1)"
	Params  bool   // whether the abstract parameters (n or p,s) are carried over
	Default string // parameters used when Params is set and none were given
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Engine      core.EngineKind
	Identifiers core.IdentifierConfig

	// Database-specific settings
	DefaultSchema string                // "public" for Postgres, "main" for SQLite, empty for MySQL
	Placeholder   core.PlaceholderStyle // How to format query parameters

	autoIncrement    string
	currentTimestamp string

	types         map[string]TypeMapping
	reservedWords map[string]struct{}
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// FormatPlaceholder returns a placeholder for the given parameter index (1-based).
// Returns "?" for PlaceholderQuestion style, "$1", "$2" etc. for PlaceholderDollar style.
func (d *Dialect) FormatPlaceholder(index int) string {
	switch d.Placeholder {
	case core.PlaceholderDollar:
		return "$" + strconv.Itoa(index)
	default: // PlaceholderQuestion
		return "?"
	}
}

// Placeholders returns n comma-separated placeholders starting at index 1.
func (d *Dialect) Placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.FormatPlaceholder(i + 1)
	}
	return strings.Join(ph, ", ")
}

// IsReservedWord returns true if the word needs quoting when used as an identifier.
func (d *Dialect) IsReservedWord(word string) bool {
	_, ok := d.reservedWords[strings.ToLower(word)]
	return ok
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	// Escape any embedded quote end characters in the name (e.g., " -> "")
	escaped := strings.ReplaceAll(name, d.Identifiers.QuoteEnd, d.Identifiers.Escape)
	return d.Identifiers.Quote + escaped + d.Identifiers.QuoteEnd
}

// QuoteIdentifierIfNeeded quotes an identifier only if it is a reserved word,
// contains characters outside [A-Za-z0-9_], or would change under normalization.
func (d *Dialect) QuoteIdentifierIfNeeded(name string) string {
	if d.IsReservedWord(name) || !plainIdentifier.MatchString(name) {
		return d.QuoteIdentifier(name)
	}
	if d.Identifiers.Normalization == core.NormLowercase && d.NormalizeName(name) != name {
		return d.QuoteIdentifier(name)
	}
	return name
}

// QuoteQualified quotes a possibly schema-qualified name part by part.
func (d *Dialect) QuoteQualified(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = d.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// AutoIncrementKeyword returns the keyword that marks an auto-increment column.
func (d *Dialect) AutoIncrementKeyword() string {
	return d.autoIncrement
}

// CurrentTimestamp returns the expression yielding the current timestamp.
func (d *Dialect) CurrentTimestamp() string {
	return d.currentTimestamp
}

// DataType maps an abstract type such as "VARCHAR(100)" or "decimal(10, 2)"
// to the dialect's native spelling. Unknown types are returned unchanged.
func (d *Dialect) DataType(abstract string) string {
	base, args := splitType(abstract)
	m, ok := d.types[base]
	if !ok {
		return abstract
	}
	if !m.Params {
		return m.Native
	}
	if args == "" {
		args = m.Default
	}
	if args == "" {
		return m.Native
	}
	return m.Native + "(" + args + ")"
}

// DataTypes returns the abstract type names this dialect knows.
func (d *Dialect) DataTypes() []string {
	names := make([]string, 0, len(d.types))
	for name := range d.types {
		names = append(names, name)
	}
	return names
}

// splitType separates "DECIMAL(10, 2)" into ("DECIMAL", "10,2").
func splitType(t string) (base, args string) {
	t = strings.TrimSpace(t)
	open := strings.IndexByte(t, '(')
	if open < 0 || !strings.HasSuffix(t, ")") {
		return strings.ToUpper(t), ""
	}
	base = strings.ToUpper(strings.TrimSpace(t[:open]))
	inner := t[open+1 : len(t)-1]
	parts := strings.Split(inner, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return base, strings.Join(parts, ",")
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: core.NormLowercase,
			},
			autoIncrement:    "AUTOINCREMENT",
			currentTimestamp: "CURRENT_TIMESTAMP",
			types:            make(map[string]TypeMapping),
			reservedWords:    make(map[string]struct{}),
		},
	}
}

// Engine binds the dialect to an engine kind.
func (b *Builder) Engine(kind core.EngineKind) *Builder {
	b.dialect.Engine = kind
	return b
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// PlaceholderStyle sets how query parameters are formatted.
func (b *Builder) PlaceholderStyle(style core.PlaceholderStyle) *Builder {
	b.dialect.Placeholder = style
	return b
}

// AutoIncrement sets the auto-increment column keyword.
func (b *Builder) AutoIncrement(keyword string) *Builder {
	b.dialect.autoIncrement = keyword
	return b
}

// CurrentTimestamp sets the current timestamp expression.
func (b *Builder) CurrentTimestamp(expr string) *Builder {
	b.dialect.currentTimestamp = expr
	return b
}

// Types registers native spellings for abstract types.
func (b *Builder) Types(types map[string]TypeMapping) *Builder {
	for name, m := range types {
		b.dialect.types[strings.ToUpper(name)] = m
	}
	return b
}

// WithReservedWords registers words that need quoting when used as identifiers.
func (b *Builder) WithReservedWords(words ...string) *Builder {
	for _, w := range words {
		b.dialect.reservedWords[strings.ToLower(w)] = struct{}{}
	}
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}
