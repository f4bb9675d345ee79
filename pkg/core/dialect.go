package core

// NormalizationStrategy defines how unquoted identifiers are normalized.
type NormalizationStrategy int

const (
	// NormLowercase normalizes unquoted identifiers to lowercase (PostgreSQL).
	NormLowercase NormalizationStrategy = iota
	// NormCaseSensitive preserves identifier case exactly (MySQL table names on Linux).
	NormCaseSensitive
	// NormCaseInsensitive normalizes to lowercase for comparison (SQLite).
	NormCaseInsensitive
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL).
	PlaceholderDollar
)

// IdentifierConfig defines how identifiers are quoted and normalized.
type IdentifierConfig struct {
	Quote         string                // Quote character: " or `
	QuoteEnd      string                // End quote character (same as Quote for supported engines)
	Escape        string                // Escape sequence for an embedded QuoteEnd: "" or ``
	Normalization NormalizationStrategy // How to normalize unquoted identifiers
}
