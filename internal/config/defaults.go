package config

import "slices"

// Default configuration values.
const (
	DefaultDatabase   = "default"
	DefaultSQLiteFile = "polydb.db"
	DefaultFormat     = "table"
	DefaultLogLevel   = "warn"
)

// Config file names searched in the working directory.
const (
	ConfigFileName    = "polydb.yaml"
	ConfigFileNameAlt = "polydb.yml"
)

// Output formats understood by the CLI renderer.
const (
	FormatTable    = "table"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatYAML     = "yaml"
)

// Formats lists the output formats in help order.
func Formats() []string {
	return []string{FormatTable, FormatJSON, FormatCSV, FormatMarkdown, FormatYAML}
}

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	return slices.Contains(Formats(), f)
}

func defaults() map[string]any {
	return map[string]any{
		"active":    DefaultDatabase,
		"format":    DefaultFormat,
		"log_level": DefaultLogLevel,
	}
}

// applyDefaults makes sure the default logical database always exists.
func applyDefaults(c *Config) {
	if c.Databases == nil {
		c.Databases = make(map[string]Database)
	}
	if _, ok := c.Databases[DefaultDatabase]; !ok {
		c.Databases[DefaultDatabase] = Database{Type: "sqlite", Database: DefaultSQLiteFile}
	}
}
