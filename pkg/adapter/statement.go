package adapter

import (
	"regexp"
	"strings"
	"unicode"
)

var readKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"PRAGMA":   {},
	"SHOW":     {},
	"DESCRIBE": {},
	"DESC":     {},
	"EXPLAIN":  {},
	"VALUES":   {},
}

// returningWrites may carry a RETURNING clause that makes them yield rows.
var returningWrites = map[string]struct{}{
	"INSERT":  {},
	"UPDATE":  {},
	"DELETE":  {},
	"REPLACE": {},
}

var returningClause = regexp.MustCompile(`(?i)\bRETURNING\b`)

// FirstKeyword returns the upper-cased first keyword of a statement,
// skipping leading whitespace, comments and opening parentheses.
func FirstKeyword(sqlStr string) string {
	s := skipLeading(sqlStr)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	if end < 0 {
		end = len(s)
	}
	return strings.ToUpper(s[:end])
}

// IsReadStatement reports whether a statement yields rows: queries,
// introspection commands and writes with a RETURNING clause. RETURNING
// inside quoted literals or identifiers does not count.
func IsReadStatement(sqlStr string) bool {
	kw := FirstKeyword(sqlStr)
	if _, ok := readKeywords[kw]; ok {
		return true
	}
	if _, ok := returningWrites[kw]; !ok {
		return false
	}
	return returningClause.MatchString(stripQuoted(sqlStr))
}

// stripQuoted blanks out '...', "..." and `...` spans and comments. Doubled
// quotes inside a span close and reopen it, which leaves the result unchanged.
func stripQuoted(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'' || c == '"' || c == '`':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return b.String()
			}
			i += end + 1
			b.WriteByte(' ')
		case strings.HasPrefix(s[i:], "--"):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return b.String()
			}
			i += nl
			b.WriteByte(' ')
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += end + 3
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// TrimStatement strips surrounding whitespace and trailing semicolons.
func TrimStatement(sqlStr string) string {
	return strings.TrimRight(strings.TrimSpace(sqlStr), "; \t\r\n")
}

func skipLeading(s string) string {
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s, "*/")
			if end < 0 {
				return ""
			}
			s = s[end+2:]
		case strings.HasPrefix(s, "("):
			s = s[1:]
		default:
			return s
		}
	}
}
