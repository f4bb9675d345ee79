package adapter

import (
	"fmt"
	"strconv"
	"strings"
)

// AsString renders a scanned driver value as text. nil becomes "".
func AsString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// AsBool interprets a scanned driver value as a boolean. Strings such as
// "YES", "true" and "1" are true.
func AsBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case nil:
		return false
	default:
		switch strings.ToUpper(AsString(x)) {
		case "YES", "TRUE", "T", "1", "Y":
			return true
		}
		return false
	}
}

// AsInt64 converts a scanned numeric driver value. COUNT(*) comes back as
// int64 from most drivers but as text or float from some.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float64:
		return int64(x), true
	case string, []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(AsString(x)), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// OptionalString returns nil for a NULL value and a pointer to its text otherwise.
func OptionalString(v any) *string {
	if v == nil {
		return nil
	}
	s := AsString(v)
	return &s
}
