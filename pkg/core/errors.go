package core

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is; they survive wrapping by *Error.
var (
	ErrUnknownDatabase   = errors.New("unknown logical database")
	ErrUnsupportedEngine = errors.New("unsupported engine kind")
	ErrInvalidConfig     = errors.New("invalid database configuration")
	ErrNotConnected      = errors.New("database connection not established")
)

// ErrorKind classifies failures.
type ErrorKind int

const (
	// KindConfig covers unknown names, unknown engines and malformed configs. Never retried.
	KindConfig ErrorKind = iota
	// KindConnection covers probe failures and pool exhaustion.
	KindConnection
	// KindStatement covers syntax errors, constraint violations and type mismatches.
	KindStatement
	// KindTransaction covers any member statement failure inside a transaction.
	KindTransaction
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindStatement:
		return "statement"
	case KindTransaction:
		return "transaction"
	default:
		return "unknown"
	}
}

// Error is the error type returned across package boundaries.
// The message carries the driver's text and, when known, its error code,
// never a DSN or credentials.
type Error struct {
	Kind     ErrorKind
	Op       string // "query", "transaction", "connect", ...
	Database string // logical name, when known
	Code     string // driver-specific code (MySQL number, SQLSTATE, SQLite result code)
	Err      error
}

func (e *Error) Error() string {
	msg := e.Op + " failed"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Code != "" {
		msg += fmt.Sprintf(" [code %s]", e.Code)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// CodeOf returns the driver error code carried by err, if any.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
