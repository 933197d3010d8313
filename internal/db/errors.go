package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrConnClosed  = errors.New("db: store is closed")
)

// Op constants name the failing operation for error context.
const (
	OpConn  = "CONN"
	OpPing  = "PING"
	OpQuery = "QUERY"
	OpScan  = "SCAN"
	OpCount = "COUNT"
	OpTable = "TABLE_EXISTS"
	OpGet   = "GET"
	OpSet   = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
