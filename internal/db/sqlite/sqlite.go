// Package sqlite opens the techsearch dataset with the pure-Go SQLite driver.
package sqlite

import (
	"fmt"
	"net/url"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/techsearch/internal/db/sqldb"
)

// Dialect describes SQLite for sqldb. FTS5 virtual tables are listed in
// sqlite_master with type "table".
var Dialect = sqldb.Dialect{
	Name:           "sqlite",
	TableExistsSQL: "SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?",
}

// Config holds SQLite connection parameters.
type Config struct {
	Path         string
	ReadOnly     bool
	MaxOpenConns int
	// BusyTimeoutMS is passed as PRAGMA busy_timeout; 0 keeps the driver default.
	BusyTimeoutMS int
}

// Open opens a pool over the database file at cfg.Path.
func Open(cfg Config) (*sqldb.Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return sqldb.Open(Dialect, sqldb.Config{DSN: DSN(cfg), MaxOpenConns: cfg.MaxOpenConns})
}

// DSN builds the modernc.org/sqlite connection string.
func DSN(cfg Config) string {
	q := url.Values{}
	if cfg.ReadOnly {
		q.Set("mode", "ro")
	}
	if cfg.BusyTimeoutMS > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeoutMS))
	}
	if len(q) == 0 {
		return "file:" + cfg.Path
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}
