// Package duckdb opens the techsearch dataset with DuckDB, for deployments
// that keep the company/technology tables in a DuckDB file. DuckDB has no
// FTS5 tables, so typeahead always runs on substring matching.
package duckdb

import (
	"net/url"
	"strconv"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"github.com/kailas-cloud/techsearch/internal/db/sqldb"
)

// Dialect describes DuckDB for sqldb.
var Dialect = sqldb.Dialect{
	Name:           "duckdb",
	TableExistsSQL: "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?",
}

// Config holds DuckDB connection parameters. An empty Path opens an
// in-memory database.
type Config struct {
	Path         string
	ReadOnly     bool
	MaxOpenConns int
	Threads      int
}

// Open opens a pool over the DuckDB database.
func Open(cfg Config) (*sqldb.Store, error) {
	return sqldb.Open(Dialect, sqldb.Config{DSN: DSN(cfg), MaxOpenConns: cfg.MaxOpenConns})
}

// DSN builds the duckdb-go connection string.
func DSN(cfg Config) string {
	q := url.Values{}
	if cfg.ReadOnly {
		q.Set("access_mode", "read_only")
	}
	if cfg.Threads > 0 {
		q.Set("threads", strconv.Itoa(cfg.Threads))
	}
	if len(q) == 0 {
		return cfg.Path
	}
	return cfg.Path + "?" + q.Encode()
}
