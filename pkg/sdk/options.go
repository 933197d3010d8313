package techsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Driver names accepted by New.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver       string
	path         string
	readOnly     bool
	maxOpenConns int

	defaultLimit int
	maxLimit     int
	exportMax    int
	queryTimeout time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithSQLite opens the SQLite database file at path.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = DriverSQLite
		c.path = path
	})
}

// WithDuckDB opens the DuckDB database file at path. DuckDB has no FTS5
// tables, so typeahead always uses substring matching.
func WithDuckDB(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = DriverDuckDB
		c.path = path
	})
}

// WithReadOnly opens the database in read-only mode.
func WithReadOnly() Option {
	return optionFunc(func(c *clientConfig) {
		c.readOnly = true
	})
}

// WithMaxOpenConns bounds the connection pool. Default: 4.
func WithMaxOpenConns(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxOpenConns = n
	})
}

// WithPageLimits sets the default and maximum page size.
// Defaults: 25 and 1000. max cannot exceed 1000.
func WithPageLimits(defaultLimit, maxLimit int) Option {
	return optionFunc(func(c *clientConfig) {
		c.defaultLimit = defaultLimit
		c.maxLimit = maxLimit
	})
}

// WithExportMaxLimit caps export sizes. Default: 50000.
func WithExportMaxLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.exportMax = n
	})
}

// WithQueryTimeout bounds each search or export. Zero (default) relies on the caller's context.
func WithQueryTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryTimeout = d
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
