// Package sqldb implements db.Store over database/sql. Driver-specific
// packages (sqlite, duckdb) register the driver and supply a Dialect.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/techsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Dialect holds the driver-specific bits the store cannot express portably.
type Dialect struct {
	// Name is the driver name passed to sql.Open.
	Name string
	// TableExistsSQL returns a single count for the table name bound to "?".
	TableExistsSQL string
}

// Config holds connection parameters for a database/sql store.
type Config struct {
	DSN             string
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Store implements db.Store on a *sql.DB pool.
type Store struct {
	pool    *sql.DB
	dialect Dialect
	closed  atomic.Bool
}

// Open opens the pool. It does not connect; use Ping or WaitForReady.
func Open(d Dialect, cfg Config) (*Store, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("dialect name is required")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}
	pool, err := sql.Open(d.Name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
		pool.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	return New(pool, d), nil
}

// New wraps an existing pool.
func New(pool *sql.DB, d Dialect) *Store {
	return &Store{pool: pool, dialect: d}
}

// Dialect returns the store dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrConnClosed}
	}
	if err := s.pool.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the pool. Further calls fail with db.ErrConnClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.pool.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// WithConn runs fn on one connection and releases it when fn returns.
func (s *Store) WithConn(ctx context.Context, fn func(q db.Querier) error) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpConn, Err: db.ErrConnClosed}
	}
	conn, err := s.pool.Conn(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrConnDone) {
			err = db.ErrConnClosed
		}
		return &db.Error{Op: db.OpConn, Err: err}
	}
	defer conn.Close()

	return fn(&querier{q: conn, dialect: s.dialect})
}

// QueryRows runs query on any pooled connection.
func (s *Store) QueryRows(ctx context.Context, query string, args ...any) ([]db.Row, error) {
	q, err := s.pooled()
	if err != nil {
		return nil, err
	}
	return q.QueryRows(ctx, query, args...)
}

// QueryStrings runs a one-column query on any pooled connection.
func (s *Store) QueryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	q, err := s.pooled()
	if err != nil {
		return nil, err
	}
	return q.QueryStrings(ctx, query, args...)
}

// QueryInt runs a one-value query on any pooled connection.
func (s *Store) QueryInt(ctx context.Context, query string, args ...any) (int, error) {
	q, err := s.pooled()
	if err != nil {
		return 0, err
	}
	return q.QueryInt(ctx, query, args...)
}

// TableExists reports whether a table, view or virtual table named name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	q, err := s.pooled()
	if err != nil {
		return false, err
	}
	return q.TableExists(ctx, name)
}

func (s *Store) pooled() (*querier, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpConn, Err: db.ErrConnClosed}
	}
	return &querier{q: s.pool, dialect: s.dialect}, nil
}
