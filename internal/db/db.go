package db

import (
	"context"
	"time"
)

// Row is one result row keyed by column name. Values are normalized to
// string, int64, float64, bool or nil.
type Row map[string]any

// Store is the relational row store facade combining all sub-interfaces.
type Store interface {
	Pinger
	Querier
	ConnProvider
	Close() error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Querier runs parameterized read statements. SQL text uses "?" placeholders.
type Querier interface {
	QueryRows(ctx context.Context, query string, args ...any) ([]Row, error)
	QueryStrings(ctx context.Context, query string, args ...any) ([]string, error)
	QueryInt(ctx context.Context, query string, args ...any) (int, error)
	TableExists(ctx context.Context, name string) (bool, error)
}

// ConnProvider runs fn on one dedicated connection taken from the pool.
// The connection is returned to the pool when fn returns, on every path.
type ConnProvider interface {
	WithConn(ctx context.Context, fn func(q Querier) error) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a key-value cache with its connection lifecycle.
type Cache interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
