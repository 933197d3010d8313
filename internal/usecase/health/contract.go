package health

import "context"

// Pinger checks a dependency's availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database is the row store as seen by health checks.
type Database interface {
	Pinger
	TableExists(ctx context.Context, name string) (bool, error)
}
