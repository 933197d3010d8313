package search

import (
	"context"

	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/query"
)

// Repository runs a compiled plan. Rows and count run on one connection.
type Repository interface {
	FetchWithTotal(ctx context.Context, kind string, plan query.Plan) ([]result.Row, int, error)
}
