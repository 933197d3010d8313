package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/techsearch/internal/db"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/metrics"
	"github.com/kailas-cloud/techsearch/internal/query"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	WithConn(ctx context.Context, fn func(q db.Querier) error) error
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store   store
	timeout time.Duration
}

// New creates a search repository. timeout bounds each FetchWithTotal call;
// zero means no limit beyond the caller's context.
func New(s store, timeout time.Duration) *Repo {
	return &Repo{store: s, timeout: timeout}
}

// FetchWithTotal runs the row statement and then the count statement of plan
// on one connection. kind labels metrics ("page" or "export").
func (r *Repo) FetchWithTotal(ctx context.Context, kind string, plan query.Plan) ([]result.Row, int, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var (
		rows  []result.Row
		total int
	)
	err := r.store.WithConn(ctx, func(q db.Querier) error {
		start := time.Now()
		raw, err := q.QueryRows(ctx, plan.Rows.SQL, plan.Rows.Args...)
		metrics.ObserveQuery(kind, start, err)
		if err != nil {
			return fmt.Errorf("%s rows: %w", kind, err)
		}

		start = time.Now()
		total, err = q.QueryInt(ctx, plan.Count.SQL, plan.Count.Args...)
		metrics.ObserveQuery(metrics.KindCount, start, err)
		if err != nil {
			return fmt.Errorf("%s count: %w", kind, err)
		}

		rows = make([]result.Row, len(raw))
		for i, row := range raw {
			rows[i] = result.Row(row)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
