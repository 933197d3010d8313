// Package typeahead reads suggestion candidates from the base tables and
// their FTS5 indexes.
package typeahead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/metrics"
)

// ErrFullTextUnavailable reports that the source has no usable full-text index.
var ErrFullTextUnavailable = errors.New("full-text index unavailable")

// store is the consumer interface for typeahead lookups (ISP).
type store interface {
	QueryStrings(ctx context.Context, query string, args ...any) ([]string, error)
	TableExists(ctx context.Context, name string) (bool, error)
}

// Repo implements usecase/typeahead.Repository.
type Repo struct {
	store store

	mu    sync.Mutex
	found map[string]struct{}
}

// New creates a typeahead repository.
func New(s store) *Repo {
	return &Repo{store: s, found: make(map[string]struct{})}
}

// FullText returns up to limit values whose indexed column has a token
// starting with q, best FTS5 rank first. It returns ErrFullTextUnavailable
// when the source declares no index or the index table does not exist.
func (r *Repo) FullText(ctx context.Context, src field.Source, q string, limit int) ([]string, error) {
	if !src.HasFullText() {
		return nil, ErrFullTextUnavailable
	}
	ok, err := r.hasTable(ctx, src.FullTextTable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrFullTextUnavailable
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s MATCH ? ORDER BY rank LIMIT ?",
		src.FullTextColumn, src.FullTextTable, src.FullTextTable)

	start := time.Now()
	vals, err := r.store.QueryStrings(ctx, stmt, PrefixQuery(src.FullTextColumn, q), limit)
	metrics.ObserveQuery(metrics.KindFullText, start, err)
	if err != nil {
		return nil, fmt.Errorf("full-text %s.%s: %w", src.FullTextTable, src.FullTextColumn, err)
	}
	return vals, nil
}

// Substring returns up to limit distinct non-empty values of the source
// column containing q, in value order.
func (r *Repo) Substring(ctx context.Context, src field.Source, q string, limit int) ([]string, error) {
	stmt := fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM %[2]s WHERE %[1]s LIKE ? AND %[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s LIMIT ?",
		src.Column, src.Table)

	start := time.Now()
	vals, err := r.store.QueryStrings(ctx, stmt, "%"+q+"%", limit)
	metrics.ObserveQuery(metrics.KindSubstring, start, err)
	if err != nil {
		return nil, fmt.Errorf("substring %s.%s: %w", src.Table, src.Column, err)
	}
	return vals, nil
}

// hasTable checks for table and remembers only a positive answer, so an
// index created after startup is picked up on the next lookup.
func (r *Repo) hasTable(ctx context.Context, table string) (bool, error) {
	r.mu.Lock()
	_, found := r.found[table]
	r.mu.Unlock()
	if found {
		return true, nil
	}

	ok, err := r.store.TableExists(ctx, table)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	if ok {
		r.mu.Lock()
		r.found[table] = struct{}{}
		r.mu.Unlock()
	}
	return ok, nil
}

// PrefixQuery builds an FTS5 column-filtered prefix query: col : "text"*.
// Embedded double quotes are doubled so the text stays one phrase.
func PrefixQuery(column, text string) string {
	return column + ` : "` + strings.ReplaceAll(text, `"`, `""`) + `"*`
}
