package search

import (
	"context"
	"testing"

	"github.com/kailas-cloud/techsearch/internal/db"
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
)

// mockQuerier records the statements it receives.
type mockQuerier struct {
	rows     []db.Row
	rowsErr  error
	total    int
	countErr error

	queries []string
}

func (m *mockQuerier) QueryRows(_ context.Context, q string, _ ...any) ([]db.Row, error) {
	m.queries = append(m.queries, q)
	return m.rows, m.rowsErr
}

func (m *mockQuerier) QueryStrings(_ context.Context, q string, _ ...any) ([]string, error) {
	m.queries = append(m.queries, q)
	return nil, nil
}

func (m *mockQuerier) QueryInt(_ context.Context, q string, _ ...any) (int, error) {
	m.queries = append(m.queries, q)
	return m.total, m.countErr
}

func (m *mockQuerier) TableExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// mockStore hands out one mockQuerier per WithConn call and counts releases.
type mockStore struct {
	q        *mockQuerier
	connErr  error
	acquired int
	released int
}

func (m *mockStore) WithConn(_ context.Context, fn func(q db.Querier) error) error {
	if m.connErr != nil {
		return m.connErr
	}
	m.acquired++
	defer func() { m.released++ }()
	return fn(m.q)
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{q: &mockQuerier{}}
	return New(ms, 0), ms
}

func mustField(t *testing.T, name string) field.Field {
	t.Helper()
	f, ok := field.Lookup(name)
	if !ok {
		t.Fatalf("unknown field %q", name)
	}
	return f
}
