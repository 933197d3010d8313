package techsearch

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/techsearch/internal/db/sqlite"
	"github.com/kailas-cloud/techsearch/internal/domain/search/request"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/techsearch/internal/usecase/search"
)

// --- Helpers ---

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "companies.db")
	if err := sqlite.CreateFixture(ctx, path, sqlite.FixtureOptions{}); err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	c, err := New(ctx, append([]Option{WithSQLite(path), WithReadOnly()}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func companyNames(rows []Row) string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i], _ = r["company_name"].(string)
	}
	return strings.Join(names, ",")
}

// --- Construction ---

func TestNew_NoPath(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no database path provided")
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	if _, err := openStore(&clientConfig{driver: "postgres", path: "x"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithSQLite("a.db").apply(cfg)
	if cfg.driver != DriverSQLite || cfg.path != "a.db" {
		t.Errorf("sqlite option = %+v", cfg)
	}
	WithDuckDB("b.duckdb").apply(cfg)
	if cfg.driver != DriverDuckDB || cfg.path != "b.duckdb" {
		t.Errorf("duckdb option = %+v", cfg)
	}

	WithReadOnly().apply(cfg)
	WithMaxOpenConns(2).apply(cfg)
	WithPageLimits(10, 100).apply(cfg)
	WithExportMaxLimit(500).apply(cfg)
	WithQueryTimeout(time.Second).apply(cfg)
	if !cfg.readOnly || cfg.maxOpenConns != 2 || cfg.defaultLimit != 10 || cfg.maxLimit != 100 ||
		cfg.exportMax != 500 || cfg.queryTimeout != time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}

	logger := slog.Default()
	WithLogger(logger).apply(cfg)
	if cfg.logger != logger {
		t.Error("expected logger to be set")
	}
	reg := prometheus.NewRegistry()
	WithPrometheus(reg).apply(cfg)
	if cfg.metricsReg != reg {
		t.Error("expected metricsReg to be set")
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close on empty client: %v", err)
	}
}

// --- Integration over SQLite ---

func TestClient_Search(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	page, err := c.Search(ctx, SearchRequest{
		Filters: And(
			Where("tech_name", "=", "React"),
			Or(Where("country", "=", "US"), Where("country", "=", "CA")),
		),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Total != 3 || companyNames(page.Rows) != "Acme Corp,Globex,Hooli" {
		t.Errorf("total=%d rows=%s", page.Total, companyNames(page.Rows))
	}
	if page.Limit != request.DefaultLimit {
		t.Errorf("limit = %d", page.Limit)
	}
}

func TestClient_Search_Values(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		group Group
		total int
	}{
		{"not", Not(Where("country", "=", "US")), 5},
		{"between ints", And(Where("spend", "BETWEEN", []int{1000, 6000})), 5},
		{"in strings", And(Where("country", "IN", []string{"DE", "CA"})), 5},
		{"in lone scalar", And(Where("country", "in", "DE")), 3},
		{"like", And(Where("company_name", "LIKE", "ooli")), 4},
		{"empty", Group{}, 14},
		{"empty or", Or(), 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := c.Search(ctx, SearchRequest{Filters: tt.group})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if page.Total != tt.total {
				t.Errorf("total = %d, want %d", page.Total, tt.total)
			}
		})
	}
}

func TestClient_Search_Validation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	_, err := c.Search(ctx, SearchRequest{Filters: And(Where("ceo", "=", "x"))})
	if !errors.Is(err, ErrValidation) || !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: got %v", err)
	}

	_, err = c.Search(ctx, SearchRequest{Filters: And(Where("spend", "=", 1.5))})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("fractional spend: got %v", err)
	}

	_, err = c.Search(ctx, SearchRequest{Filters: And(nil)})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("nil node: got %v", err)
	}

	_, err = c.Search(ctx, SearchRequest{Offset: -1})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("negative offset: got %v", err)
	}
}

func TestClient_Export(t *testing.T) {
	c := newTestClient(t)

	exp, err := c.Export(context.Background(), SearchRequest{}, 5)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(exp.Rows) != 5 || exp.Total != 14 || !exp.Truncated {
		t.Errorf("rows=%d total=%d truncated=%v", len(exp.Rows), exp.Total, exp.Truncated)
	}

	var buf bytes.Buffer
	if err := exp.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v", err)
	}
	if len(records) != 6 || records[0][0] != "Company Name" || len(records[0]) != 15 {
		t.Errorf("records = %v", records)
	}
}

func TestClient_Export_ClampedToMax(t *testing.T) {
	c := newTestClient(t, WithExportMaxLimit(3))

	exp, err := c.Export(context.Background(), SearchRequest{}, 100)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(exp.Rows) != 3 || !exp.Truncated {
		t.Errorf("rows=%d truncated=%v", len(exp.Rows), exp.Truncated)
	}
}

func TestClient_Suggest(t *testing.T) {
	c := newTestClient(t)

	got, err := c.Suggest(context.Background(), "tech_name", "Rea")
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if strings.Join(got, ",") != "React,Preact" {
		t.Errorf("suggestions = %v", got)
	}

	if _, err := c.Suggest(context.Background(), "spend", "1"); !errors.Is(err, ErrValidation) {
		t.Errorf("non-typeahead field: got %v", err)
	}
}

func TestClient_Compile(t *testing.T) {
	c := newTestClient(t)

	q, err := c.Compile(SearchRequest{
		Filters: And(Where("tech_name", "=", "React")),
		Limit:   20,
		Offset:  40,
	}, 0)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.HasSuffix(q.Page.SQL, "LIMIT ? OFFSET ?") || len(q.Page.Args) != 3 {
		t.Errorf("page = %+v", q.Page)
	}
	if len(q.Count.Args) != 1 || q.Count.Args[0] != "React" {
		t.Errorf("count = %+v", q.Count)
	}
	if last := q.Export.Args[len(q.Export.Args)-1]; last != request.DefaultExportLimit {
		t.Errorf("export limit arg = %v", last)
	}
}

func TestClient_Fields(t *testing.T) {
	c := &Client{}
	fields := c.Fields()
	if len(fields) != 15 || fields[0].Name != "company_name" || !fields[0].Typeahead {
		t.Errorf("fields = %+v", fields)
	}
}

func TestClient_HealthAndClose(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if h := c.Health(ctx); !h.Healthy() || h.Checks["database"] != "ok" {
		t.Errorf("health = %+v", h)
	}
	if err := c.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h := c.Health(ctx); h.Healthy() {
		t.Error("closed client should be unhealthy")
	}
	if _, err := c.Search(ctx, SearchRequest{}); !errors.Is(err, ErrConnClosed) {
		t.Errorf("search after close: got %v", err)
	}
}

// --- Mocked use cases ---

type mockSearchUC struct {
	err error
}

func (m *mockSearchUC) Search(context.Context, request.Request) (result.Page, error) {
	return result.Page{}, m.err
}

func (m *mockSearchUC) Export(context.Context, request.Request, *int) (result.Export, error) {
	return result.Export{}, m.err
}

func (m *mockSearchUC) Preview(request.Request, *int) (searchuc.Preview, error) {
	return searchuc.Preview{}, m.err
}

func TestClient_WrapsUseCaseErrors(t *testing.T) {
	boom := errors.New("boom")
	c := &Client{searchSvc: &mockSearchUC{err: boom}}
	ctx := context.Background()

	if _, err := c.Search(ctx, SearchRequest{}); !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "search:") {
		t.Errorf("Search err = %v", err)
	}
	if _, err := c.Export(ctx, SearchRequest{}, 0); !errors.Is(err, boom) {
		t.Errorf("Export err = %v", err)
	}
	if _, err := c.Compile(SearchRequest{}, 0); !errors.Is(err, boom) {
		t.Errorf("Compile err = %v", err)
	}
}

// --- Observer ---

func TestObserver_NilSafe(t *testing.T) {
	var obs *observer
	obs.observe("test", time.Now(), 0, nil)
	obs.observe("test", time.Now(), -1, errors.New("err"))
	obs.exportTruncated()
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, outcomeOK},
		{fmt.Errorf("search: %w", ErrValidation), outcomeInvalid},
		{errUnhealthy, outcomeUnhealthy},
		{ErrConnClosed, outcomeError},
	}
	for _, tt := range tests {
		if got := outcome(tt.err); got != tt.want {
			t.Errorf("outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestObserver_WithPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("search", time.Now().Add(-10*time.Millisecond), 25, nil)
	obs.observe("search", time.Now(), 0, errors.New("fail"))
	obs.observe("search", time.Now(), 0, fmt.Errorf("search: %w", ErrValidation))
	obs.observe("ping", time.Now(), -1, nil)
	obs.exportTruncated()

	for label, want := range map[string]float64{outcomeOK: 1, outcomeError: 1, outcomeInvalid: 1} {
		if got := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", label)); got != want {
			t.Errorf("search %s = %v, want %v", label, got, want)
		}
	}
	if n := testutil.CollectAndCount(obs.metrics.rows); n != 1 {
		t.Errorf("rows series = %d, want 1 (search only)", n)
	}
	if got := testutil.ToFloat64(obs.metrics.truncated); got != 1 {
		t.Errorf("truncated = %v, want 1", got)
	}

	// A second client on the same registry shares the collectors.
	again, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("second newObserver: %v", err)
	}
	again.exportTruncated()
	if got := testutil.ToFloat64(obs.metrics.truncated); got != 2 {
		t.Errorf("shared truncated = %v, want 2", got)
	}
}

func TestObserver_WithLogger(t *testing.T) {
	var buf bytes.Buffer
	obs, err := newObserver(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	obs.observe("search", time.Now(), 1, nil)
	obs.observe("search", time.Now(), 0, fmt.Errorf("search: %w", ErrValidation))
	obs.observe("export", time.Now(), 0, errors.New("disk I/O error"))

	out := buf.String()
	for _, want := range []string{"level=DEBUG msg=\"techsearch operation\"", "techsearch rejected request", "level=WARN", "outcome=error"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestClient_MetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newTestClient(t, WithPrometheus(reg))

	if _, err := c.Suggest(context.Background(), "country", "U"); err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got := testutil.ToFloat64(c.obs.metrics.operations.WithLabelValues("suggest", "ok")); got != 1 {
		t.Errorf("suggest ok = %v, want 1", got)
	}
}
