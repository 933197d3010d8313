package techsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/techsearch/internal/db/duckdb"
	"github.com/kailas-cloud/techsearch/internal/db/sqldb"
	"github.com/kailas-cloud/techsearch/internal/db/sqlite"
	"github.com/kailas-cloud/techsearch/internal/domain"
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/request"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/query"
	searchrepo "github.com/kailas-cloud/techsearch/internal/repository/search"
	typeaheadrepo "github.com/kailas-cloud/techsearch/internal/repository/typeahead"
	"github.com/kailas-cloud/techsearch/internal/transport/dto"
	healthuc "github.com/kailas-cloud/techsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/techsearch/internal/usecase/search"
	typeaheaduc "github.com/kailas-cloud/techsearch/internal/usecase/typeahead"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultMaxOpenConns     = 4
)

// Internal interfaces, replaced by mocks in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
	Export(ctx context.Context, req request.Request, limit *int) (result.Export, error)
	Preview(req request.Request, exportLimit *int) (searchuc.Preview, error)
}

type suggestUseCase interface {
	Suggest(ctx context.Context, fieldName, q string) ([]string, error)
}

type store interface {
	Ping(ctx context.Context) error
	Close() error
}

// Client is the techsearch SDK entry point. It is safe for concurrent use.
type Client struct {
	store      store
	searchSvc  searchUseCase
	suggestSvc suggestUseCase
	healthSvc  healthUseCase
	paging     dto.Paging
	obs        *observer
}

// New opens the dataset and waits until it answers.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{maxOpenConns: defaultMaxOpenConns}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.path == "" {
		return nil, errors.New("techsearch: database path required (use WithSQLite or WithDuckDB)")
	}

	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("techsearch: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return wireClient(s, cfg, obs), nil
}

func openStore(cfg *clientConfig) (*sqldb.Store, error) {
	switch cfg.driver {
	case DriverSQLite:
		s, err := sqlite.Open(sqlite.Config{
			Path:          cfg.path,
			ReadOnly:      cfg.readOnly,
			MaxOpenConns:  cfg.maxOpenConns,
			BusyTimeoutMS: 5000,
		})
		if err != nil {
			return nil, fmt.Errorf("techsearch: open sqlite: %w", err)
		}
		return s, nil
	case DriverDuckDB:
		s, err := duckdb.Open(duckdb.Config{
			Path:         cfg.path,
			ReadOnly:     cfg.readOnly,
			MaxOpenConns: cfg.maxOpenConns,
		})
		if err != nil {
			return nil, fmt.Errorf("techsearch: open duckdb: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("techsearch: unknown driver %q", cfg.driver)
	}
}

func wireClient(s *sqldb.Store, cfg *clientConfig, obs *observer) *Client {
	searchSvc := searchuc.New(
		searchrepo.New(s, cfg.queryTimeout),
		query.NewAssembler(domain.View),
		cfg.exportMax,
	)
	suggestSvc := typeaheaduc.New(typeaheadrepo.New(s))

	return &Client{
		store:      s,
		searchSvc:  searchSvc,
		suggestSvc: suggestSvc,
		healthSvc:  healthuc.New(s, nil),
		paging:     dto.Paging{DefaultLimit: cfg.defaultLimit, MaxLimit: cfg.maxLimit},
		obs:        obs,
	}
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, -1, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search returns one page of distinct rows matching req and the total match count.
func (c *Client) Search(ctx context.Context, req SearchRequest) (_ Page, err error) {
	start := time.Now()
	var rows int
	defer func() { c.obs.observe("search", start, rows, err) }()

	r, err := c.toDomain(req)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	p, err := c.searchSvc.Search(ctx, r)
	if err != nil {
		return Page{}, fmt.Errorf("search: %w", err)
	}
	rows = len(p.Rows)
	return Page{Rows: fromInternalRows(p.Rows), Total: p.Total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Export returns up to limit rows of every field matching req, ignoring
// req's paging. limit 0 means 1000; limits above the export maximum are clamped.
func (c *Client) Export(ctx context.Context, req SearchRequest, limit int) (_ ExportResult, err error) {
	start := time.Now()
	var rows int
	defer func() { c.obs.observe("export", start, rows, err) }()

	r, err := c.toDomain(req)
	if err != nil {
		return ExportResult{}, fmt.Errorf("export: %w", err)
	}
	exp, err := c.searchSvc.Export(ctx, r, optionalLimit(limit))
	if err != nil {
		return ExportResult{}, fmt.Errorf("export: %w", err)
	}
	rows = len(exp.Rows)
	if exp.Truncated() {
		c.obs.exportTruncated()
	}
	return ExportResult{Rows: fromInternalRows(exp.Rows), Total: exp.Total, Truncated: exp.Truncated()}, nil
}

// Suggest returns up to 10 distinct values of fieldName matching q.
func (c *Client) Suggest(ctx context.Context, fieldName, q string) (_ []string, err error) {
	start := time.Now()
	var n int
	defer func() { c.obs.observe("suggest", start, n, err) }()

	out, err := c.suggestSvc.Suggest(ctx, fieldName, q)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	n = len(out)
	return out, nil
}

// Compile returns the SQL statements req compiles to without running them.
// exportLimit follows the same rules as Export's limit.
func (c *Client) Compile(req SearchRequest, exportLimit int) (CompiledQuery, error) {
	r, err := c.toDomain(req)
	if err != nil {
		return CompiledQuery{}, fmt.Errorf("compile: %w", err)
	}
	p, err := c.searchSvc.Preview(r, optionalLimit(exportLimit))
	if err != nil {
		return CompiledQuery{}, fmt.Errorf("compile: %w", err)
	}
	return CompiledQuery{
		Page:   Statement{SQL: p.Page.SQL, Args: p.Page.Args},
		Count:  Statement{SQL: p.Count.SQL, Args: p.Count.Args},
		Export: Statement{SQL: p.Export.SQL, Args: p.Export.Args},
	}, nil
}

// Fields lists the searchable fields in display order.
func (c *Client) Fields() []FieldInfo {
	list := dto.NewFieldList(field.All())
	out := make([]FieldInfo, len(list))
	for i, f := range list {
		out[i] = FieldInfo(f)
	}
	return out
}

func (c *Client) toDomain(req SearchRequest) (request.Request, error) {
	w, err := req.toWire()
	if err != nil {
		return request.Request{}, err
	}
	return w.ToDomain(c.paging)
}

func optionalLimit(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func fromInternalRows(rows []result.Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row(r)
	}
	return out
}
