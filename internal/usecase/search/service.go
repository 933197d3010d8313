package search

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/techsearch/internal/domain"
	"github.com/kailas-cloud/techsearch/internal/domain/search/request"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/logger"
	"github.com/kailas-cloud/techsearch/internal/metrics"
	"github.com/kailas-cloud/techsearch/internal/query"
)

// Service runs paged searches and exports over the compiled filter tree.
type Service struct {
	repo      Repository
	asm       *query.Assembler
	exportMax int
}

// New creates a search service. exportMax caps export sizes; <= 0 means
// request.MaxExportLimit.
func New(repo Repository, asm *query.Assembler, exportMax int) *Service {
	if exportMax <= 0 {
		exportMax = request.MaxExportLimit
	}
	return &Service{repo: repo, asm: asm, exportMax: exportMax}
}

// ExportMax returns the server-side export cap.
func (s *Service) ExportMax() int { return s.exportMax }

// Search returns one page of distinct result rows and the total match count.
// Statements are compiled before any connection is acquired.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Page, error) {
	plan, err := s.asm.Search(req)
	if err != nil {
		return result.Page{}, invalid(err)
	}

	rows, total, err := s.repo.FetchWithTotal(ctx, metrics.KindPage, plan)
	if err != nil {
		return result.Page{}, fmt.Errorf("search: %w", err)
	}

	return result.Page{Rows: rows, Total: total, Limit: req.Limit(), Offset: req.Offset()}, nil
}

// Export returns up to limit rows (default 1000, clamped to ExportMax) of
// the export projection and the number of rows available. The search
// request's paging is ignored.
func (s *Service) Export(ctx context.Context, req request.Request, limit *int) (result.Export, error) {
	exp, err := request.NewExport(req, limit, s.exportMax)
	if err != nil {
		return result.Export{}, domain.NewValidationError("limit", "%v", err)
	}
	plan, err := s.asm.Export(exp)
	if err != nil {
		return result.Export{}, invalid(err)
	}

	rows, total, err := s.repo.FetchWithTotal(ctx, metrics.KindExport, plan)
	if err != nil {
		return result.Export{}, fmt.Errorf("export: %w", err)
	}

	out := result.Export{Rows: rows, Columns: query.ExportProjection.Columns(), Total: total}
	metrics.ExportsTotal.WithLabelValues(strconv.FormatBool(out.Truncated())).Inc()
	if out.Truncated() {
		logger.FromContext(ctx).Info("Export truncated",
			zap.Int("exported", len(rows)), zap.Int("available", total), zap.Int("cap", exp.Limit()))
	}
	return out, nil
}

// Preview is the set of statements a request compiles to.
type Preview struct {
	Page   query.Compiled
	Count  query.Compiled
	Export query.Compiled
}

// Preview compiles req without touching the database.
func (s *Service) Preview(req request.Request, exportLimit *int) (Preview, error) {
	page, err := s.asm.Search(req)
	if err != nil {
		return Preview{}, invalid(err)
	}
	exp, err := request.NewExport(req, exportLimit, s.exportMax)
	if err != nil {
		return Preview{}, domain.NewValidationError("limit", "%v", err)
	}
	export, err := s.asm.Export(exp)
	if err != nil {
		return Preview{}, invalid(err)
	}
	return Preview{Page: page.Rows, Count: page.Count, Export: export.Rows}, nil
}

// invalid marks an assembler error as a client error. The assembler only
// fails on request content (sort fields, filter nodes).
func invalid(err error) error {
	return domain.NewValidationError("", "%v", err)
}
