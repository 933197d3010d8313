package dto

import (
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/query"
	healthuc "github.com/kailas-cloud/techsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/techsearch/internal/usecase/search"
)

// ErrorCode is the machine-readable error class of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchResponse is the body of a successful POST /api/search.
type SearchResponse struct {
	Results []result.Row `json:"results"`
	Total   int          `json:"total"`
	Limit   int          `json:"limit"`
	Offset  int          `json:"offset"`
}

// NewSearchResponse converts a result page. Results is never null.
func NewSearchResponse(p result.Page) SearchResponse {
	rows := p.Rows
	if rows == nil {
		rows = []result.Row{}
	}
	return SearchResponse{Results: rows, Total: p.Total, Limit: p.Limit, Offset: p.Offset}
}

// ExportResponse is the body of a successful POST /api/export.
type ExportResponse struct {
	CSVContent      string `json:"csvContent"`
	Filename        string `json:"filename"`
	RecordsExported int    `json:"recordsExported"`
	TotalAvailable  int    `json:"totalAvailable"`
	Truncated       bool   `json:"truncated"`
}

// Statement is a compiled SQL statement with its bound arguments.
type Statement struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

func newStatement(c query.Compiled) Statement {
	args := c.Args
	if args == nil {
		args = []any{}
	}
	return Statement{SQL: c.SQL, Args: args}
}

// PreviewResponse is the body of POST /api/query/preview.
type PreviewResponse struct {
	Page   Statement `json:"page"`
	Count  Statement `json:"count"`
	Export Statement `json:"export"`
}

// NewPreviewResponse converts compiled statements.
func NewPreviewResponse(p searchuc.Preview) PreviewResponse {
	return PreviewResponse{
		Page:   newStatement(p.Page),
		Count:  newStatement(p.Count),
		Export: newStatement(p.Export),
	}
}

// FieldInfo describes one searchable field.
type FieldInfo struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	Operators []string `json:"operators"`
	Typeahead bool     `json:"typeahead"`
}

// NewFieldList converts the field catalogue in display order.
func NewFieldList(fields []field.Field) []FieldInfo {
	out := make([]FieldInfo, len(fields))
	for i, f := range fields {
		ops := filter.OperatorsFor(f.Kind())
		names := make([]string, len(ops))
		for j, op := range ops {
			names[j] = string(op)
		}
		_, typeahead := f.Suggest()
		out[i] = FieldInfo{
			Name:      f.Name(),
			Label:     f.Label(),
			Kind:      string(f.Kind()),
			Operators: names,
			Typeahead: typeahead,
		}
	}
	return out
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// NewHealthResponse converts a health report.
func NewHealthResponse(r healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(r.Status), Checks: checks}
}
