package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/filter"
)

// Paging and export limits.
const (
	DefaultLimit = 25
	MaxLimit     = 1000
	// MaxSortFields bounds the ORDER BY list a client may request.
	MaxSortFields = 8

	DefaultExportLimit = 1000
	MaxExportLimit     = 50000
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case; empty means ascending.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, true
	case "DESC":
		return Desc, true
	default:
		return "", false
	}
}

// Sort is one ORDER BY term.
type Sort struct {
	field field.Field
	dir   Direction
}

// NewSort validates and creates a Sort.
func NewSort(f field.Field, dir Direction) (Sort, error) {
	if f.IsZero() {
		return Sort{}, fmt.Errorf("sort field is required")
	}
	if dir != Asc && dir != Desc {
		return Sort{}, fmt.Errorf("invalid sort direction %q", dir)
	}
	return Sort{field: f, dir: dir}, nil
}

// Field returns the sort field.
func (s Sort) Field() field.Field { return s.field }

// Direction returns the sort direction.
func (s Sort) Direction() Direction { return s.dir }

// Request is a validated search request.
type Request struct {
	filters filter.Group
	sorts   []Sort
	limit   int
	offset  int
}

// New validates and normalizes search parameters.
// Defaults: limit=25, offset=0. Limit is clamped to MaxLimit.
func New(filters filter.Group, sorts []Sort, limit, offset *int) (Request, error) {
	if len(sorts) > MaxSortFields {
		return Request{}, fmt.Errorf("too many sort fields (max %d)", MaxSortFields)
	}
	seen := make(map[string]struct{}, len(sorts))
	for _, s := range sorts {
		if s.field.IsZero() {
			return Request{}, fmt.Errorf("sort field is required")
		}
		if _, dup := seen[s.field.Name()]; dup {
			return Request{}, fmt.Errorf("duplicate sort field %q", s.field.Name())
		}
		seen[s.field.Name()] = struct{}{}
	}

	l := DefaultLimit
	if limit != nil {
		if *limit < 0 {
			return Request{}, fmt.Errorf("limit must not be negative")
		}
		if *limit > 0 {
			l = *limit
		}
	}
	if l > MaxLimit {
		l = MaxLimit
	}

	o := 0
	if offset != nil {
		if *offset < 0 {
			return Request{}, fmt.Errorf("offset must not be negative")
		}
		o = *offset
	}

	cp := make([]Sort, len(sorts))
	copy(cp, sorts)
	return Request{filters: filters, sorts: cp, limit: l, offset: o}, nil
}

// Filters returns the filter tree.
func (r Request) Filters() filter.Group { return r.filters }

// Sorts returns a copy of the requested sort terms.
func (r Request) Sorts() []Sort {
	cp := make([]Sort, len(r.sorts))
	copy(cp, r.sorts)
	return cp
}

// Limit returns the page size.
func (r Request) Limit() int { return r.limit }

// Offset returns the number of rows to skip.
func (r Request) Offset() int { return r.offset }

// Export is a validated export request: the search filters and sort plus a record cap.
type Export struct {
	search Request
	limit  int
}

// NewExport clamps the requested record cap to maxLimit.
// A nil or zero cap means DefaultExportLimit. maxLimit <= 0 means MaxExportLimit.
func NewExport(search Request, limit *int, maxLimit int) (Export, error) {
	if maxLimit <= 0 {
		maxLimit = MaxExportLimit
	}
	l := DefaultExportLimit
	if limit != nil {
		if *limit < 0 {
			return Export{}, fmt.Errorf("export limit must not be negative")
		}
		if *limit > 0 {
			l = *limit
		}
	}
	if l > maxLimit {
		l = maxLimit
	}
	return Export{search: search, limit: l}, nil
}

// Search returns the underlying search request (its paging is ignored by export).
func (e Export) Search() Request { return e.search }

// Limit returns the clamped record cap.
func (e Export) Limit() int { return e.limit }
