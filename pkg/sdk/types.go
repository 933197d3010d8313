package techsearch

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/techsearch/internal/csvexport"
	"github.com/kailas-cloud/techsearch/internal/domain/search/result"
	"github.com/kailas-cloud/techsearch/internal/transport/dto"
)

// Node is a filter tree element: a Condition or a Group.
type Node interface {
	toWire() (dto.FilterNode, error)
}

// Condition is a leaf predicate. Value is a string, an integer or float, or
// a slice of those for IN, NOT IN and BETWEEN.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Where builds a Condition.
func Where(field, operator string, value any) Condition {
	return Condition{Field: field, Operator: operator, Value: value}
}

func (c Condition) toWire() (dto.FilterNode, error) {
	raw, err := json.Marshal(c.Value)
	if err != nil {
		return dto.FilterNode{}, fmt.Errorf("condition on %q: encode value: %w", c.Field, err)
	}
	return dto.FilterNode{Condition: &dto.Condition{Field: c.Field, Operator: c.Operator, Value: raw}}, nil
}

// Group combines its conditions with AND, OR or NOT (negated conjunction).
// An empty group matches everything.
type Group struct {
	Operator   string
	Conditions []Node
}

// And matches rows satisfying every node.
func And(nodes ...Node) Group { return Group{Operator: "AND", Conditions: nodes} }

// Or matches rows satisfying at least one node.
func Or(nodes ...Node) Group { return Group{Operator: "OR", Conditions: nodes} }

// Not matches rows that do not satisfy all nodes together.
func Not(nodes ...Node) Group { return Group{Operator: "NOT", Conditions: nodes} }

func (g Group) toWire() (dto.FilterNode, error) {
	wg, err := g.wireGroup()
	if err != nil {
		return dto.FilterNode{}, err
	}
	return dto.FilterNode{Group: &wg}, nil
}

func (g Group) wireGroup() (dto.FilterGroup, error) {
	op := g.Operator
	if op == "" {
		op = "AND"
	}
	out := dto.FilterGroup{Operator: op, Conditions: make([]dto.FilterNode, 0, len(g.Conditions))}
	for i, n := range g.Conditions {
		if n == nil {
			return dto.FilterGroup{}, fmt.Errorf("%w: conditions[%d] is nil", ErrValidation, i)
		}
		w, err := n.toWire()
		if err != nil {
			return dto.FilterGroup{}, err
		}
		out.Conditions = append(out.Conditions, w)
	}
	return out, nil
}

// Sort is one ORDER BY term. Direction is "asc" (default) or "desc".
type Sort struct {
	Field     string
	Direction string
}

// SearchRequest selects, orders and pages rows. Zero Limit means the default page size.
type SearchRequest struct {
	Filters Group
	Sort    []Sort
	Limit   int
	Offset  int
}

func (r SearchRequest) toWire() (dto.SearchRequest, error) {
	g, err := r.Filters.wireGroup()
	if err != nil {
		return dto.SearchRequest{}, err
	}
	sorts := make(dto.SortList, len(r.Sort))
	for i, s := range r.Sort {
		sorts[i] = dto.SortOption{Field: s.Field, Direction: s.Direction}
	}
	limit, offset := r.Limit, r.Offset
	return dto.SearchRequest{Filters: &g, Sort: sorts, Limit: &limit, Offset: &offset}, nil
}

// Row is one result row keyed by field name. Values are string, int64,
// float64 or nil.
type Row map[string]any

// Page is one page of search results.
type Page struct {
	Rows   []Row
	Total  int
	Limit  int
	Offset int
}

// ExportResult is the outcome of an export.
type ExportResult struct {
	Rows      []Row
	Total     int
	Truncated bool
}

// WriteCSV writes the rows as CSV with a label header row.
func (e ExportResult) WriteCSV(w io.Writer) error {
	rows := make([]result.Row, len(e.Rows))
	for i, r := range e.Rows {
		rows[i] = result.Row(r)
	}
	if err := csvexport.Write(w, csvexport.Columns, rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Statement is compiled SQL with ? placeholders and its bound arguments.
type Statement struct {
	SQL  string
	Args []any
}

// CompiledQuery holds the statements a SearchRequest compiles to.
type CompiledQuery struct {
	Page   Statement
	Count  Statement
	Export Statement
}

// FieldInfo describes a searchable field.
type FieldInfo struct {
	Name      string
	Label     string
	Kind      string
	Operators []string
	Typeahead bool
}

// ExportFilename returns the conventional export file name for the current time.
func ExportFilename() string { return csvexport.Filename(time.Now()) }
