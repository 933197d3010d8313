// Package dto holds the JSON wire types of the HTTP API and their
// conversion to validated domain values.
package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/techsearch/internal/domain"
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/techsearch/internal/domain/search/request"
)

// Filter tree bounds accepted from clients.
const (
	MaxFilterNodes = 512
	MaxFilterDepth = 32
)

// Condition is a leaf predicate on the wire. Value is a string, a number
// or an array of those.
type Condition struct {
	Field    string          `json:"field"`
	Operator string          `json:"operator"`
	Value    json.RawMessage `json:"value"`
}

// FilterGroup is a boolean group on the wire.
type FilterGroup struct {
	Operator   string       `json:"operator"`
	Conditions []FilterNode `json:"conditions"`
}

// FilterNode is either a Condition or a nested FilterGroup. An object with a
// "conditions" key is a group.
type FilterNode struct {
	Condition *Condition
	Group     *FilterGroup
}

// UnmarshalJSON implements json.Unmarshaler. A null node stays empty and is
// rejected with its path during conversion.
func (n *FilterNode) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*n = FilterNode{}
		return nil
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return fmt.Errorf("filter node must be an object: %w", err)
	}
	if _, ok := keys["conditions"]; ok {
		var g FilterGroup
		if err := json.Unmarshal(b, &g); err != nil {
			return err
		}
		*n = FilterNode{Group: &g}
		return nil
	}
	var c Condition
	if err := json.Unmarshal(b, &c); err != nil {
		return err
	}
	*n = FilterNode{Condition: &c}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FilterNode) MarshalJSON() ([]byte, error) {
	if n.Group != nil {
		return json.Marshal(n.Group)
	}
	return json.Marshal(n.Condition)
}

// SortOption is one ORDER BY term on the wire.
type SortOption struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

// SortList accepts either a single sort object or an array of them.
type SortList []SortOption

// UnmarshalJSON implements json.Unmarshaler.
func (s *SortList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var one SortOption
		if err := json.Unmarshal(b, &one); err != nil {
			return err
		}
		*s = SortList{one}
		return nil
	}
	var many []SortOption
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Filters *FilterGroup `json:"filters"`
	Sort    SortList     `json:"sort,omitempty"`
	Limit   *int         `json:"limit,omitempty"`
	Offset  *int         `json:"offset,omitempty"`
}

// ExportRequest is the body of POST /api/export.
type ExportRequest struct {
	SearchObject SearchRequest `json:"searchObject"`
	Limit        *int          `json:"limit,omitempty"`
}

// PreviewRequest is the body of POST /api/query/preview: a search request
// plus the export cap to compile the export statement with.
type PreviewRequest struct {
	SearchRequest
	ExportLimit *int `json:"exportLimit,omitempty"`
}

// Paging holds the server-side page size policy.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

// ToDomain validates the request and converts it. Errors are
// *domain.ValidationError with a JSON path to the offending element.
func (r SearchRequest) ToDomain(p Paging) (request.Request, error) {
	g := filter.Empty()
	if r.Filters != nil {
		c := converter{}
		var err error
		if g, err = c.group(*r.Filters, "filters", 1); err != nil {
			return request.Request{}, err
		}
	}

	sorts := make([]request.Sort, 0, len(r.Sort))
	for i, so := range r.Sort {
		path := fmt.Sprintf("sort[%d]", i)
		f, ok := field.Lookup(so.Field)
		if !ok {
			return request.Request{}, domain.NewUnknownFieldError(path+".field", so.Field)
		}
		dir, ok := request.ParseDirection(so.Direction)
		if !ok {
			return request.Request{}, domain.NewValidationError(path+".direction",
				"direction must be asc or desc, got %q", so.Direction)
		}
		s, err := request.NewSort(f, dir)
		if err != nil {
			return request.Request{}, domain.NewValidationError(path, "%v", err)
		}
		sorts = append(sorts, s)
	}

	limit := r.Limit
	if limit == nil || *limit == 0 {
		if p.DefaultLimit > 0 {
			d := p.DefaultLimit
			limit = &d
		}
	}
	if limit != nil && p.MaxLimit > 0 && *limit > p.MaxLimit {
		m := p.MaxLimit
		limit = &m
	}

	req, err := request.New(g, sorts, limit, r.Offset)
	if err != nil {
		return request.Request{}, domain.NewValidationError("", "%v", err)
	}
	return req, nil
}

type converter struct {
	nodes int
}

func (c *converter) group(g FilterGroup, path string, depth int) (filter.Group, error) {
	if depth > MaxFilterDepth {
		return filter.Group{}, domain.NewValidationError(path, "filter tree deeper than %d levels", MaxFilterDepth)
	}
	if c.nodes++; c.nodes > MaxFilterNodes {
		return filter.Group{}, domain.NewValidationError(path, "filter tree has more than %d nodes", MaxFilterNodes)
	}
	op, ok := filter.ParseGroupOperator(g.Operator)
	if !ok {
		return filter.Group{}, domain.NewValidationError(path+".operator",
			"operator must be AND, OR or NOT, got %q", g.Operator)
	}

	children := make([]filter.Node, 0, len(g.Conditions))
	for i, n := range g.Conditions {
		childPath := fmt.Sprintf("%s.conditions[%d]", path, i)
		switch {
		case n.Group != nil:
			sub, err := c.group(*n.Group, childPath, depth+1)
			if err != nil {
				return filter.Group{}, err
			}
			children = append(children, sub)
		case n.Condition != nil:
			if c.nodes++; c.nodes > MaxFilterNodes {
				return filter.Group{}, domain.NewValidationError(childPath,
					"filter tree has more than %d nodes", MaxFilterNodes)
			}
			cond, err := condition(*n.Condition, childPath)
			if err != nil {
				return filter.Group{}, err
			}
			children = append(children, cond)
		default:
			return filter.Group{}, domain.NewValidationError(childPath, "condition is null")
		}
	}

	out, err := filter.NewGroup(op, children...)
	if err != nil {
		return filter.Group{}, domain.NewValidationError(path, "%v", err)
	}
	return out, nil
}

func condition(c Condition, path string) (filter.Condition, error) {
	f, ok := field.Lookup(c.Field)
	if !ok {
		return filter.Condition{}, domain.NewUnknownFieldError(path+".field", c.Field)
	}
	op, ok := filter.ParseOperator(c.Operator)
	if !ok {
		return filter.Condition{}, domain.NewValidationError(path+".operator", "unsupported operator %q", c.Operator)
	}
	v, err := ParseValue(c.Value)
	if err != nil {
		return filter.Condition{}, domain.NewValidationError(path+".value", "%v", err)
	}
	cond, err := filter.NewCondition(f, op, v)
	if err != nil {
		return filter.Condition{}, domain.NewValidationError(path, "%v", err)
	}
	return cond, nil
}

// ParseValue decodes a condition value: a string or number becomes a
// scalar, an array of them becomes a list. Numbers keep their decimal text.
func ParseValue(raw json.RawMessage) (filter.Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return filter.Value{}, errors.New("value is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return filter.Value{}, fmt.Errorf("invalid value: %w", err)
	}

	if arr, ok := v.([]any); ok {
		items := make([]filter.Literal, len(arr))
		for i, el := range arr {
			l, err := literal(el)
			if err != nil {
				return filter.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = l
		}
		return filter.List(items...), nil
	}
	l, err := literal(v)
	if err != nil {
		return filter.Value{}, err
	}
	return filter.Scalar(l), nil
}

func literal(v any) (filter.Literal, error) {
	switch x := v.(type) {
	case string:
		return filter.String(x), nil
	case json.Number:
		return filter.ParseNumber(x.String())
	case nil:
		return filter.Literal{}, errors.New("value must not be null")
	default:
		return filter.Literal{}, fmt.Errorf("value must be a string or a number, got %T", v)
	}
}
