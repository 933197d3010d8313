package techsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/techsearch/internal/transport/dto"
)

// DecodeSearchRequest reads a search request in the HTTP API's JSON shape:
//
//	{"filters": {"operator": "AND", "conditions": [...]}, "sort": [...], "limit": 25, "offset": 0}
func DecodeSearchRequest(r io.Reader) (SearchRequest, error) {
	var w dto.SearchRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		if err == io.EOF {
			return SearchRequest{}, nil
		}
		return SearchRequest{}, fmt.Errorf("decode search request: %w", err)
	}

	var out SearchRequest
	if w.Filters != nil {
		g, err := fromWireGroup(*w.Filters)
		if err != nil {
			return SearchRequest{}, err
		}
		out.Filters = g
	}
	for _, s := range w.Sort {
		out.Sort = append(out.Sort, Sort{Field: s.Field, Direction: s.Direction})
	}
	if w.Limit != nil {
		out.Limit = *w.Limit
	}
	if w.Offset != nil {
		out.Offset = *w.Offset
	}
	return out, nil
}

func fromWireGroup(g dto.FilterGroup) (Group, error) {
	out := Group{Operator: g.Operator, Conditions: make([]Node, 0, len(g.Conditions))}
	for i, n := range g.Conditions {
		switch {
		case n.Group != nil:
			sub, err := fromWireGroup(*n.Group)
			if err != nil {
				return Group{}, err
			}
			out.Conditions = append(out.Conditions, sub)
		case n.Condition != nil:
			v, err := rawValue(n.Condition.Value)
			if err != nil {
				return Group{}, fmt.Errorf("conditions[%d]: %w", i, err)
			}
			out.Conditions = append(out.Conditions, Where(n.Condition.Field, n.Condition.Operator, v))
		default:
			return Group{}, fmt.Errorf("%w: conditions[%d] is null", ErrValidation, i)
		}
	}
	return out, nil
}

// rawValue keeps numbers as json.Number so their text survives re-encoding.
func rawValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}
