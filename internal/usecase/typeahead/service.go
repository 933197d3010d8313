package typeahead

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/techsearch/internal/domain"
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/logger"
	"github.com/kailas-cloud/techsearch/internal/metrics"
)

const (
	// MaxSuggestions caps the suggestion list.
	MaxSuggestions = 10
	// fullTextFetch over-fetches ranked rows because FTS rows repeat values.
	fullTextFetch = 50
)

// Service resolves typeahead suggestions in two tiers: full-text prefix
// matches first, then substring matches.
type Service struct {
	repo Repository
}

// New creates a typeahead service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns at most MaxSuggestions distinct non-empty values of the
// named field matching q. A failing or missing full-text index is not an
// error: the lookup degrades to substring matching.
func (s *Service) Suggest(ctx context.Context, fieldName, q string) ([]string, error) {
	f, ok := field.Lookup(fieldName)
	if !ok {
		return nil, domain.NewUnknownFieldError("field", fieldName)
	}
	src, ok := f.Suggest()
	if !ok {
		return nil, domain.NewValidationError("field", "field %q does not support typeahead", fieldName)
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, domain.NewValidationError("q", "query text is required")
	}

	out := newCollector(MaxSuggestions)

	tier := metrics.KindSubstring
	ranked, err := s.repo.FullText(ctx, src, q, fullTextFetch)
	if err != nil {
		logger.FromContext(ctx).Debug("Typeahead full-text tier unavailable",
			zap.String("field", fieldName), zap.Error(err))
	} else {
		out.add(ranked)
		if len(ranked) > 0 {
			tier = metrics.KindFullText
		}
	}

	if !out.full() {
		plain, err := s.repo.Substring(ctx, src, q, MaxSuggestions)
		if err != nil {
			return nil, fmt.Errorf("suggest %s: %w", fieldName, err)
		}
		out.add(plain)
	}

	metrics.TypeaheadTierTotal.WithLabelValues(fieldName, tier).Inc()
	return out.values, nil
}

// collector keeps the first occurrence of each non-empty value, up to limit.
// Comparison is case-sensitive.
type collector struct {
	limit  int
	seen   map[string]struct{}
	values []string
}

func newCollector(limit int) *collector {
	return &collector{limit: limit, seen: make(map[string]struct{}, limit), values: make([]string, 0, limit)}
}

func (c *collector) full() bool { return len(c.values) >= c.limit }

func (c *collector) add(vals []string) {
	for _, v := range vals {
		if c.full() {
			return
		}
		if v == "" {
			continue
		}
		if _, dup := c.seen[v]; dup {
			continue
		}
		c.seen[v] = struct{}{}
		c.values = append(c.values, v)
	}
}
