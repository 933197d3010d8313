package typeahead

import (
	"context"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
)

// Repository reads suggestion candidates.
type Repository interface {
	// FullText returns prefix matches from the source's FTS index, best first.
	// It fails when no index is usable; callers fall back to Substring.
	FullText(ctx context.Context, src field.Source, q string, limit int) ([]string, error)
	// Substring returns distinct values containing q, in value order.
	Substring(ctx context.Context, src field.Source, q string, limit int) ([]string, error)
}
