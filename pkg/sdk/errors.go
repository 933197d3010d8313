package techsearch

import (
	"errors"

	"github.com/kailas-cloud/techsearch/internal/db"
	"github.com/kailas-cloud/techsearch/internal/domain"
)

// Sentinel errors re-exported from the internal layers.
// Use errors.Is() to check.
var (
	ErrValidation   = domain.ErrValidation
	ErrUnknownField = domain.ErrUnknownField
	ErrConnClosed   = db.ErrConnClosed
)

var errUnhealthy = errors.New("techsearch: unhealthy")
