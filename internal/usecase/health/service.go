package health

import (
	"context"

	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the service answers but an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
	// CheckUnavailable marks a feature the dataset does not provide. It does
	// not affect the aggregated status.
	CheckUnavailable CheckResult = "unavailable"
)

// Component names used as Report.Checks keys.
const (
	ComponentDatabase = "database"
	ComponentFullText = "fulltext"
	ComponentCache    = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db     Database
	cache  Pinger
	tables []string
}

// New creates a Service. cache can be nil when the suggestion cache is disabled.
func New(db Database, cache Pinger) *Service {
	return &Service{db: db, cache: cache, tables: field.FullTextTables()}
}

// Check pings the database and cache and checks the full-text tables that
// back first-tier typeahead. Without them typeahead falls back to substring
// matching, which is reported but not counted as degradation.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 3)

	checks[ComponentDatabase] = result(s.db.Ping(ctx))
	if checks[ComponentDatabase] == CheckOK {
		checks[ComponentFullText] = s.fullText(ctx)
	}
	if s.cache != nil {
		checks[ComponentCache] = result(s.cache.Ping(ctx))
	}

	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentCache] == CheckError, checks[ComponentFullText] == CheckError:
		status = Degraded
	}
	return Report{Status: status, Checks: checks}
}

func (s *Service) fullText(ctx context.Context) CheckResult {
	for _, t := range s.tables {
		ok, err := s.db.TableExists(ctx, t)
		if err != nil {
			return CheckError
		}
		if !ok {
			return CheckUnavailable
		}
	}
	return CheckOK
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
