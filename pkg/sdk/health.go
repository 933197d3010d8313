package techsearch

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/techsearch/internal/usecase/health"
)

// HealthStatus represents the dataset health.
type HealthStatus struct {
	Status string            // "ok", "degraded" or "error"
	Checks map[string]string // component → "ok", "error" or "unavailable"
}

// Healthy reports whether every check passed.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks the database behind the client.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	status := HealthStatus{Status: string(report.Status), Checks: checks}

	var err error
	if !status.Healthy() {
		err = errUnhealthy
	}
	c.obs.observe("health", start, -1, err)
	return status
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
