package tiles

import (
	"context"

	healthuc "github.com/kailas-cloud/tiles/internal/usecase/health"
)

// HealthStatus is the aggregated health of the storage backend and the
// tile type registry.
type HealthStatus struct {
	// Status is "ok", "degraded" (storage down, transient tiles still work)
	// or "error" (no tile types registered).
	Status string
	Checks map[string]string // "database", "tile_types" → "ok"/"error"
}

// Serving reports whether at least transient tiles can be served.
func (h HealthStatus) Serving() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// Health runs the health checks.
func (c *Client) Health(ctx context.Context) (h HealthStatus) {
	sp := c.obs.begin("health", nil)
	defer func() { c.obs.end(sp, nil, "status", h.Status) }()

	report := c.healthSvc.Check(ctx)
	h = HealthStatus{
		Status: string(report.Status),
		Checks: make(map[string]string, len(report.Checks)),
	}
	for k, v := range report.Checks {
		h.Checks[k] = string(v)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
