package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates that persistent tiles cannot be served while
	// transient tiles still render from their query string.
	Degraded Status = "degraded"
	// Unhealthy indicates that no tile can be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckDatabase  = "database"
	CheckTileTypes = "tile_types"
)

// DefaultPingTimeout bounds the database ping of one health check.
const DefaultPingTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db          DBPinger
	types       TypeCounter
	pingTimeout time.Duration
}

// New creates a Service. types can be nil.
func New(db DBPinger, types TypeCounter) *Service {
	return &Service{db: db, types: types, pingTimeout: DefaultPingTimeout}
}

// WithPingTimeout overrides DefaultPingTimeout.
func (s *Service) WithPingTimeout(d time.Duration) *Service {
	if d > 0 {
		s.pingTimeout = d
	}
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, 2)
	status := Healthy

	pingCtx, cancel := context.WithTimeout(ctx, s.pingTimeout)
	defer cancel()
	checks[CheckDatabase] = CheckOK
	if err := s.db.Ping(pingCtx); err != nil {
		checks[CheckDatabase] = CheckError
		status = Degraded
	}

	// Without tile types every traversal is a 404.
	if s.types != nil {
		checks[CheckTileTypes] = CheckOK
		if s.types.Count() == 0 {
			checks[CheckTileTypes] = CheckError
			status = Unhealthy
		}
	}

	return Report{Status: status, Checks: checks}
}
