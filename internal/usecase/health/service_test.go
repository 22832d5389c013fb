package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err      error
	deadline bool
}

func (m *mockDBPinger) Ping(ctx context.Context) error {
	_, m.deadline = ctx.Deadline()
	return m.err
}

type mockTypeCounter struct {
	n int
}

func (m *mockTypeCounter) Count() int { return m.n }

// --- Tests ---

func TestCheck(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		types      TypeCounter
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all healthy",
			types:      &mockTypeCounter{n: 2},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK, CheckTileTypes: CheckOK},
		},
		{
			name:       "database down degrades",
			dbErr:      errors.New("conn refused"),
			types:      &mockTypeCounter{n: 2},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError, CheckTileTypes: CheckOK},
		},
		{
			name:       "no tile types is unhealthy",
			types:      &mockTypeCounter{},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK, CheckTileTypes: CheckError},
		},
		{
			name:       "both fail",
			dbErr:      errors.New("db down"),
			types:      &mockTypeCounter{},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError, CheckTileTypes: CheckError},
		},
		{
			name:       "no type counter",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckOK},
		},
		{
			name:       "no type counter, database down",
			dbErr:      errors.New("fail"),
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{CheckDatabase: CheckError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&mockDBPinger{err: tt.dbErr}, tt.types)
			r := svc.Check(context.Background())

			if r.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tt.wantStatus)
			}
			if len(r.Checks) != len(tt.wantChecks) {
				t.Errorf("checks = %v, want %v", r.Checks, tt.wantChecks)
			}
			for k, want := range tt.wantChecks {
				if r.Checks[k] != want {
					t.Errorf("check %s = %q, want %q", k, r.Checks[k], want)
				}
			}
		})
	}
}

func TestCheck_PingHasDeadline(t *testing.T) {
	db := &mockDBPinger{}
	New(db, nil).WithPingTimeout(time.Second).Check(context.Background())

	if !db.deadline {
		t.Error("expected ping context to carry a deadline")
	}
}

func TestWithPingTimeout_IgnoresNonPositive(t *testing.T) {
	svc := New(&mockDBPinger{}, nil).WithPingTimeout(0)
	if svc.pingTimeout != DefaultPingTimeout {
		t.Errorf("pingTimeout = %v, want default", svc.pingTimeout)
	}
}
