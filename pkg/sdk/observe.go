package tiles

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/domain/tile"
	"github.com/kailas-cloud/tiles/internal/usecase/tiledata"
)

const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusInvalid  = "invalid"
	statusError    = "error"
)

// sdkMetrics holds the collectors registered for a Client.
type sdkMetrics struct {
	calls    *prometheus.CounterVec   // operation, tile_type, status
	duration *prometheus.HistogramVec // operation
	data     tiledata.Metrics
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tiles",
			Subsystem: "sdk",
			Name:      "operations_total",
			Help:      "SDK calls by operation, tile type and outcome.",
		}, []string{"operation", "tile_type", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tiles",
			Subsystem: "sdk",
			Name:      "operation_duration_seconds",
			Help:      "SDK call duration in seconds.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}, []string{"operation"}),
		data: tiledata.Metrics{
			Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tiles",
				Subsystem: "sdk_data",
				Name:      "operations_total",
				Help:      "Tile data manager operations by storage mode.",
			}, []string{"mode", "op", "status"}),
			DecodeFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tiles",
				Subsystem: "sdk_data",
				Name:      "decode_fallback_total",
				Help:      "Reads that fell back to the last good record.",
			}, []string{"mode"}),
			Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "tiles",
				Subsystem: "sdk_data",
				Name:      "cache_total",
				Help:      "Memoized tile data reads by result.",
			}, []string{"result"}),
		},
	}
	err := errors.Join(
		registerOrReuse(reg, &m.calls),
		registerOrReuse(reg, &m.duration),
		registerOrReuse(reg, &m.data.Operations),
		registerOrReuse(reg, &m.data.DecodeFallbacks),
		registerOrReuse(reg, &m.data.Cache),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector, or points c at the collector of the
// same name another Client already registered on reg.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	var are prometheus.AlreadyRegisteredError
	switch {
	case err == nil:
		return nil
	case !errors.As(err, &are):
		return fmt.Errorf("tiles: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("tiles: metric already registered with incompatible type: %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer records SDK calls. A nil observer records nothing.
type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// dataMetrics returns the counters tile data managers report to, if any.
func (o *observer) dataMetrics() (tiledata.Metrics, bool) {
	if o == nil || o.metrics == nil {
		return tiledata.Metrics{}, false
	}
	return o.metrics.data, true
}

// span is one SDK operation in flight, optionally on a tile.
type span struct {
	op    string
	tile  *tile.Tile
	start time.Time
}

func (o *observer) begin(op string, t *tile.Tile) span {
	return span{op: op, tile: t, start: time.Now()}
}

func (o *observer) end(sp span, err error, attrs ...any) {
	if o == nil {
		return
	}
	dur := time.Since(sp.start)
	status := statusOf(err)

	if o.metrics != nil {
		tileType := ""
		if sp.tile != nil {
			tileType = sp.tile.Name
		}
		o.metrics.calls.WithLabelValues(sp.op, tileType, status).Inc()
		o.metrics.duration.WithLabelValues(sp.op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	args := []any{"op", sp.op, "duration", dur}
	if sp.tile != nil {
		args = append(args, slog.Group("tile",
			"type", sp.tile.Name,
			"id", sp.tile.ID,
			"context", sp.tile.Context.NormalizedPath(),
		))
	}
	args = append(args, attrs...)
	switch status {
	case statusOK:
		o.logger.Debug("operation completed", args...)
	case statusError:
		o.logger.Error("operation failed", append(args, "error", err)...)
	default:
		o.logger.Warn("operation failed", append(args, "status", status, "error", err)...)
	}
}

// statusOf maps an error to the status label: caller mistakes are told apart
// from storage failures.
func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, domain.ErrTileTypeNotFound), errors.Is(err, domain.ErrNotFound):
		return statusNotFound
	case errors.Is(err, domain.ErrInvalidTile), errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrAlreadyExists):
		return statusInvalid
	}
	return statusError
}
