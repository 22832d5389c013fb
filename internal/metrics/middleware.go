package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tiles",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tiles",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(httpRequestsTotal)
}

// Middleware records HTTP request duration and count.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			status := strconv.Itoa(code)
			path := normalizePath(chi.RouteContext(r.Context()).RoutePattern(), r.URL.Path)

			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		})
	}
}

// normalizePath turns a route pattern into a bounded metrics label.
// Requests served by the traversal catch-all are labelled by the kind of
// tile view they address, never by content path, tile name or id.
func normalizePath(pattern, urlPath string) string {
	switch pattern {
	case "":
		return "unknown"
	case "/*":
		return traversalLabel(urlPath)
	}
	return pattern
}

var knownViews = map[string]bool{
	"data":     true,
	"url":      true,
	"esi-body": true,
	"esi-head": true,
}

func traversalLabel(urlPath string) string {
	segs := strings.Split(strings.Trim(urlPath, "/"), "/")
	i := 0
	for i < len(segs) && !strings.HasPrefix(segs[i], "@@") {
		i++
	}
	if i == len(segs) {
		return "/{traversal}"
	}

	switch segs[i] {
	case "@@add-tile":
		return "/{context}/@@add-tile/{tile}"
	case "@@tiles":
		return "/{context}/@@tiles"
	}

	label := "/{context}/@@{tile}"
	rest := segs[i+1:]
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "@@") {
		label += "/{id}"
		rest = rest[1:]
	}
	if len(rest) > 0 {
		view := strings.TrimPrefix(rest[0], "@@")
		if !knownViews[view] {
			view = "{view}"
		}
		label += "/@@" + view
	}
	return label
}
