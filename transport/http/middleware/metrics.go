package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics receives one observation per request. Route is the chi
// pattern, never the raw path, to keep label cardinality bounded.
type RequestMetrics interface {
	ObserveRequest(method, route, code string, seconds float64)
	IncError(kind, method, route string)
}

type PromMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cadastro",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "code"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cadastro",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "HTTP responses with 4xx or 5xx status.",
		}, []string{"kind", "method", "route"}),
	}
	if reg != nil {
		m.duration = register(reg, m.duration)
		m.errors = register(reg, m.errors)
	}
	return m
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func (m *PromMetrics) ObserveRequest(method, route, code string, seconds float64) {
	m.duration.WithLabelValues(method, route, code).Observe(seconds)
}

func (m *PromMetrics) IncError(kind, method, route string) {
	m.errors.WithLabelValues(kind, method, route).Inc()
}

// Metrics records latency and error class per chi route.
func Metrics(m RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := RoutePattern(r)
			m.ObserveRequest(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
			switch {
			case status >= 500:
				m.IncError("server", r.Method, route)
			case status >= 400:
				m.IncError("client", r.Method, route)
			}
		})
	}
}

// RoutePattern is the matched chi pattern, or "unmatched".
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
