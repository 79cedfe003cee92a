// Package prommetrics records shutdown statistics in Prometheus.
package prommetrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics implements shutdown.Metrics.
type PromMetrics struct {
	stopTotal        *prometheus.CounterVec
	serveErrors      *prometheus.CounterVec
	serverStopResult *prometheus.CounterVec
	gracefulDuration prometheus.Histogram
}

// register returns the already registered collector when there is one, so
// that New is safe to call twice against the same registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("prommetrics: register: %w", err)
	}
	return c, nil
}

// New registers:
//   - {ns}_shutdown_graceful_stop_total{result}
//   - {ns}_shutdown_server_serve_errors_total{name}
//   - {ns}_shutdown_server_stop_result_total{name,result}
//   - {ns}_shutdown_graceful_duration_seconds
func New(reg prometheus.Registerer, namespace string) (*PromMetrics, error) {
	if reg == nil {
		return nil, errors.New("prommetrics: registerer is nil")
	}
	const subsystem = "shutdown"

	var (
		pm  PromMetrics
		err error
	)
	if pm.stopTotal, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "graceful_stop_total", Help: "Graceful stops by result (success, force).",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	if pm.serveErrors, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "server_serve_errors_total", Help: "Unexpected Serve errors by server.",
	}, []string{"name"})); err != nil {
		return nil, err
	}
	if pm.serverStopResult, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name: "server_stop_result_total", Help: "Per-server stop result.",
	}, []string{"name", "result"})); err != nil {
		return nil, err
	}
	if pm.gracefulDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem,
		Name:    "graceful_duration_seconds",
		Help:    "Duration of the whole shutdown sequence.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})); err != nil {
		return nil, err
	}
	return &pm, nil
}

func (p *PromMetrics) IncStopTotal(result string)              { p.stopTotal.WithLabelValues(result).Inc() }
func (p *PromMetrics) ObserveGracefulDuration(d time.Duration) { p.gracefulDuration.Observe(d.Seconds()) }
func (p *PromMetrics) IncServeError(name string)               { p.serveErrors.WithLabelValues(name).Inc() }
func (p *PromMetrics) IncServerStopResult(name, result string) {
	p.serverStopResult.WithLabelValues(name, result).Inc()
}
