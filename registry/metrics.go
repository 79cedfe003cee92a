package registry

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	saved          prometheus.Counter
	mirrorFailures *prometheus.CounterVec
	cepLookups     *prometheus.CounterVec
}

// NewMetrics registers the registry counters on reg. A nil reg gives
// unregistered counters, which is what tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		saved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cadastro", Name: "persons_saved_total",
			Help: "Persons saved to the local store.",
		}),
		mirrorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cadastro", Name: "mirror_failures_total",
			Help: "Remote mirror operations that failed after retries.",
		}, []string{"op"}),
		cepLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cadastro", Name: "cep_lookups_total",
			Help: "Postal code lookups by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		m.saved = register(reg, m.saved)
		m.mirrorFailures = register(reg, m.mirrorFailures)
		m.cepLookups = register(reg, m.cepLookups)
	}
	return m
}

// register returns the collector already on reg when an equal one was
// registered before, so a second Metrics shares its series.
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
