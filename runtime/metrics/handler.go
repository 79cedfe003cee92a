// Package metrics serves /metrics, /health and /ready for the service.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

const checkConcurrencyLimit = 64

// Check probes one dependency. It must return promptly once ctx is done.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

type Options struct {
	Registry *prometheus.Registry
	Register func(reg prometheus.Registerer) error

	// Health is liveness; Ready gates traffic. With no checks the endpoint
	// answers 200.
	Health []Check
	Ready  []Check

	MetricsPath string
	HealthPath  string
	ReadyPath   string

	CheckTimeout time.Duration

	Log logger.LoggerInterface

	DisableBuildInfo bool
}

// Report is the JSON body of /health and /ready.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

const (
	statusOK          = "ok"
	statusUnavailable = "unavailable"
)

func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}

func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = def
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return p
}

// New builds the mux and returns the registry it exposes. Registration
// failures are returned; the caller decides whether they are fatal.
func New(opts Options) (http.Handler, *prometheus.Registry, error) {
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	timeout := opts.CheckTimeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}

	collectorsToAdd := []prometheus.Collector{
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	}
	if !opts.DisableBuildInfo {
		collectorsToAdd = append(collectorsToAdd, collectors.NewBuildInfoCollector())
	}
	for _, c := range collectorsToAdd {
		if err := registerCollector(reg, c); err != nil {
			return nil, nil, fmt.Errorf("metrics: register: %w", err)
		}
	}
	if opts.Register != nil {
		if err := opts.Register(reg); err != nil {
			return nil, nil, fmt.Errorf("metrics: register custom: %w", err)
		}
	}

	sem := make(chan struct{}, checkConcurrencyLimit)
	promHandler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})

	mux := http.NewServeMux()
	mux.Handle(normalizePath(opts.MetricsPath, "/metrics"), getOnly(promHandler))
	mux.Handle(normalizePath(opts.HealthPath, "/health"), getOnly(checksHandler(opts.Health, timeout, sem, log)))
	mux.Handle(normalizePath(opts.ReadyPath, "/ready"), getOnly(checksHandler(opts.Ready, timeout, sem, log)))
	return mux, reg, nil
}

func getOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// checksHandler runs every check concurrently under one deadline. A busy
// semaphore answers 503 instead of queueing.
func checksHandler(checks []Check, timeout time.Duration, sem chan struct{}, log logger.LoggerInterface) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		default:
			w.Header().Set("Retry-After", "1")
			writeReport(w, r, http.StatusServiceUnavailable, Report{Status: "busy"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rep := Run(ctx, checks)
		status := http.StatusOK
		if rep.Status != statusOK {
			status = http.StatusServiceUnavailable
			w.Header().Set("Retry-After", "1")
			log.WarnwCtx(r.Context(), "dependency check failed", "path", r.URL.Path, "checks", rep.Checks)
		}
		writeReport(w, r, status, rep)
	})
}

// Run executes checks in parallel. A check still running at ctx's deadline
// is reported with the context error.
func Run(ctx context.Context, checks []Check) Report {
	rep := Report{Status: statusOK}
	if len(checks) == 0 {
		return rep
	}

	var mu sync.Mutex
	rep.Checks = make(map[string]string, len(checks))
	g := new(errgroup.Group)
	for _, c := range checks {
		g.Go(func() error {
			done := make(chan error, 1)
			go func() { done <- c.Fn(ctx) }()

			var err error
			select {
			case err = <-done:
			case <-ctx.Done():
				err = ctx.Err()
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Status = statusUnavailable
				rep.Checks[c.Name] = err.Error()
				return nil
			}
			rep.Checks[c.Name] = statusOK
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

func writeReport(w http.ResponseWriter, r *http.Request, status int, rep Report) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_ = json.NewEncoder(w).Encode(rep)
}
