// Package shutdown runs the service's servers and tears them down in order:
// servers stop gracefully (forced after the timeout), then registered
// resources are closed in reverse registration order.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

// Server is anything with a blocking Serve and a two-phase stop.
type Server interface {
	Serve(ctx context.Context) error
	GracefulStopWithTimeout(ctx context.Context) error
	ForceStop()
	Name() string
}

// Metrics collects shutdown statistics; see prommetrics.
type Metrics interface {
	IncStopTotal(result string)
	ObserveGracefulDuration(d time.Duration)
	IncServeError(name string)
	IncServerStopResult(name, result string)
}

type Config struct {
	// ShutdownTimeout bounds graceful stop; 0 forces servers immediately.
	ShutdownTimeout time.Duration

	// HandleSignals stops Run on SIGINT/SIGTERM.
	HandleSignals bool

	// IsNormalError decides which Serve errors are expected during stop.
	IsNormalError func(error) bool

	Log     logger.LoggerInterface
	Metrics Metrics
}

type closer struct {
	name string
	fn   func(ctx context.Context) error
}

type Manager struct {
	cfg     Config
	mu      sync.Mutex
	servers []Server
	closers []closer
	drains  []func()
	stopped bool
}

func New(cfg Config) *Manager {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	if cfg.IsNormalError == nil {
		cfg.IsNormalError = DefaultIsNormalErr
	}
	return &Manager{cfg: cfg}
}

// Add registers a server. Nil servers are ignored.
func (m *Manager) Add(s Server) {
	if s == nil {
		return
	}
	m.mu.Lock()
	m.servers = append(m.servers, s)
	m.mu.Unlock()
}

// OnStop registers a resource to close after every server has stopped.
// Closers run in reverse order of registration, so register dependencies
// first (database before the service using it).
func (m *Manager) OnStop(name string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.closers = append(m.closers, closer{name: name, fn: fn})
	m.mu.Unlock()
}

// OnDrain registers a hook run when Stop begins, before any server is
// asked to stop.
func (m *Manager) OnDrain(fn func()) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.drains = append(m.drains, fn)
	m.mu.Unlock()
}

// Run serves until ctx is done, a signal arrives or a server fails, then
// calls Stop. It returns the first unexpected Serve error.
func (m *Manager) Run(ctx context.Context) error {
	if m.cfg.HandleSignals {
		var stop context.CancelFunc
		ctx, stop = signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
	}

	m.mu.Lock()
	servers := append([]Server(nil), m.servers...)
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			name := safeName(srv)
			m.cfg.Log.Infow("serve start", "name", name)
			err := srv.Serve(gctx)
			if err != nil && !m.cfg.IsNormalError(err) && gctx.Err() == nil {
				m.cfg.Log.Errorw("serve error", "name", name, "error", err)
				if m.cfg.Metrics != nil {
					m.cfg.Metrics.IncServeError(name)
				}
				return fmt.Errorf("%s: %w", name, err)
			}
			m.cfg.Log.Infow("serve stop", "name", name)
			return nil
		})
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- g.Wait() }()

	var (
		groupDone bool
		groupErr  error
	)
	select {
	case <-ctx.Done():
		m.cfg.Log.Infow("context done, stopping")
	case groupErr = <-waitCh:
		groupDone = true
		if groupErr != nil {
			m.cfg.Log.Warnw("server failed, stopping", "error", groupErr)
		}
	}

	m.Stop()

	if !groupDone {
		select {
		case groupErr = <-waitCh:
		case <-time.After(m.cfg.ShutdownTimeout + 2*time.Second):
			return fmt.Errorf("shutdown: servers did not return within %s", m.cfg.ShutdownTimeout)
		}
	}
	if groupErr != nil && !m.cfg.IsNormalError(groupErr) {
		return groupErr
	}
	return nil
}

// Stop is idempotent. Each server gets what remains of ShutdownTimeout and
// is forced when it runs out; closers share a fresh ShutdownTimeout.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	servers := append([]Server(nil), m.servers...)
	closers := append([]closer(nil), m.closers...)
	drains := append([]func(){}, m.drains...)
	m.mu.Unlock()

	for _, fn := range drains {
		fn()
	}

	started := time.Now()
	var forcedAny atomic.Bool

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.ShutdownTimeout)
	defer cancel()

	var g errgroup.Group
	for _, srv := range servers {
		g.Go(func() error {
			name := safeName(srv)
			graceDone := make(chan error, 1)
			go func() { graceDone <- srv.GracefulStopWithTimeout(ctx) }()

			result := "success"
			select {
			case err := <-graceDone:
				if err != nil {
					m.cfg.Log.Warnw("graceful stop failed, forcing", "name", name, "error", err)
					srv.ForceStop()
					result = "force"
				}
			case <-ctx.Done():
				m.cfg.Log.Warnw("graceful stop timed out, forcing", "name", name)
				srv.ForceStop()
				result = "force"
			}
			if result == "force" {
				forcedAny.Store(true)
			}
			if m.cfg.Metrics != nil {
				m.cfg.Metrics.IncServerStopResult(name, result)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.closeAll(closers)

	if m.cfg.Metrics != nil {
		m.cfg.Metrics.ObserveGracefulDuration(time.Since(started))
		result := "success"
		if forcedAny.Load() {
			result = "force"
		}
		m.cfg.Metrics.IncStopTotal(result)
	}
	m.cfg.Log.Infow("shutdown complete", "duration", time.Since(started))
}

func (m *Manager) closeAll(closers []closer) {
	timeout := m.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for i := len(closers) - 1; i >= 0; i-- {
		c := closers[i]
		if err := c.fn(ctx); err != nil {
			m.cfg.Log.Warnw("close failed", "name", c.name, "error", err)
			continue
		}
		m.cfg.Log.Debugw("closed", "name", c.name)
	}
}

// DefaultIsNormalErr treats closed-server and closed-listener errors as a
// clean exit.
func DefaultIsNormalErr(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}

func safeName(s Server) string {
	if n := s.Name(); n != "" {
		return n
	}
	return "server"
}
