package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

// Sweeper periodically deletes expired records. It satisfies the shutdown
// manager's Server interface so it stops with the HTTP servers.
type Sweeper struct {
	store    Store
	run      postgres.Runner
	interval time.Duration
	log      logger.LoggerInterface

	once sync.Once
	done chan struct{}
}

func NewSweeper(store Store, run postgres.Runner, interval time.Duration, log logger.LoggerInterface) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Sweeper{store: store, run: run, interval: interval, log: log, done: make(chan struct{})}
}

func (s *Sweeper) Name() string { return "idempotency-sweeper" }

// Serve sweeps once per interval until ctx is done or the sweeper is
// stopped. Sweep failures are logged and retried on the next tick.
func (s *Sweeper) Serve(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-t.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one deletion pass and returns the number of removed records.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.store.DeleteExpired(ctx, s.run, time.Time{})
	if err != nil {
		s.log.Warnw("idempotency sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		s.log.Debugw("idempotency sweep", "deleted", n)
	}
	return n
}

func (s *Sweeper) GracefulStopWithTimeout(context.Context) error {
	s.ForceStop()
	return nil
}

func (s *Sweeper) ForceStop() { s.once.Do(func() { close(s.done) }) }
