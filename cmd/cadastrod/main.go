// Command cadastrod serves the registration HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vortex-fintech/go-cadastro/cep"
	"github.com/vortex-fintech/go-cadastro/config"
	"github.com/vortex-fintech/go-cadastro/data/idempotency"
	"github.com/vortex-fintech/go-cadastro/data/mirror"
	"github.com/vortex-fintech/go-cadastro/data/personstore"
	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/data/redis"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/retry"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/messaging/kafka/franzgo"
	"github.com/vortex-fintech/go-cadastro/messaging/notify"
	"github.com/vortex-fintech/go-cadastro/registry"
	"github.com/vortex-fintech/go-cadastro/runtime/metrics"
	"github.com/vortex-fintech/go-cadastro/runtime/shutdown"
	"github.com/vortex-fintech/go-cadastro/runtime/shutdown/prommetrics"
	httptransport "github.com/vortex-fintech/go-cadastro/transport/http"
	"github.com/vortex-fintech/go-cadastro/transport/http/middleware"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file loaded before the environment; missing is fine")
	flag.Parse()

	if err := run(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "cadastrod:", err)
		os.Exit(1)
	}
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.App.Name, cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer log.SafeSync()

	// Startup dials retry until a signal arrives; after that the manager
	// owns signal handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	stopMetrics, err := prommetrics.New(reg, "cadastro")
	if err != nil {
		return err
	}
	mgr := shutdown.New(shutdown.Config{
		ShutdownTimeout: cfg.App.ShutdownTimeout,
		HandleSignals:   true,
		Log:             log,
		Metrics:         stopMetrics,
	})

	b, err := dial(ctx, cfg, log, mgr)
	if err != nil {
		mgr.Stop()
		return err
	}

	clock := timeutil.UTCClock{}
	ns := cfg.Redis.KeyNamespace()

	var pub notify.Publisher = notify.Discard{}
	if b.producer != nil {
		pub = b.producer
	}
	svc := registry.New(
		personstore.New(b.db),
		mirror.New(b.rdb, ns, clock),
		notify.New(pub, clock),
		cep.NewClient(cfg.CEP.BaseURL, cfg.CEP.Timeout),
		registry.WithLogger(log),
		registry.WithClock(clock),
		registry.WithMetrics(registry.NewMetrics(reg)),
	)

	idemStore := idempotency.NewPostgresStore(clock)
	drain := middleware.NewDrain()
	mgr.OnDrain(drain.Start)

	var limiter middleware.Limiter
	if cfg.RateLimit.Requests > 0 {
		limiter = middleware.NewRedisLimiter(b.rdb, ns, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	api := httptransport.NewRouter(httptransport.RouterConfig{
		Service: svc,
		Log:     log,
		Limiter: limiter,
		Drain:   drain,
		Metrics: middleware.NewPromMetrics(reg),
		Idempotency: &middleware.IdempotencyConfig{
			Store:  idemStore,
			Runner: b.db.Runner(),
			TTL:    cfg.IdempotencyTTL,
			Clock:  clock,
			Log:    log,
		},
		RequestTimeout: cfg.App.RequestTimeout,
	})

	opsHandler, _, err := metrics.New(metrics.Options{
		Registry: reg,
		Log:      log,
		Ready:    readyChecks(b, drain),
	})
	if err != nil {
		mgr.Stop()
		return err
	}

	apiSrv := shutdown.NewHTTPServer("api", &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           api,
		ReadHeaderTimeout: 5 * time.Second,
	})
	opsSrv := shutdown.NewHTTPServer("metrics", &http.Server{
		Addr:              cfg.App.MetricsAddr,
		Handler:           opsHandler,
		ReadHeaderTimeout: 5 * time.Second,
	})
	for _, s := range []*shutdown.HTTPServer{apiSrv, opsSrv} {
		if err := s.Listen(); err != nil {
			mgr.Stop()
			return fmt.Errorf("%s: listen: %w", s.Name(), err)
		}
	}
	mgr.Add(apiSrv)
	mgr.Add(opsSrv)
	mgr.Add(idempotency.NewSweeper(idemStore, b.db.Runner(), time.Hour, log))

	log.Infow("cadastrod started", "http", apiSrv.Addr(), "metrics", opsSrv.Addr(), "kafka", b.producer != nil)
	stop()
	return mgr.Run(context.Background())
}

type backends struct {
	db       *postgres.Client
	rdb      goredis.UniversalClient
	kafka    *franzgo.Client
	producer *franzgo.Producer
}

// dial opens every backing service and registers its closer, so a failure
// half way still releases what was opened.
func dial(ctx context.Context, cfg config.Config, log logger.LoggerInterface, mgr *shutdown.Manager) (backends, error) {
	var d backends

	err := retry.RetryInit(ctx, func() error {
		var err error
		d.db, err = postgres.Open(ctx, cfg.Postgres)
		return err
	})
	if err != nil {
		return d, fmt.Errorf("postgres: %w", err)
	}
	mgr.OnStop("postgres", func(context.Context) error { return d.db.Close() })

	if err := personstore.EnsureSchema(ctx, d.db.Runner()); err != nil {
		return d, fmt.Errorf("schema persons: %w", err)
	}
	if err := idempotency.EnsureSchema(ctx, d.db.Runner()); err != nil {
		return d, fmt.Errorf("schema idempotency: %w", err)
	}

	err = retry.RetryInit(ctx, func() error {
		var err error
		d.rdb, err = redis.Open(ctx, cfg.Redis)
		return err
	})
	if err != nil {
		return d, fmt.Errorf("redis: %w", err)
	}
	mgr.OnStop("redis", func(context.Context) error { return d.rdb.Close() })

	if !cfg.Kafka.Enabled() {
		log.Warnw("kafka disabled, registration events are discarded")
		return d, nil
	}
	if d.kafka, err = franzgo.NewClient(cfg.Kafka.Config); err != nil {
		return d, fmt.Errorf("kafka: %w", err)
	}
	mgr.OnStop("kafka", func(context.Context) error {
		d.kafka.Close()
		return nil
	})
	if err := retry.RetryInit(ctx, func() error { return d.kafka.Ping(ctx) }); err != nil {
		return d, fmt.Errorf("kafka: %w", err)
	}
	if d.producer, err = franzgo.NewProducer(d.kafka, cfg.Kafka.Topic); err != nil {
		return d, fmt.Errorf("kafka: %w", err)
	}
	return d, nil
}

func readyChecks(d backends, drain *middleware.Drain) []metrics.Check {
	checks := []metrics.Check{
		{Name: "postgres", Fn: d.db.Ping},
		{Name: "redis", Fn: func(ctx context.Context) error { return d.rdb.Ping(ctx).Err() }},
		{Name: "draining", Fn: func(context.Context) error {
			if drain.Draining() {
				return errors.New("shutting down")
			}
			return nil
		}},
	}
	if d.kafka != nil {
		checks = append(checks, metrics.Check{Name: "kafka", Fn: d.kafka.Ping})
	}
	return checks
}
