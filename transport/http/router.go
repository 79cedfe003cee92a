package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc/codes"

	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/netutil"
	"github.com/vortex-fintech/go-cadastro/transport/http/middleware"
)

const defaultRequestTimeout = 15 * time.Second

type RouterConfig struct {
	Service Service
	Log     logger.LoggerInterface

	// Optional; nil disables the matching middleware.
	Limiter     middleware.Limiter
	Drain       *middleware.Drain
	Metrics     middleware.RequestMetrics
	Idempotency *middleware.IdempotencyConfig

	RequestTimeout time.Duration
}

// NewRouter assembles the middleware chain and the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	cfg.RequestTimeout = netutil.Timeout(cfg.RequestTimeout, time.Second, defaultRequestTimeout)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.ClientIP,
		middleware.AccessLog(cfg.Log),
		middleware.Metrics(cfg.Metrics),
		middleware.Recover(cfg.Log),
		cfg.Drain.Middleware,
		middleware.RateLimit(cfg.Limiter, cfg.Log),
		middleware.DeviceToken,
		chimw.CleanPath,
		chimw.Timeout(cfg.RequestTimeout),
	)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.NotFound().WithReason("route_not_found").ToHTTP(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apperrors.New("Method not allowed", codes.Unimplemented, nil).
			WithReason("method_not_allowed").
			ToHTTPStatus(w, http.StatusMethodNotAllowed)
	})

	var idem func(http.Handler) http.Handler
	if cfg.Idempotency != nil {
		ic := *cfg.Idempotency
		if ic.Log == nil {
			ic.Log = cfg.Log
		}
		idem = middleware.Idempotency(ic)
	}
	NewHandler(cfg.Service, cfg.Log, idem).Register(r)
	return r
}
