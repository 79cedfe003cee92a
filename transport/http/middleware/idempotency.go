package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vortex-fintech/go-cadastro/data/idempotency"
	"github.com/vortex-fintech/go-cadastro/data/postgres"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/hash"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	defaultIdempotencyTTL = 24 * time.Hour
	maxIdempotencyKeyLen  = 128
	maxIdempotentBody     = 1 << 20
)

type IdempotencyConfig struct {
	Store  idempotency.Store
	Runner postgres.Runner
	TTL    time.Duration
	Clock  timeutil.Clock
	Log    logger.LoggerInterface
}

// Idempotency replays the stored response when a request repeats an
// Idempotency-Key with the same body. Requests without the header pass
// through untouched.
func Idempotency(cfg IdempotencyConfig) func(http.Handler) http.Handler {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultIdempotencyTTL
	}
	cfg.Clock = timeutil.Or(cfg.Clock)
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
			if key == "" || cfg.Store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				apperrors.InvalidArgument().
					WithReason("idempotency_key_too_long").
					WithMessage(HeaderIdempotencyKey + " is too long").
					ToHTTP(w)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentBody+1))
			if err != nil || len(body) > maxIdempotentBody {
				apperrors.InvalidArgument().WithReason("body_unreadable").ToHTTP(w)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			route := r.Method + " " + r.URL.Path
			begin, err := idempotency.Begin(ctx, cfg.Store, cfg.Runner, idempotency.BeginInput{
				Client:      clientKey(r),
				Route:       route,
				Key:         key,
				RequestHash: requestHash(r.Method, route, body),
				ExpiresAt:   cfg.Clock.Now().Add(cfg.TTL),
			})
			switch {
			case errors.Is(err, idempotency.ErrRequestHashMismatch):
				apperrors.Conflict(HeaderIdempotencyKey, key).
					WithReason("idempotency_key_reused").
					WithMessage("idempotency key was used with a different request").
					ToHTTP(w)
				return
			case err != nil:
				cfg.Log.ErrorwCtx(ctx, "idempotency begin failed", "route", route, "error", err)
				apperrors.Internal().WithReason("idempotency_unavailable").ToHTTP(w)
				return
			}

			lease := begin.Lease
			switch begin.Decision {
			case idempotency.DecisionReplay:
				replay(w, begin.Existing)
				return
			case idempotency.DecisionInProgress:
				inProgress(w)
				return
			case idempotency.DecisionRetryable:
				lease, err = idempotency.Reacquire(ctx, cfg.Store, cfg.Runner, *begin.Existing, cfg.Clock.Now())
				if err != nil {
					cfg.Log.ErrorwCtx(ctx, "idempotency reacquire failed", "route", route, "error", err)
					apperrors.Internal().WithReason("idempotency_unavailable").ToHTTP(w)
					return
				}
				if lease == nil {
					inProgress(w)
					return
				}
			}

			var buf bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			ok, err := idempotency.Finish(ctx, cfg.Store, cfg.Runner, *lease, idempotency.Completion{
				Status:       idempotency.StatusForCode(code),
				ResponseCode: code,
				ResponseBody: buf.Bytes(),
				ContentType:  ww.Header().Get("Content-Type"),
			})
			if err != nil || !ok {
				cfg.Log.WarnwCtx(ctx, "idempotency finish not recorded", "route", route, "stored", ok, "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, rec *idempotency.Record) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set(HeaderReplayed, "true")
	w.WriteHeader(rec.ResponseCode)
	_, _ = w.Write(rec.ResponseBody)
}

func inProgress(w http.ResponseWriter) {
	apperrors.Conflict(HeaderIdempotencyKey, "in_progress").
		WithReason("idempotency_in_progress").
		WithMessage("a request with this key is still running").
		ToHTTPWithRetry(w, time.Second)
}

// clientKey scopes keys to the device when it identifies itself, else to
// the caller's address.
func clientKey(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get(HeaderDeviceToken)); tok != "" {
		return "device:" + hash.Short(tok, 8)
	}
	if ip := ClientIPFrom(r.Context()); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + ClientIPFromRequest(r)
}

func requestHash(method, route string, body []byte) string {
	return hash.Fields(method, route, strconv.Itoa(len(body)), string(body))
}
