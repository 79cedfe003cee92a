package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

// AccessLog writes one line per request. 5xx responses log at error level.
func AccessLog(log logger.LoggerInterface) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			kv := []any{
				"method", r.Method,
				"route", RoutePattern(r),
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", ClientIPFrom(r.Context()),
			}
			if status >= 500 {
				log.ErrorwCtx(r.Context(), "http request", kv...)
				return
			}
			log.InfowCtx(r.Context(), "http request", kv...)
		})
	}
}
