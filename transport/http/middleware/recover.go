package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

// Recover turns a handler panic into a 500 and logs it with the stack.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recover(log logger.LoggerInterface) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.ErrorwCtx(r.Context(), "panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", PanicString(rec),
					"stack", string(debug.Stack()),
				)
				apperrors.Internal().WithReason("panic").WithMessage("internal server error").ToHTTP(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func PanicString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	default:
		return fmt.Sprintf("%v", t)
	}
}
