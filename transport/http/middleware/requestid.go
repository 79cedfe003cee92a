// Package middleware holds the HTTP middleware chain of the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/vortex-fintech/go-cadastro/foundation/idutil"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
)

const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID reuses the caller's X-Request-ID or issues one, stores it for
// the logger and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if id == "" || len(id) > maxRequestIDLen {
			id = idutil.MustNew()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}
