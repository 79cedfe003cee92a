package middleware

import (
	"net/http"
	"strings"

	"github.com/vortex-fintech/go-cadastro/registry"
)

const HeaderDeviceToken = "X-Device-Token"

// DeviceToken passes the caller's push token to the registry.
func DeviceToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimSpace(r.Header.Get(HeaderDeviceToken))
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(registry.WithDeviceToken(r.Context(), tok)))
	})
}
