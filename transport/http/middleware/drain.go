package middleware

import (
	"net/http"
	"sync/atomic"
	"time"

	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
)

// Drain rejects writes once shutdown starts so that in-flight requests
// can finish while clients retry elsewhere.
type Drain struct {
	draining atomic.Bool
}

func NewDrain() *Drain { return &Drain{} }

func (d *Drain) Start() {
	if d == nil {
		return
	}
	d.draining.Store(true)
}

func (d *Drain) Draining() bool {
	if d == nil {
		return false
	}
	return d.draining.Load()
}

// Middleware lets safe methods through while draining.
func (d *Drain) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.Draining() && isMutating(r.Method) {
			apperrors.Unavailable().
				WithReason("draining").
				WithMessage("server is draining, retry later").
				ToHTTPWithRetry(w, time.Second)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
