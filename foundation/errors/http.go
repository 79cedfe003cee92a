package errors

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
)

const statusClientClosedRequest = 499

func HTTPStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Canceled:
		return statusClientClosedRequest
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	case codes.NotFound:
		return http.StatusNotFound
	case codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	case codes.Unimplemented:
		return http.StatusNotImplemented
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (e ErrorResponse) ToHTTP(w http.ResponseWriter) {
	e.ToHTTPStatus(w, HTTPStatus(e.Code))
}

// ToHTTPStatus writes the error body with an explicit status, for the few
// HTTP statuses with no canonical code (405).
func (e ErrorResponse) ToHTTPStatus(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(e.body())
}

// ToHTTPWithRetry sets Retry-After (whole seconds, rounded up) and writes the
// error body.
func (e ErrorResponse) ToHTTPWithRetry(w http.ResponseWriter, retryAfter time.Duration) {
	sec := int(math.Ceil(retryAfter.Seconds()))
	if sec < 0 {
		sec = 0
	}
	w.Header().Set("Retry-After", strconv.Itoa(sec))
	e.ToHTTP(w)
}
