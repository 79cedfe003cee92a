package errors

import (
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
)

func InvalidArgument() ErrorResponse {
	return New("Invalid argument", codes.InvalidArgument, nil).WithReason("invalid_argument")
}
func NotFound() ErrorResponse {
	return New("Resource not found", codes.NotFound, nil).WithReason("not_found")
}
func AlreadyExists() ErrorResponse {
	return New("Resource already exists", codes.AlreadyExists, nil).WithReason("already_exists")
}
func ResourceExhausted() ErrorResponse {
	return New("Quota or limit exceeded", codes.ResourceExhausted, nil).WithReason("resource_exhausted")
}
func FailedPrecondition() ErrorResponse {
	return New("Operation cannot be performed in the current state", codes.FailedPrecondition, nil).WithReason("failed_precondition")
}
func Internal() ErrorResponse {
	return New("Internal error", codes.Internal, nil).WithReason("internal")
}
func Unavailable() ErrorResponse {
	return New("Service unavailable", codes.Unavailable, nil).WithReason("unavailable")
}
func Canceled() ErrorResponse {
	return New("Request canceled", codes.Canceled, nil).WithReason("canceled")
}
func DeadlineExceeded() ErrorResponse {
	return New("Deadline exceeded", codes.DeadlineExceeded, nil).WithReason("deadline_exceeded")
}

// ValidationFields reports field -> reason pairs both as details and as
// violations.
func ValidationFields(fields map[string]string) ErrorResponse {
	return InvalidArgument().WithReason("validation_failed").WithDetails(fields).WithViolations(ViolationsFromMap(fields))
}

func ValidationViolations(v []FieldViolation) ErrorResponse {
	return InvalidArgument().WithReason("validation_failed").WithViolations(v)
}

func NotFoundID(resource, id string) ErrorResponse {
	return NotFound().WithDetail(resource+"_id", id)
}

func Conflict(field, value string) ErrorResponse {
	return AlreadyExists().WithReason("conflict").WithDetail(field, value)
}

// RateLimited carries the retry delay in milliseconds.
func RateLimited(retryAfter time.Duration) ErrorResponse {
	ms := retryAfter.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return ResourceExhausted().
		WithReason("rate_limited").
		WithDetail("retry_after_ms", strconv.FormatInt(ms, 10))
}

// Upstream reports a failing dependency (postal-code service, mirror).
func Upstream(service string) ErrorResponse {
	return Unavailable().WithReason("upstream_unavailable").WithDetail("service", service)
}
