// Package errors is the transport-agnostic error model of the service.
// Handlers return ErrorResponse values; the HTTP layer renders them.
package errors

import (
	"encoding/json"

	"google.golang.org/grpc/codes"
)

// Reason is a stable machine-readable code.
type Reason string

type FieldViolation struct {
	Field       string `json:"field"`
	Reason      string `json:"reason,omitempty"`
	Description string `json:"description,omitempty"`
}

// ErrorResponse carries a canonical status code. Builder methods never
// mutate the receiver's maps or slices.
type ErrorResponse struct {
	Code       codes.Code        `json:"code"`
	Reason     Reason            `json:"reason,omitempty"`
	Domain     string            `json:"domain,omitempty"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Violations []FieldViolation  `json:"violations,omitempty"`
}

func New(message string, code codes.Code, details map[string]string) ErrorResponse {
	return ErrorResponse{Code: code, Message: message, Details: cloneDetails(details)}
}

func (e ErrorResponse) WithReason(r string) ErrorResponse    { e.Reason = Reason(r); return e }
func (e ErrorResponse) WithDomain(d string) ErrorResponse    { e.Domain = d; return e }
func (e ErrorResponse) WithMessage(m string) ErrorResponse   { e.Message = m; return e }
func (e ErrorResponse) WithDetail(k, v string) ErrorResponse { return e.WithDetails(map[string]string{k: v}) }

func (e ErrorResponse) WithDetails(m map[string]string) ErrorResponse {
	if len(m) == 0 {
		return e
	}
	details := make(map[string]string, len(e.Details)+len(m))
	for k, v := range e.Details {
		details[k] = v
	}
	for k, v := range m {
		details[k] = v
	}
	e.Details = details
	return e
}

func (e ErrorResponse) WithViolations(v []FieldViolation) ErrorResponse {
	if len(v) == 0 {
		return e
	}
	e.Violations = append(append([]FieldViolation(nil), e.Violations...), v...)
	return e
}

// body is the wire shape: the code is rendered by name.
type body struct {
	Code       string            `json:"code"`
	Reason     Reason            `json:"reason,omitempty"`
	Domain     string            `json:"domain,omitempty"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Violations []FieldViolation  `json:"violations,omitempty"`
}

func (e ErrorResponse) body() body {
	return body{
		Code:       e.Code.String(),
		Reason:     e.Reason,
		Domain:     e.Domain,
		Message:    e.Message,
		Details:    e.Details,
		Violations: e.Violations,
	}
}

func (e ErrorResponse) Error() string {
	b, _ := json.Marshal(e.body())
	return string(b)
}

func ViolationsFromMap(m map[string]string) []FieldViolation {
	if len(m) == 0 {
		return nil
	}
	out := make([]FieldViolation, 0, len(m))
	for f, r := range m {
		out = append(out, FieldViolation{Field: f, Reason: r})
	}
	return out
}

func cloneDetails(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
