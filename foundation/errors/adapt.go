package errors

import (
	"context"
	"errors"
	"fmt"

	play "github.com/go-playground/validator/v10"
)

// InvariantError is a domain rule violation on a single field.
type InvariantError struct {
	Field  string
	Reason string
	// Message is the human-readable text shown next to the field.
	Message string
}

func (e InvariantError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func DomainInvariant(field, reason, message string) error {
	return InvariantError{Field: field, Reason: reason, Message: message}
}

func IsInvariant(err error) bool {
	var ie InvariantError
	return errors.As(err, &ie)
}

// ToErrorResponse converts any error into an ErrorResponse. Unknown errors
// become Internal so that nothing leaks to clients.
func ToErrorResponse(err error) ErrorResponse {
	if err == nil {
		return Internal().WithReason("unexpected_error")
	}
	if errors.Is(err, context.Canceled) {
		return Canceled()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineExceeded()
	}

	var e ErrorResponse
	if errors.As(err, &e) {
		return e
	}
	var ep *ErrorResponse
	if errors.As(err, &ep) && ep != nil {
		return *ep
	}

	var ie InvariantError
	if errors.As(err, &ie) {
		if ie.Field == "" {
			return InvalidArgument().WithReason(ie.Reason)
		}
		return ValidationViolations([]FieldViolation{{Field: ie.Field, Reason: ie.Reason, Description: ie.Message}})
	}

	var ve play.ValidationErrors
	if errors.As(err, &ve) {
		return FromPlayground(ve, nil)
	}
	return Internal().WithReason("unexpected_error")
}

// FromPlayground maps go-playground validation errors to violations. Field
// paths are relative to the root struct.
func FromPlayground(err play.ValidationErrors, tagToReason map[string]string) ErrorResponse {
	violations := make([]FieldViolation, 0, len(err))
	for _, fe := range err {
		reason := tagToReason[fe.Tag()]
		if reason == "" {
			reason = "invalid"
		}
		field := fe.StructNamespace()
		for i := 0; i < len(field); i++ {
			if field[i] == '.' {
				field = field[i+1:]
				break
			}
		}
		if field == "" {
			field = fe.Field()
		}
		violations = append(violations, FieldViolation{
			Field:       field,
			Reason:      reason,
			Description: fmt.Sprintf("%s validation failed (%s)", field, fe.Tag()),
		})
	}
	return ValidationViolations(violations)
}
