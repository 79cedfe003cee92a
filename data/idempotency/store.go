// Package idempotency stores the outcome of mutating requests keyed by
// client, route and Idempotency-Key so that retries replay the first
// response instead of repeating the write.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
)

type Status string

const (
	StatusInProgress  Status = "IN_PROGRESS"
	StatusSucceeded   Status = "SUCCEEDED"
	StatusFailedRetry Status = "FAILED_RETRYABLE"
	StatusFailedFinal Status = "FAILED_FINAL"
)

var (
	ErrNilStore            = errors.New("idempotency: store is required")
	ErrNilRunner           = errors.New("idempotency: runner is required")
	ErrClientRequired      = errors.New("idempotency: client is required")
	ErrRouteRequired       = errors.New("idempotency: route is required")
	ErrKeyRequired         = errors.New("idempotency: idempotency key is required")
	ErrRequestHashRequired = errors.New("idempotency: request hash is required")
	ErrUpdatedAtRequired   = errors.New("idempotency: updated_at is required")
	ErrExpiresAtRequired   = errors.New("idempotency: expires_at is required")
	ErrExpiresAtInvalid    = errors.New("idempotency: expires_at must be after created_at")
	ErrInvalidStatus       = errors.New("idempotency: invalid status")
	ErrNotTerminal         = errors.New("idempotency: completion status must be terminal")
	ErrRequestHashMismatch = errors.New("idempotency: key reused with a different request")
	ErrInconsistentState   = errors.New("idempotency: inconsistent state")
)

func (s Status) IsValid() bool {
	switch s {
	case StatusInProgress, StatusSucceeded, StatusFailedRetry, StatusFailedFinal:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailedRetry, StatusFailedFinal:
		return true
	default:
		return false
	}
}

// StatusForCode classifies an HTTP response: 5xx may be retried with the
// same key, anything else is final.
func StatusForCode(code int) Status {
	switch {
	case code >= 500:
		return StatusFailedRetry
	case code >= 400:
		return StatusFailedFinal
	default:
		return StatusSucceeded
	}
}

type Record struct {
	Client       string
	Route        string
	Key          string
	RequestHash  string
	Status       Status
	ResponseCode int
	ResponseBody []byte
	ContentType  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ExpiresAt    time.Time
}

type ReserveResult struct {
	Reserved bool
	Record   *Record
}

type Completion struct {
	Status       Status
	ResponseCode int
	ResponseBody []byte
	ContentType  string
	UpdatedAt    time.Time
}

type Store interface {
	Reserve(ctx context.Context, run postgres.Runner, rec Record) (ReserveResult, error)
	Get(ctx context.Context, run postgres.Runner, client, route, key string) (*Record, error)
	ReacquireRetryable(ctx context.Context, run postgres.Runner, rec Record, updatedAt time.Time) (bool, error)
	Complete(ctx context.Context, run postgres.Runner, lease Record, done Completion) (bool, error)
	DeleteExpired(ctx context.Context, run postgres.Runner, before time.Time) (int64, error)
}

// Schema creates the idempotency_keys table.
const Schema = `
CREATE TABLE IF NOT EXISTS idempotency_keys (
	client          TEXT        NOT NULL,
	route           TEXT        NOT NULL,
	idempotency_key TEXT        NOT NULL,
	request_hash    TEXT        NOT NULL,
	status          TEXT        NOT NULL,
	response_code   INTEGER     NOT NULL DEFAULT 0,
	response_body   BYTEA,
	content_type    TEXT        NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL,
	expires_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (client, route, idempotency_key)
);
CREATE INDEX IF NOT EXISTS idempotency_keys_expires_at_idx ON idempotency_keys (expires_at);
`

func EnsureSchema(ctx context.Context, run postgres.Runner) error {
	if run == nil {
		return ErrNilRunner
	}
	_, err := run.ExecContext(ctx, Schema)
	return err
}

func validateIdentity(client, route, key string) error {
	switch {
	case client == "":
		return ErrClientRequired
	case route == "":
		return ErrRouteRequired
	case key == "":
		return ErrKeyRequired
	}
	return nil
}
