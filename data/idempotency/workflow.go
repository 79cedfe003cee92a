package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
)

type Decision string

const (
	DecisionExecute    Decision = "EXECUTE"
	DecisionReplay     Decision = "REPLAY"
	DecisionInProgress Decision = "IN_PROGRESS"
	DecisionRetryable  Decision = "RETRYABLE"
)

type BeginInput struct {
	Client      string
	Route       string
	Key         string
	RequestHash string
	ExpiresAt   time.Time
}

// BeginResult carries Lease when the caller should execute and Existing
// otherwise.
type BeginResult struct {
	Decision Decision
	Lease    *Record
	Existing *Record
}

func Begin(ctx context.Context, store Store, run postgres.Runner, in BeginInput) (BeginResult, error) {
	if store == nil {
		return BeginResult{}, ErrNilStore
	}

	reserve, err := store.Reserve(ctx, run, Record{
		Client:      in.Client,
		Route:       in.Route,
		Key:         in.Key,
		RequestHash: in.RequestHash,
		ExpiresAt:   in.ExpiresAt,
	})
	if err != nil {
		return BeginResult{}, err
	}
	if reserve.Record == nil {
		return BeginResult{}, ErrInconsistentState
	}
	if reserve.Reserved {
		return BeginResult{Decision: DecisionExecute, Lease: reserve.Record}, nil
	}

	res := BeginResult{Existing: reserve.Record}
	switch reserve.Record.Status {
	case StatusInProgress:
		res.Decision = DecisionInProgress
	case StatusSucceeded, StatusFailedFinal:
		res.Decision = DecisionReplay
	case StatusFailedRetry:
		res.Decision = DecisionRetryable
	default:
		return BeginResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, reserve.Record.Status)
	}
	return res, nil
}

// Finish stores the response for lease. It reports false when the lease
// was taken over by a later attempt.
func Finish(ctx context.Context, store Store, run postgres.Runner, lease Record, done Completion) (bool, error) {
	if store == nil {
		return false, ErrNilStore
	}
	if err := validateIdentity(lease.Client, lease.Route, lease.Key); err != nil {
		return false, err
	}
	if done.UpdatedAt.IsZero() {
		done.UpdatedAt = lease.UpdatedAt
	}
	if done.UpdatedAt.IsZero() {
		return false, ErrUpdatedAtRequired
	}
	return store.Complete(ctx, run, lease, done)
}

// Reacquire moves a retryable record back to IN_PROGRESS. On success the
// returned lease carries the new updated_at.
func Reacquire(ctx context.Context, store Store, run postgres.Runner, rec Record, at time.Time) (*Record, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if err := validateIdentity(rec.Client, rec.Route, rec.Key); err != nil {
		return nil, err
	}
	if rec.RequestHash == "" {
		return nil, ErrRequestHashRequired
	}
	if at.IsZero() {
		return nil, ErrUpdatedAtRequired
	}
	ok, err := store.ReacquireRetryable(ctx, run, rec, at)
	if err != nil || !ok {
		return nil, err
	}
	lease := rec
	lease.Status = StatusInProgress
	lease.UpdatedAt = normalizeUTC(at)
	lease.ResponseCode, lease.ResponseBody, lease.ContentType = 0, nil, ""
	return &lease, nil
}
