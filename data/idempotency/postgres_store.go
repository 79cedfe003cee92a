package idempotency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
)

type PostgresStore struct {
	clock timeutil.Clock
}

func NewPostgresStore(clock timeutil.Clock) *PostgresStore {
	return &PostgresStore{clock: timeutil.Or(clock)}
}

var _ Store = (*PostgresStore)(nil)

const recordColumns = `client, route, idempotency_key, request_hash,
	status, response_code, response_body, content_type,
	created_at, updated_at, expires_at`

func (s *PostgresStore) Reserve(ctx context.Context, run postgres.Runner, rec Record) (ReserveResult, error) {
	if run == nil {
		return ReserveResult{}, ErrNilRunner
	}
	if err := validateIdentity(rec.Client, rec.Route, rec.Key); err != nil {
		return ReserveResult{}, err
	}
	if rec.RequestHash == "" {
		return ReserveResult{}, ErrRequestHashRequired
	}

	now := s.now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}
	rec.CreatedAt, rec.UpdatedAt = normalizeUTC(rec.CreatedAt), normalizeUTC(rec.UpdatedAt)
	if rec.Status == "" {
		rec.Status = StatusInProgress
	}
	if !rec.Status.IsValid() {
		return ReserveResult{}, fmt.Errorf("%w: %q", ErrInvalidStatus, rec.Status)
	}
	if rec.ExpiresAt.IsZero() {
		return ReserveResult{}, ErrExpiresAtRequired
	}
	rec.ExpiresAt = normalizeUTC(rec.ExpiresAt)
	if !rec.ExpiresAt.After(rec.CreatedAt) {
		return ReserveResult{}, ErrExpiresAtInvalid
	}

	row := run.QueryRowContext(ctx, `
		INSERT INTO idempotency_keys (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (client, route, idempotency_key) DO NOTHING
		RETURNING `+recordColumns,
		rec.Client, rec.Route, rec.Key, rec.RequestHash,
		string(rec.Status), rec.ResponseCode, rec.ResponseBody, rec.ContentType,
		rec.CreatedAt, rec.UpdatedAt, rec.ExpiresAt,
	)
	got, err := scanRecord(row)
	if err == nil {
		return ReserveResult{Reserved: true, Record: got}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return ReserveResult{}, err
	}

	existing, err := s.Get(ctx, run, rec.Client, rec.Route, rec.Key)
	if err != nil {
		return ReserveResult{}, err
	}
	if existing == nil {
		return ReserveResult{}, ErrInconsistentState
	}
	if existing.RequestHash != rec.RequestHash {
		return ReserveResult{}, fmt.Errorf("%w: route=%q key=%q", ErrRequestHashMismatch, rec.Route, rec.Key)
	}
	return ReserveResult{Record: existing}, nil
}

// Get returns nil without error when no record exists.
func (s *PostgresStore) Get(ctx context.Context, run postgres.Runner, client, route, key string) (*Record, error) {
	if run == nil {
		return nil, ErrNilRunner
	}
	if err := validateIdentity(client, route, key); err != nil {
		return nil, err
	}
	row := run.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		  FROM idempotency_keys
		 WHERE client = $1 AND route = $2 AND idempotency_key = $3`,
		client, route, key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (s *PostgresStore) ReacquireRetryable(ctx context.Context, run postgres.Runner, rec Record, updatedAt time.Time) (bool, error) {
	if run == nil {
		return false, ErrNilRunner
	}
	updatedAt = normalizeUTC(updatedAt)
	res, err := run.ExecContext(ctx, `
		UPDATE idempotency_keys
		   SET status = 'IN_PROGRESS',
		       response_code = 0,
		       response_body = NULL,
		       content_type = '',
		       updated_at = $1
		 WHERE client = $2
		   AND route = $3
		   AND idempotency_key = $4
		   AND request_hash = $5
		   AND status = 'FAILED_RETRYABLE'
		   AND expires_at > $1
		   AND updated_at < $1`,
		updatedAt, rec.Client, rec.Route, rec.Key, rec.RequestHash)
	return affected(res, err)
}

// Complete only applies while the record is still held by lease, so a
// stale attempt cannot overwrite a newer one.
func (s *PostgresStore) Complete(ctx context.Context, run postgres.Runner, lease Record, done Completion) (bool, error) {
	if run == nil {
		return false, ErrNilRunner
	}
	if !done.Status.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, done.Status)
	}
	if !done.Status.IsTerminal() {
		return false, fmt.Errorf("%w: %q", ErrNotTerminal, done.Status)
	}
	if done.UpdatedAt.IsZero() {
		return false, ErrUpdatedAtRequired
	}
	res, err := run.ExecContext(ctx, `
		UPDATE idempotency_keys
		   SET status = $1,
		       response_code = $2,
		       response_body = $3,
		       content_type = $4,
		       updated_at = $5
		 WHERE client = $6
		   AND route = $7
		   AND idempotency_key = $8
		   AND status = 'IN_PROGRESS'
		   AND updated_at = $9`,
		string(done.Status), done.ResponseCode, done.ResponseBody, done.ContentType, s.now(),
		lease.Client, lease.Route, lease.Key, normalizeUTC(done.UpdatedAt))
	return affected(res, err)
}

// DeleteExpired removes finished records that expired before the given
// time; a zero time means now.
func (s *PostgresStore) DeleteExpired(ctx context.Context, run postgres.Runner, before time.Time) (int64, error) {
	if run == nil {
		return 0, ErrNilRunner
	}
	if before.IsZero() {
		before = s.now()
	}
	res, err := run.ExecContext(ctx, `
		DELETE FROM idempotency_keys
		 WHERE expires_at <= $1
		   AND status IN ('SUCCEEDED', 'FAILED_RETRYABLE', 'FAILED_FINAL')`,
		normalizeUTC(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *PostgresStore) now() time.Time { return normalizeUTC(s.clock.Now()) }

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		rec    Record
		status string
	)
	err := row.Scan(
		&rec.Client, &rec.Route, &rec.Key, &rec.RequestHash,
		&status, &rec.ResponseCode, &rec.ResponseBody, &rec.ContentType,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = Status(status)
	rec.CreatedAt = normalizeUTC(rec.CreatedAt)
	rec.UpdatedAt = normalizeUTC(rec.UpdatedAt)
	rec.ExpiresAt = normalizeUTC(rec.ExpiresAt)
	return &rec, nil
}

func affected(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Postgres keeps microseconds.
func normalizeUTC(v time.Time) time.Time {
	return v.UTC().Truncate(time.Microsecond)
}
