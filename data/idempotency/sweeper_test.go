package idempotency

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
)

type expiringStore struct {
	storeStub
	calls atomic.Int32
	n     int64
	err   error
}

func (s *expiringStore) DeleteExpired(context.Context, postgres.Runner, time.Time) (int64, error) {
	s.calls.Add(1)
	return s.n, s.err
}

func TestSweeper_Sweep(t *testing.T) {
	st := &expiringStore{n: 3}
	assert.Equal(t, int64(3), NewSweeper(st, nil, 0, nil).Sweep(context.Background()))

	st = &expiringStore{err: errors.New("conn refused")}
	assert.Zero(t, NewSweeper(st, nil, 0, nil).Sweep(context.Background()))
}

func TestSweeper_ServeTicksUntilStopped(t *testing.T) {
	st := &expiringStore{}
	s := NewSweeper(st, nil, 5*time.Millisecond, nil)

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return st.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.GracefulStopWithTimeout(context.Background()))
	s.ForceStop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return")
	}
	assert.Equal(t, "idempotency-sweeper", s.Name())
}
