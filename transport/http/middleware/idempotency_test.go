package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vortex-fintech/go-cadastro/data/idempotency"
	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
)

// memStore keeps records in a map with the same conflict rules as the
// Postgres store.
type memStore struct {
	mu   sync.Mutex
	recs map[string]*idempotency.Record
}

func newMemStore() *memStore { return &memStore{recs: map[string]*idempotency.Record{}} }

func id(client, route, key string) string { return client + "|" + route + "|" + key }

func (m *memStore) Reserve(_ context.Context, _ postgres.Runner, rec idempotency.Record) (idempotency.ReserveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := id(rec.Client, rec.Route, rec.Key)
	if ex, ok := m.recs[k]; ok {
		if ex.RequestHash != rec.RequestHash {
			return idempotency.ReserveResult{}, idempotency.ErrRequestHashMismatch
		}
		cp := *ex
		return idempotency.ReserveResult{Record: &cp}, nil
	}
	rec.Status = idempotency.StatusInProgress
	rec.UpdatedAt = time.Unix(1, 0)
	m.recs[k] = &rec
	cp := rec
	return idempotency.ReserveResult{Reserved: true, Record: &cp}, nil
}

func (m *memStore) Get(context.Context, postgres.Runner, string, string, string) (*idempotency.Record, error) {
	return nil, nil
}

func (m *memStore) ReacquireRetryable(_ context.Context, _ postgres.Runner, rec idempotency.Record, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex := m.recs[id(rec.Client, rec.Route, rec.Key)]
	if ex == nil || ex.Status != idempotency.StatusFailedRetry {
		return false, nil
	}
	ex.Status, ex.UpdatedAt = idempotency.StatusInProgress, at.UTC().Truncate(time.Microsecond)
	return true, nil
}

func (m *memStore) Complete(_ context.Context, _ postgres.Runner, lease idempotency.Record, done idempotency.Completion) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex := m.recs[id(lease.Client, lease.Route, lease.Key)]
	if ex == nil || ex.Status != idempotency.StatusInProgress || !ex.UpdatedAt.Equal(done.UpdatedAt) {
		return false, nil
	}
	ex.Status, ex.ResponseCode, ex.ResponseBody, ex.ContentType = done.Status, done.ResponseCode, done.ResponseBody, done.ContentType
	return true, nil
}

func (m *memStore) DeleteExpired(context.Context, postgres.Runner, time.Time) (int64, error) {
	return 0, nil
}

func idemHandler(store idempotency.Store, calls *int, code int) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(`{"echo":` + string(body) + `}`))
	})
	return Idempotency(IdempotencyConfig{
		Store: store,
		Clock: timeutil.NewFrozenClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
	})(next)
}

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/persons", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1000"
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	var calls int
	h := idemHandler(newMemStore(), &calls, http.StatusCreated)

	first := post(h, "k1", `1`)
	second := post(h, "k1", `1`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.Empty(t, first.Header().Get(HeaderReplayed))
}

func TestIdempotency_WithoutKeyAlwaysExecutes(t *testing.T) {
	var calls int
	h := idemHandler(newMemStore(), &calls, http.StatusCreated)
	post(h, "", `1`)
	post(h, "", `1`)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_KeyReuseWithDifferentBody(t *testing.T) {
	var calls int
	h := idemHandler(newMemStore(), &calls, http.StatusCreated)
	post(h, "k1", `1`)
	rec := post(h, "k1", `2`)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "idempotency_key_reused")
}

func TestIdempotency_InProgress(t *testing.T) {
	store := newMemStore()
	_, err := store.Reserve(context.Background(), nil, idempotency.Record{
		Client: "ip:192.0.2.1", Route: "POST /v1/persons", Key: "k1",
		RequestHash: requestHash(http.MethodPost, "POST /v1/persons", []byte(`1`)),
	})
	require.NoError(t, err)

	var calls int
	rec := post(idemHandler(store, &calls, http.StatusCreated), "k1", `1`)
	assert.Zero(t, calls)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "idempotency_in_progress")
}

func TestIdempotency_ServerErrorIsRetried(t *testing.T) {
	store := newMemStore()
	var calls int
	failing := idemHandler(store, &calls, http.StatusServiceUnavailable)
	working := idemHandler(store, &calls, http.StatusCreated)

	assert.Equal(t, http.StatusServiceUnavailable, post(failing, "k1", `1`).Code)
	assert.Equal(t, http.StatusCreated, post(working, "k1", `1`).Code)
	assert.Equal(t, 2, calls)

	replayed := post(working, "k1", `1`)
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotency_ClientErrorIsFinal(t *testing.T) {
	var calls int
	h := idemHandler(newMemStore(), &calls, http.StatusBadRequest)
	post(h, "k1", `1`)
	rec := post(h, "k1", `1`)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	var calls int
	rec := post(idemHandler(newMemStore(), &calls, http.StatusCreated), strings.Repeat("k", 129), `1`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, calls)
}

func TestClientKey_PrefersDevice(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.1:1"
	assert.Equal(t, "ip:192.0.2.1", clientKey(req))

	req.Header.Set(HeaderDeviceToken, "tok")
	assert.True(t, strings.HasPrefix(clientKey(req), "device:"))
	assert.Len(t, clientKey(req), len("device:")+16)
}
