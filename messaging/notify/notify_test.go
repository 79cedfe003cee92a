package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kgo "github.com/twmb/franz-go/pkg/kgo"

	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/person"
)

type capture struct {
	key, value []byte
	headers    []kgo.RecordHeader
	err        error
}

func (c *capture) Produce(_ context.Context, key, value []byte, headers ...kgo.RecordHeader) error {
	c.key, c.value, c.headers = key, value, headers
	return c.err
}

var at = time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC)

func TestMessage(t *testing.T) {
	assert.Equal(t, "A pessoa Ana Souza foi cadastrada com sucesso.",
		Message(person.Person{Type: person.Physical, Name: "Ana Souza", CompanyName: "x"}))
	assert.Equal(t, "A pessoa ACME Ltda foi cadastrada com sucesso.",
		Message(person.Person{Type: person.Legal, Name: "x", CompanyName: "ACME Ltda"}))
}

func TestPersonRegistered(t *testing.T) {
	c := &capture{}
	n := New(c, timeutil.NewFrozenClock(at))
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")

	p := person.Person{ID: "p-1", Type: person.Legal, CompanyName: "ACME Ltda", Phone: "11987654321", Addresses: []person.Address{{ID: "a"}}}
	ev, err := n.PersonRegistered(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, EventPersonRegistered, ev.Name)
	assert.Equal(t, at, ev.At)
	assert.Equal(t, "req-42", ev.CorrelationID)
	assert.Equal(t, Title, ev.Title)

	assert.Equal(t, "p-1", string(c.key))
	var body map[string]any
	require.NoError(t, json.Unmarshal(c.value, &body))
	assert.Equal(t, "person.registered", body["name"])
	assert.Equal(t, "p-1", body["person_id"])
	assert.Equal(t, "LEGAL", body["person_type"])
	assert.Equal(t, "+5511987654321", body["phone_e164"])
	assert.EqualValues(t, 1, body["address_count"])
	assert.Equal(t, "A pessoa ACME Ltda foi cadastrada com sucesso.", body["message"])

	headers := map[string]string{}
	for _, h := range c.headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "person.registered", headers["event_name"])
	assert.Equal(t, ev.ID.String(), headers["event_id"])
	assert.Equal(t, "1", headers["schema_version"])
	assert.Equal(t, "req-42", headers["correlation_id"])
}

func TestPersonRegistered_NoCorrelation(t *testing.T) {
	c := &capture{}
	_, err := New(c, nil).PersonRegistered(context.Background(), person.Person{ID: "p-1"})
	require.NoError(t, err)
	for _, h := range c.headers {
		assert.NotEqual(t, "correlation_id", h.Key)
	}
}

func TestPersonRegistered_PublishError(t *testing.T) {
	c := &capture{err: errors.New("broker down")}
	_, err := New(c, nil).PersonRegistered(context.Background(), person.Person{ID: "p-1"})
	require.ErrorContains(t, err, "broker down")
}

func TestDiscard(t *testing.T) {
	_, err := New(nil, nil).PersonRegistered(context.Background(), person.Person{ID: "p-1"})
	require.NoError(t, err)
}
