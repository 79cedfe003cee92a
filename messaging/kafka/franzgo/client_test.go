package franzgo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	kgo "github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	got []*kgo.Record
	err error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.got = append(f.got, rs...)
	out := make(kgo.ProduceResults, len(rs))
	for i, r := range rs {
		out[i] = kgo.ProduceResult{Record: r, Err: f.err}
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "go-cadastro", cfg.ClientID)
	assert.Equal(t, 10*time.Second, cfg.ProduceTimeout)
	assert.False(t, cfg.Enabled())
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{SeedBrokers: []string{" ", ""}}.Enabled())
	assert.True(t, Config{SeedBrokers: []string{"broker:9092"}}.Enabled())
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	client, err := NewClient(Config{SeedBrokers: []string{"broker1:9092", " broker2:9092 "}})
	require.NoError(t, err)
	require.NotNil(t, client.Client)

	client.Close()
	client.Close()
}

func TestClient_NilSafe(t *testing.T) {
	var c *Client
	c.Close()
	require.ErrorIs(t, c.Ping(context.Background()), ErrClientNil)
}

func TestNewProducer(t *testing.T) {
	_, err := NewProducer(nil, "t")
	require.ErrorIs(t, err, ErrClientNil)

	_, err = NewProducer(&fakeProducer{}, "")
	require.ErrorIs(t, err, ErrTopicRequired)

	p, err := NewProducer(&fakeProducer{}, "cadastro.person-events")
	require.NoError(t, err)
	assert.Equal(t, "cadastro.person-events", p.Topic())
}

func TestProducer_Produce(t *testing.T) {
	f := &fakeProducer{}
	p, err := NewProducer(f, "events")
	require.NoError(t, err)

	err = p.Produce(context.Background(), []byte("p-1"), []byte(`{}`), Header("event_name", "person.registered"))
	require.NoError(t, err)
	require.Len(t, f.got, 1)
	assert.Equal(t, "events", f.got[0].Topic)
	assert.Equal(t, "p-1", string(f.got[0].Key))
	require.Len(t, f.got[0].Headers, 1)
	assert.Equal(t, "person.registered", string(f.got[0].Headers[0].Value))
}

func TestProducer_ProduceError(t *testing.T) {
	boom := errors.New("not leader for partition")
	p, err := NewProducer(&fakeProducer{err: boom}, "events")
	require.NoError(t, err)
	require.ErrorIs(t, p.Produce(context.Background(), nil, []byte("v")), boom)
}

func TestProducer_ProduceBatch(t *testing.T) {
	f := &fakeProducer{}
	p, err := NewProducer(f, "events")
	require.NoError(t, err)

	require.NoError(t, p.ProduceBatch(context.Background(), nil))
	assert.Empty(t, f.got)

	require.ErrorIs(t, p.ProduceBatch(context.Background(), []*kgo.Record{nil}), ErrProducerRecordNil)

	rec := &kgo.Record{Topic: "other", Key: []byte("k"), Value: []byte("v")}
	require.NoError(t, p.ProduceBatch(context.Background(), []*kgo.Record{rec}))
	assert.Equal(t, "other", rec.Topic, "input records are not mutated")
	require.Len(t, f.got, 1)
	assert.Equal(t, "events", f.got[0].Topic)
}
