package franzgo

import (
	"context"
	"errors"

	kgo "github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTopicRequired     = errors.New("franzgo: topic is required")
	ErrProducerRecordNil = errors.New("franzgo: record is nil")
)

// SyncProducer is the part of *kgo.Client the producer needs.
type SyncProducer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Producer writes to a single topic and waits for broker acks.
type Producer struct {
	client SyncProducer
	topic  string
}

func NewProducer(client SyncProducer, topic string) (*Producer, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	if topic == "" {
		return nil, ErrTopicRequired
	}
	return &Producer{client: client, topic: topic}, nil
}

func (p *Producer) Topic() string { return p.topic }

// Header builds a string-valued record header.
func Header(key, value string) kgo.RecordHeader {
	return kgo.RecordHeader{Key: key, Value: []byte(value)}
}

// Produce sends one record and waits for the ack.
func (p *Producer) Produce(ctx context.Context, key, value []byte, headers ...kgo.RecordHeader) error {
	rec := &kgo.Record{Topic: p.topic, Key: key, Value: value, Headers: headers}
	return p.client.ProduceSync(ctx, rec).FirstErr()
}

// ProduceBatch copies each record, forcing the producer's topic.
func (p *Producer) ProduceBatch(ctx context.Context, records []*kgo.Record) error {
	if len(records) == 0 {
		return nil
	}
	out := make([]*kgo.Record, len(records))
	for i, r := range records {
		if r == nil {
			return ErrProducerRecordNil
		}
		cp := *r
		cp.Topic = p.topic
		out[i] = &cp
	}
	return p.client.ProduceSync(ctx, out...).FirstErr()
}
