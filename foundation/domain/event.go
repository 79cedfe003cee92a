package domain

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Event interface {
	EventName() string
	OccurredAt() time.Time
	EventID() uuid.UUID
	SchemaVer() int32
}

// Sentinel error for errors.Is checks.
var ErrInvalidEvent = errors.New("invalid event")

var (
	ErrInvalidEventName     = errors.New("invalid event name")
	ErrInvalidEventProducer = errors.New("invalid event producer")
	ErrInvalidEventTime     = errors.New("invalid event time")
	ErrInvalidEventID       = errors.New("invalid event id")
	ErrInvalidEventSchema   = errors.New("invalid event schema version")
)

// BaseEvent contains common event metadata. It carries no business payload
// and no PII.
type BaseEvent struct {
	Name          string            `json:"name"`
	At            time.Time         `json:"at"`
	ID            uuid.UUID         `json:"id"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	SchemaVersion int32             `json:"schema_version"`
	Producer      string            `json:"producer"`
	Meta          map[string]string `json:"meta,omitempty"`
}

var _ Event = BaseEvent{}

// NewBaseEvent stamps a v7 id and schema v1; at is converted to UTC.
func NewBaseEvent(name, producer string, at time.Time) (BaseEvent, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return BaseEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	e := BaseEvent{
		Name:          strings.TrimSpace(name),
		At:            at.UTC(),
		ID:            id,
		SchemaVersion: 1,
		Producer:      strings.TrimSpace(producer),
	}
	if err := e.Validate(); err != nil {
		return BaseEvent{}, err
	}
	return e, nil
}

// WithCorrelation links the event to the request that caused it.
func (e BaseEvent) WithCorrelation(id string) BaseEvent {
	e.CorrelationID = strings.TrimSpace(id)
	return e
}

// WithMeta uses copy-on-write to avoid hidden map sharing.
func (e BaseEvent) WithMeta(k, v string) BaseEvent {
	k = strings.TrimSpace(k)
	if k == "" {
		return e
	}
	m := make(map[string]string, len(e.Meta)+1)
	maps.Copy(m, e.Meta)
	m[k] = strings.TrimSpace(v)
	e.Meta = m
	return e
}

// Validate returns ErrInvalidEvent wrapping the specific reason.
func (e BaseEvent) Validate() error {
	var reason error
	switch {
	case strings.TrimSpace(e.Name) == "":
		reason = ErrInvalidEventName
	case strings.TrimSpace(e.Producer) == "":
		reason = ErrInvalidEventProducer
	case e.At.IsZero() || e.At.Location() != time.UTC:
		reason = ErrInvalidEventTime
	case e.ID == uuid.Nil:
		reason = ErrInvalidEventID
	case e.SchemaVersion <= 0:
		reason = ErrInvalidEventSchema
	default:
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidEvent, reason)
}

func (e BaseEvent) EventName() string     { return e.Name }
func (e BaseEvent) OccurredAt() time.Time { return e.At }
func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) SchemaVer() int32      { return e.SchemaVersion }
