// Package notify publishes registration events for the push pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kgo "github.com/twmb/franz-go/pkg/kgo"

	"github.com/vortex-fintech/go-cadastro/foundation/contactutil"
	"github.com/vortex-fintech/go-cadastro/foundation/domain"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/messaging/kafka/franzgo"
	"github.com/vortex-fintech/go-cadastro/person"
)

const (
	EventPersonRegistered = "person.registered"
	Producer              = "go-cadastro"

	Title = "Nova Pessoa Cadastrada"
)

// Message is the notification body shown for p.
func Message(p person.Person) string {
	return fmt.Sprintf("A pessoa %s foi cadastrada com sucesso.", p.DisplayName())
}

// PersonRegistered is the event payload. The envelope fields are inlined.
type PersonRegistered struct {
	domain.BaseEvent
	PersonID     string `json:"person_id"`
	PersonType   string `json:"person_type"`
	PhoneE164    string `json:"phone_e164,omitempty"`
	AddressCount int    `json:"address_count"`
	Title        string `json:"title"`
	Message      string `json:"message"`
}

type Publisher interface {
	Produce(ctx context.Context, key, value []byte, headers ...kgo.RecordHeader) error
}

type Notifier struct {
	pub   Publisher
	clock timeutil.Clock
}

func New(pub Publisher, clock timeutil.Clock) *Notifier {
	if pub == nil {
		pub = Discard{}
	}
	return &Notifier{pub: pub, clock: timeutil.Or(clock)}
}

// PersonRegistered publishes the event keyed by person ID so that events of
// one person stay ordered on a partition.
func (n *Notifier) PersonRegistered(ctx context.Context, p person.Person) (PersonRegistered, error) {
	base, err := domain.NewBaseEvent(EventPersonRegistered, Producer, n.clock.Now())
	if err != nil {
		return PersonRegistered{}, err
	}
	if rid := logger.RequestID(ctx); rid != "" {
		base = base.WithCorrelation(rid)
	}

	ev := PersonRegistered{
		BaseEvent:    base,
		PersonID:     p.ID,
		PersonType:   p.Type.String(),
		PhoneE164:    contactutil.NormalizePhone(p.Phone),
		AddressCount: len(p.Addresses),
		Title:        Title,
		Message:      Message(p),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return PersonRegistered{}, fmt.Errorf("notify: encode: %w", err)
	}

	headers := []kgo.RecordHeader{
		franzgo.Header("event_name", ev.Name),
		franzgo.Header("event_id", ev.ID.String()),
		franzgo.Header("schema_version", strconv.Itoa(int(ev.SchemaVersion))),
	}
	if ev.CorrelationID != "" {
		headers = append(headers, franzgo.Header("correlation_id", ev.CorrelationID))
	}

	if err := n.pub.Produce(ctx, []byte(p.ID), value, headers...); err != nil {
		return PersonRegistered{}, fmt.Errorf("notify: publish %s: %w", ev.Name, err)
	}
	return ev, nil
}

// Discard drops events; used when no broker is configured.
type Discard struct{}

func (Discard) Produce(context.Context, []byte, []byte, ...kgo.RecordHeader) error { return nil }
