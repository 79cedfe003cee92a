// Package registry is the application service behind the API: Postgres is
// the system of record, the Redis mirror and the event stream are best
// effort.
package registry

import (
	"context"

	"github.com/vortex-fintech/go-cadastro/cep"
	"github.com/vortex-fintech/go-cadastro/data/mirror"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/foundation/retry"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/messaging/notify"
	"github.com/vortex-fintech/go-cadastro/person"
)

type Store interface {
	List(ctx context.Context) ([]person.Person, error)
	Search(ctx context.Context, q string) ([]person.Person, error)
	Get(ctx context.Context, id string) (person.Person, error)
	Save(ctx context.Context, p person.Person) (person.Person, error)
	AddAddress(ctx context.Context, personID string, a person.Address) (person.Address, error)
	UpdateAddress(ctx context.Context, personID string, a person.Address) error
	RemoveAddress(ctx context.Context, personID, addressID string) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

type Mirror interface {
	SavePerson(ctx context.Context, p person.Person, createdByToken string) error
	ResyncPerson(ctx context.Context, p person.Person) error
	DeletePerson(ctx context.Context, id string) error
	SaveToken(ctx context.Context, token, platform string) error
	RecordNotification(ctx context.Context, personID, title, message string) (mirror.Notification, error)
}

type Notifier interface {
	PersonRegistered(ctx context.Context, p person.Person) (notify.PersonRegistered, error)
}

type PostalLookup interface {
	Lookup(ctx context.Context, code string) (cep.Result, error)
}

type Service struct {
	store    Store
	mirror   Mirror
	notifier Notifier
	postal   PostalLookup

	log     logger.LoggerInterface
	clock   timeutil.Clock
	retry   retry.Policy
	metrics *Metrics

	mirrorFanout int
}

type Option func(*Service)

func WithLogger(l logger.LoggerInterface) Option { return func(s *Service) { s.log = l } }
func WithClock(c timeutil.Clock) Option          { return func(s *Service) { s.clock = c } }
func WithRetry(p retry.Policy) Option            { return func(s *Service) { s.retry = p } }
func WithMetrics(m *Metrics) Option              { return func(s *Service) { s.metrics = m } }

// WithMirrorFanout bounds concurrent mirror deletes in DeleteMany.
func WithMirrorFanout(n int) Option { return func(s *Service) { s.mirrorFanout = n } }

func New(store Store, m Mirror, n Notifier, postal PostalLookup, opts ...Option) *Service {
	s := &Service{
		store:        store,
		mirror:       m,
		notifier:     n,
		postal:       postal,
		log:          logger.Nop(),
		retry:        retry.Fast,
		mirrorFanout: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = timeutil.Or(s.clock)
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

type deviceTokenKey struct{}

// WithDeviceToken attaches the caller's push token; Save stores it on the
// mirrored document as createdByToken.
func WithDeviceToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, deviceTokenKey{}, token)
}

func DeviceToken(ctx context.Context) string {
	v, _ := ctx.Value(deviceTokenKey{}).(string)
	return v
}
