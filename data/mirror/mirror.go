// Package mirror keeps a best-effort copy of registrations in Redis, laid out
// as documents: one JSON value per person, a hash of address documents per
// person, token hashes and a capped notification list.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vortex-fintech/go-cadastro/foundation/idutil"
	"github.com/vortex-fintech/go-cadastro/foundation/timeutil"
	"github.com/vortex-fintech/go-cadastro/person"
)

// MaxNotifications caps the notification list.
const MaxNotifications = 1000

// Commands is the subset of redis.UniversalClient the mirror writes through.
type Commands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
}

type Mirror struct {
	rdb   Commands
	ns    string
	clock timeutil.Clock
}

func New(rdb Commands, namespace string, clock timeutil.Clock) *Mirror {
	ns := strings.Trim(strings.TrimSpace(namespace), ":")
	if ns == "" {
		ns = "cadastro"
	}
	return &Mirror{rdb: rdb, ns: ns, clock: timeutil.Or(clock)}
}

// Person and its addresses share a hash tag so they land on one cluster slot.
func (m *Mirror) PersonKey(id string) string    { return m.ns + ":person:{" + id + "}" }
func (m *Mirror) AddressesKey(id string) string { return m.ns + ":person:{" + id + "}:addresses" }
func (m *Mirror) TokenKey(token string) string  { return m.ns + ":token:" + token }
func (m *Mirror) NotificationsKey() string      { return m.ns + ":notifications" }

// ResyncPerson rewrites p's documents keeping the createdByToken already
// mirrored. A missing document is written with an empty token.
func (m *Mirror) ResyncPerson(ctx context.Context, p person.Person) error {
	raw, err := m.rdb.Get(ctx, m.PersonKey(p.ID)).Bytes()
	var token string
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return fmt.Errorf("mirror: read person %s: %w", p.ID, err)
	default:
		var prev struct {
			CreatedByToken string `json:"createdByToken"`
		}
		if err := json.Unmarshal(raw, &prev); err != nil {
			return fmt.Errorf("mirror: decode person %s: %w", p.ID, err)
		}
		token = prev.CreatedByToken
	}
	return m.SavePerson(ctx, p, token)
}

// SavePerson writes the person document, then replaces its address
// documents. createdByToken is the device token of the caller, may be empty.
func (m *Mirror) SavePerson(ctx context.Context, p person.Person, createdByToken string) error {
	doc, err := json.Marshal(newPersonDoc(p, createdByToken))
	if err != nil {
		return fmt.Errorf("mirror: encode person: %w", err)
	}
	if err := m.rdb.Set(ctx, m.PersonKey(p.ID), doc, 0).Err(); err != nil {
		return fmt.Errorf("mirror: save person %s: %w", p.ID, err)
	}

	key := m.AddressesKey(p.ID)
	if err := m.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("mirror: clear addresses %s: %w", p.ID, err)
	}
	if len(p.Addresses) == 0 {
		return nil
	}
	fields := make([]any, 0, 2*len(p.Addresses))
	for _, a := range p.Addresses {
		b, err := json.Marshal(newAddressDoc(a))
		if err != nil {
			return fmt.Errorf("mirror: encode address: %w", err)
		}
		fields = append(fields, a.ID, string(b))
	}
	if err := m.rdb.HSet(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("mirror: save addresses %s: %w", p.ID, err)
	}
	return nil
}

func (m *Mirror) DeletePerson(ctx context.Context, id string) error {
	if err := m.rdb.Del(ctx, m.PersonKey(id), m.AddressesKey(id)).Err(); err != nil {
		return fmt.Errorf("mirror: delete person %s: %w", id, err)
	}
	return nil
}

// SaveToken registers a device token for notifications. Empty tokens are
// ignored.
func (m *Mirror) SaveToken(ctx context.Context, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if platform = strings.TrimSpace(platform); platform == "" {
		platform = "android"
	}
	err := m.rdb.HSet(ctx, m.TokenKey(token),
		"token", token,
		"platform", platform,
		"createdAt", timeutil.Millis(m.clock.Now()),
	).Err()
	if err != nil {
		return fmt.Errorf("mirror: save token: %w", err)
	}
	return nil
}

// Notification is an entry of the notification feed.
type Notification struct {
	ID        string `json:"id"`
	PersonID  string `json:"personId"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Read      bool   `json:"read"`
}

// RecordNotification prepends an unread entry to the feed and trims it to
// MaxNotifications.
func (m *Mirror) RecordNotification(ctx context.Context, personID, title, message string) (Notification, error) {
	id, err := idutil.New()
	if err != nil {
		return Notification{}, err
	}
	n := Notification{
		ID:        id,
		PersonID:  personID,
		Title:     title,
		Message:   message,
		Timestamp: timeutil.Millis(m.clock.Now()),
	}
	b, err := json.Marshal(n)
	if err != nil {
		return Notification{}, fmt.Errorf("mirror: encode notification: %w", err)
	}

	key := m.NotificationsKey()
	if err := m.rdb.LPush(ctx, key, string(b)).Err(); err != nil {
		return Notification{}, fmt.Errorf("mirror: record notification: %w", err)
	}
	if err := m.rdb.LTrim(ctx, key, 0, MaxNotifications-1).Err(); err != nil {
		return Notification{}, fmt.Errorf("mirror: trim notifications: %w", err)
	}
	return n, nil
}
