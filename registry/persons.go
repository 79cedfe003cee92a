package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vortex-fintech/go-cadastro/data/personstore"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/idutil"
	"github.com/vortex-fintech/go-cadastro/foundation/piiutil"
	"github.com/vortex-fintech/go-cadastro/messaging/notify"
	"github.com/vortex-fintech/go-cadastro/person"
)

// SyncWarning prefixes the warning returned when only the local save
// succeeded.
const SyncWarning = "Aviso: Salvo localmente, mas houve erro ao sincronizar"

type SaveResult struct {
	Person  person.Person `json:"person"`
	Synced  bool          `json:"synced"`
	Warning string        `json:"warning,omitempty"`
}

// Save validates and stores p. New persons get an ID and a creation time.
// The local write decides success; a mirror failure only sets Warning.
// Notifications go out after a successful mirror write.
func (s *Service) Save(ctx context.Context, p person.Person) (SaveResult, error) {
	p = person.Normalize(p)
	if err := person.Validate(p); err != nil {
		return SaveResult{}, err
	}

	if p.ID == "" {
		id, err := idutil.New()
		if err != nil {
			return SaveResult{}, err
		}
		p.ID = id
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.clock.Now()
	}

	saved, err := s.store.Save(ctx, p)
	if err != nil {
		s.log.ErrorwCtx(ctx, "save person failed", "person_id", p.ID, "error", err)
		return SaveResult{}, fmt.Errorf("registry: save: %w", err)
	}
	s.metrics.saved.Inc()
	s.log.InfowCtx(ctx, "person saved",
		"person_id", saved.ID,
		"person_type", saved.Type.String(),
		"tax_id", piiutil.MaskTaxID(saved.TaxID()),
		"phone", piiutil.MaskPhone(saved.Phone),
		"email", piiutil.MaskEmail(saved.Email),
		"addresses", len(saved.Addresses),
	)

	res := SaveResult{Person: saved}
	token := DeviceToken(ctx)
	err = s.retry.Do(ctx, func() error { return s.mirror.SavePerson(ctx, saved, token) })
	if err != nil {
		s.metrics.mirrorFailures.WithLabelValues("save").Inc()
		s.log.WarnwCtx(ctx, "mirror save failed", "person_id", saved.ID, "error", err)
		res.Warning = SyncWarning + ": " + err.Error()
		return res, nil
	}
	res.Synced = true

	s.announce(ctx, saved)
	return res, nil
}

func (s *Service) announce(ctx context.Context, p person.Person) {
	if _, err := s.mirror.RecordNotification(ctx, p.ID, notify.Title, notify.Message(p)); err != nil {
		s.metrics.mirrorFailures.WithLabelValues("notification").Inc()
		s.log.WarnwCtx(ctx, "record notification failed", "person_id", p.ID, "error", err)
	}
	if _, err := s.notifier.PersonRegistered(ctx, p); err != nil {
		s.log.WarnwCtx(ctx, "publish person.registered failed", "person_id", p.ID, "error", err)
	}
}

func (s *Service) List(ctx context.Context) ([]person.Person, error) {
	out, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	return out, nil
}

// Search matches name or company name; a blank query lists everything.
func (s *Service) Search(ctx context.Context, q string) ([]person.Person, error) {
	if strings.TrimSpace(q) == "" {
		return s.List(ctx)
	}
	out, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("registry: search: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (person.Person, error) {
	p, err := s.store.Get(ctx, id)
	if errors.Is(err, personstore.ErrNotFound) {
		return person.Person{}, apperrors.NotFoundID("person", id)
	}
	if err != nil {
		return person.Person{}, fmt.Errorf("registry: get: %w", err)
	}
	return p, nil
}

// Delete removes the local record; the mirror copy is removed best effort.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, personstore.ErrNotFound) {
		return apperrors.NotFoundID("person", id)
	}
	if err != nil {
		return fmt.Errorf("registry: delete: %w", err)
	}
	s.log.InfowCtx(ctx, "person deleted", "person_id", id)
	s.mirrorDelete(ctx, id)
	return nil
}

// DeleteMany removes ids locally in one transaction, then fans the mirror
// deletes out. It returns how many local records existed.
func (s *Service) DeleteMany(ctx context.Context, ids []string) (int, error) {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("registry: delete many: %w", err)
	}
	s.log.InfowCtx(ctx, "persons deleted", "requested", len(ids), "deleted", n)

	var g errgroup.Group
	g.SetLimit(s.mirrorFanout)
	for _, id := range ids {
		g.Go(func() error {
			s.mirrorDelete(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return n, nil
}

func (s *Service) mirrorDelete(ctx context.Context, id string) {
	err := s.retry.Do(ctx, func() error { return s.mirror.DeletePerson(ctx, id) })
	if err != nil {
		s.metrics.mirrorFailures.WithLabelValues("delete").Inc()
		s.log.WarnwCtx(ctx, "mirror delete failed", "person_id", id, "error", err)
	}
}

// SaveToken registers a device for push notifications.
func (s *Service) SaveToken(ctx context.Context, token, platform string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.DomainInvariant("token", "required", "Token é obrigatório")
	}
	if err := s.retry.Do(ctx, func() error { return s.mirror.SaveToken(ctx, token, platform) }); err != nil {
		s.metrics.mirrorFailures.WithLabelValues("token").Inc()
		return apperrors.Upstream("mirror")
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
