package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vortex-fintech/go-cadastro/data/personstore"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/person"
)

// AddAddress appends a to the person's list and resyncs the mirror copy.
func (s *Service) AddAddress(ctx context.Context, personID string, a person.Address) (person.Address, error) {
	a = person.NormalizeAddress(a)
	if err := person.ValidateAddress(a); err != nil {
		return person.Address{}, err
	}
	added, err := s.store.AddAddress(ctx, personID, a)
	if errors.Is(err, personstore.ErrNotFound) {
		return person.Address{}, apperrors.NotFoundID("person", personID)
	}
	if err != nil {
		return person.Address{}, fmt.Errorf("registry: add address: %w", err)
	}
	s.log.InfowCtx(ctx, "address added", "person_id", personID, "address_id", added.ID)
	s.resync(ctx, personID)
	return added, nil
}

// UpdateAddress replaces the address with a.ID in place.
func (s *Service) UpdateAddress(ctx context.Context, personID string, a person.Address) error {
	a = person.NormalizeAddress(a)
	if err := person.ValidateAddress(a); err != nil {
		return err
	}
	err := s.store.UpdateAddress(ctx, personID, a)
	if errors.Is(err, personstore.ErrNotFound) {
		return apperrors.NotFoundID("address", a.ID)
	}
	if err != nil {
		return fmt.Errorf("registry: update address: %w", err)
	}
	s.resync(ctx, personID)
	return nil
}

func (s *Service) RemoveAddress(ctx context.Context, personID, addressID string) error {
	err := s.store.RemoveAddress(ctx, personID, addressID)
	if errors.Is(err, personstore.ErrNotFound) {
		return apperrors.NotFoundID("address", addressID)
	}
	if err != nil {
		return fmt.Errorf("registry: remove address: %w", err)
	}
	s.resync(ctx, personID)
	return nil
}

// resync rewrites the mirrored document from the local record, keeping the
// device token that created it. Failures
// are counted and logged; the next save repairs the copy.
func (s *Service) resync(ctx context.Context, personID string) {
	p, err := s.store.Get(ctx, personID)
	if err != nil {
		s.log.WarnwCtx(ctx, "mirror resync read failed", "person_id", personID, "error", err)
		return
	}
	if err := s.retry.Do(ctx, func() error { return s.mirror.ResyncPerson(ctx, p) }); err != nil {
		s.metrics.mirrorFailures.WithLabelValues("resync").Inc()
		s.log.WarnwCtx(ctx, "mirror resync failed", "person_id", personID, "error", err)
	}
}
