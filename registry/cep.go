package registry

import (
	"context"
	"errors"

	"github.com/vortex-fintech/go-cadastro/cep"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
)

// LookupCEP resolves a postal code to its address.
func (s *Service) LookupCEP(ctx context.Context, code string) (cep.Result, error) {
	res, err := s.postal.Lookup(ctx, code)
	switch {
	case err == nil:
		s.metrics.cepLookups.WithLabelValues("found").Inc()
		return res, nil
	case errors.Is(err, cep.ErrInvalidCEP):
		s.metrics.cepLookups.WithLabelValues("invalid").Inc()
		return cep.Result{}, apperrors.InvalidArgument().
			WithReason("invalid_cep").
			WithMessage("CEP deve ter 8 dígitos")
	case errors.Is(err, cep.ErrNotFound):
		s.metrics.cepLookups.WithLabelValues("not_found").Inc()
		return cep.Result{}, apperrors.NotFoundID("cep", code).WithMessage("CEP não encontrado")
	default:
		s.metrics.cepLookups.WithLabelValues("error").Inc()
		s.log.WarnwCtx(ctx, "cep lookup failed", "error", err)
		return cep.Result{}, apperrors.Upstream("viacep")
	}
}
