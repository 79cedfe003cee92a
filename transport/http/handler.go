// Package httptransport is the JSON API of the registration service.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vortex-fintech/go-cadastro/cep"
	"github.com/vortex-fintech/go-cadastro/foundation/logger"
	"github.com/vortex-fintech/go-cadastro/person"
	"github.com/vortex-fintech/go-cadastro/registry"
)

// Service is the registry as seen by the API.
type Service interface {
	Save(ctx context.Context, p person.Person) (registry.SaveResult, error)
	List(ctx context.Context) ([]person.Person, error)
	Search(ctx context.Context, q string) ([]person.Person, error)
	Get(ctx context.Context, id string) (person.Person, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
	AddAddress(ctx context.Context, personID string, a person.Address) (person.Address, error)
	UpdateAddress(ctx context.Context, personID string, a person.Address) error
	RemoveAddress(ctx context.Context, personID, addressID string) error
	SaveToken(ctx context.Context, token, platform string) error
	LookupCEP(ctx context.Context, code string) (cep.Result, error)
}

var _ Service = (*registry.Service)(nil)

type Handler struct {
	svc Service
	log logger.LoggerInterface
	// idem wraps the creating routes; identity when disabled.
	idem func(http.Handler) http.Handler
}

func NewHandler(svc Service, log logger.LoggerInterface, idem func(http.Handler) http.Handler) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if idem == nil {
		idem = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{svc: svc, log: log, idem: idem}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", h.handleValidate)
		r.Post("/mask", h.handleMask)
		r.Get("/cep/{cep}", h.handleLookupCEP)
		r.Post("/tokens", h.handleSaveToken)

		r.Get("/persons", h.handleListPersons)
		r.With(h.idem).Post("/persons", h.handleSavePerson)
		r.Post("/persons:batchDelete", h.handleBatchDelete)
		r.Route("/persons/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetPerson)
			r.Delete("/", h.handleDeletePerson)
			r.With(h.idem).Post("/addresses", h.handleAddAddress)
			r.Put("/addresses/{addressID}", h.handleUpdateAddress)
			r.Delete("/addresses/{addressID}", h.handleRemoveAddress)
		})
	})
}
