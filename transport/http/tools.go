package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vortex-fintech/go-cadastro/foundation/contactutil"
	apperrors "github.com/vortex-fintech/go-cadastro/foundation/errors"
	"github.com/vortex-fintech/go-cadastro/foundation/inputmask"
	"github.com/vortex-fintech/go-cadastro/foundation/taxid"
)

var validators = map[string]func(string) bool{
	"individual_id":   taxid.IsValidIndividualID,
	"organization_id": taxid.IsValidOrganizationID,
	"phone":           contactutil.IsValidPhone,
	"email":           contactutil.IsValidEmail,
}

type validateRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	fn, ok := validators[req.Type]
	if !ok {
		apperrors.InvalidArgument().
			WithReason("unknown_type").
			WithDetail("type", req.Type).
			ToHTTP(w)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Valid: fn(req.Value)})
}

type maskRequest struct {
	Template string `json:"template"`
	Previous string `json:"previous"`
	Value    string `json:"value"`
}

type maskResponse struct {
	Masked string          `json:"masked"`
	Cursor int             `json:"cursor"`
	State  inputmask.State `json:"state"`
}

// handleMask runs one keystroke of the masking engine. Clients send the
// previous state back unchanged on the next call.
func (h *Handler) handleMask(w http.ResponseWriter, r *http.Request) {
	var req maskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	t, ok := inputmask.Lookup(req.Template)
	if !ok {
		apperrors.InvalidArgument().
			WithReason("unknown_template").
			WithDetail("template", req.Template).
			ToHTTP(w)
		return
	}
	res := inputmask.Apply(t, inputmask.State{PreviousUnmasked: inputmask.Unmask(req.Previous)}, req.Value)
	// The client writes Masked back into its field; that echo is the next
	// baseline, so digits past the template never enter the state.
	state := inputmask.Echo(res.State, res.Text)
	writeJSON(w, http.StatusOK, maskResponse{Masked: res.Text, Cursor: res.Cursor, State: state})
}

func (h *Handler) handleLookupCEP(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.LookupCEP(r.Context(), chi.URLParam(r, "cep"))
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type tokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

func (h *Handler) handleSaveToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	if err := h.svc.SaveToken(r.Context(), req.Token, req.Platform); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
