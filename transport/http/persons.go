package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vortex-fintech/go-cadastro/person"
)

type personsResponse struct {
	Persons []person.Person `json:"persons"`
}

func (h *Handler) handleListPersons(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	if out == nil {
		out = []person.Person{}
	}
	writeJSON(w, http.StatusOK, personsResponse{Persons: out})
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// savePersonRequest is a person plus the raw device fields clients read
// from the OS; they build device_name when the client did not send one.
type savePersonRequest struct {
	person.Person
	DeviceManufacturer string `json:"device_manufacturer"`
	DeviceModel        string `json:"device_model"`
}

// handleSavePerson creates a person, or replaces it when the body carries
// an id. A save that could not be mirrored still answers 201 with a warning.
func (h *Handler) handleSavePerson(w http.ResponseWriter, r *http.Request) {
	var req savePersonRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	p := req.Person
	if p.DeviceName == "" && req.DeviceModel != "" {
		p.DeviceName = person.DeviceName(req.DeviceManufacturer, req.DeviceModel)
	}
	status := http.StatusCreated
	if p.ID != "" {
		status = http.StatusOK
	}
	res, err := h.svc.Save(r.Context(), p)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, status, res)
}

func (h *Handler) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type batchDeleteResponse struct {
	Deleted int `json:"deleted"`
}

func (h *Handler) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	n, err := h.svc.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, batchDeleteResponse{Deleted: n})
}

func (h *Handler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var a person.Address
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	added, err := h.svc.AddAddress(r.Context(), chi.URLParam(r, "id"), a)
	if err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (h *Handler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var a person.Address
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	a.ID = chi.URLParam(r, "addressID")
	if err := h.svc.UpdateAddress(r.Context(), chi.URLParam(r, "id"), a); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RemoveAddress(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "addressID")); err != nil {
		writeError(r.Context(), w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
