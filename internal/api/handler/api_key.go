package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brplates/controller/internal/api/request"
	"github.com/brplates/controller/internal/api/response"
	"github.com/brplates/controller/internal/core"
)

// APIKey handles API key provisioning endpoints.
// TODO: gate these behind an admin credential before exposing the service
// outside a trusted network; the recognition endpoints are key-gated but
// provisioning is not.
type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// Create provisions a new API key. The raw secret is returned once in
// the response and never again.
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, rawKey, err := h.svc.Create(r.Context(), req.Description, req.CallLimit)
	if err != nil {
		if errors.Is(err, core.ErrKeyLimitReached) {
			response.WriteError(w, http.StatusConflict, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]any{
		"id":          key.ID,
		"key":         rawKey,
		"description": key.Description,
		"call_limit":  key.CallLimit,
		"calls_made":  key.CallsMade,
		"is_active":   key.IsActive,
		"created_at":  key.CreatedAt,
	}
	response.WriteJSON(w, http.StatusCreated, resp)
}

// List lists API keys with cursor-based pagination. Hashes are never
// serialized.
func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	keys, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

// Get retrieves an API key record by ID.
func (h *APIKey) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrKeyNotFound) {
			response.WriteError(w, http.StatusNotFound, core.ErrKeyNotFound.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, "failed to fetch api key")
		return
	}

	response.WriteJSON(w, http.StatusOK, key)
}

// Deactivate disables an API key. Records are never physically deleted.
func (h *APIKey) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
