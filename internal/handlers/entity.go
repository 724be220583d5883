package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// EntityHandler provides entity management endpoints.
type EntityHandler struct {
	entityService *services.EntityService
}

// NewEntityHandler constructs an EntityHandler.
func NewEntityHandler(entityService *services.EntityService) *EntityHandler {
	return &EntityHandler{entityService: entityService}
}

// EntityRouter registers entity routes. Listing is open to admins; creating
// and updating entities is reserved for super_admin.
func EntityRouter(r chi.Router, entityService *services.EntityService) {
	handler := NewEntityHandler(entityService)

	r.Get("/", handler.ListEntities)
	r.With(RequireRoles(types.RoleSuperAdmin)).Post("/", handler.CreateEntity)
	r.With(RequireRoles(types.RoleSuperAdmin)).Put("/{entityID}", handler.UpdateEntity)
}

// EntityRequest is the body for creating or updating an entity.
type EntityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *EntityHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.entityService.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entities == nil {
		entities = []types.Entity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

func (h *EntityHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var req EntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	entity, err := h.entityService.Create(r.Context(), types.Entity{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entity)
}

func (h *EntityHandler) UpdateEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(chi.URLParam(r, "entityID"), "entity id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req EntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	entity, err := h.entityService.Update(r.Context(), types.Entity{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entity)
}
