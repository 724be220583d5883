package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// VehicleHandler provides the vehicle registry endpoints.
type VehicleHandler struct {
	vehicleService *services.VehicleService
}

// NewVehicleHandler constructs a VehicleHandler.
func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// VehicleRouter registers vehicle registry routes. The caller must already be
// gated to admin or super_admin.
func VehicleRouter(r chi.Router, vehicleService *services.VehicleService) {
	handler := NewVehicleHandler(vehicleService)

	r.Get("/", handler.ListVehicles)
	r.Post("/", handler.CreateVehicle)
	r.Get("/{vehicleID}", handler.GetVehicle)
	r.Put("/{vehicleID}", handler.UpdateVehicle)
	r.Put("/{vehicleID}/maintenance", handler.SetMaintenance)
}

// VehicleUpsertRequest is the body for creating or updating a vehicle.
type VehicleUpsertRequest struct {
	PlateNumber string `json:"plateNumber"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	EntityID    int    `json:"entityId"`
}

// MaintenanceRequest toggles a vehicle's maintenance state.
type MaintenanceRequest struct {
	Maintenance bool `json:"maintenance"`
}

func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	vehicles, err := h.vehicleService.List(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if vehicles == nil {
		vehicles = []types.Vehicle{}
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	id, err := parseIntParam(chi.URLParam(r, "vehicleID"), "vehicle id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	vehicle, err := h.vehicleService.GetByID(r.Context(), scope, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	var req VehicleUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	entityID := req.EntityID
	if !scope.Unrestricted() {
		// Admins register vehicles into their own entity only.
		if scope.EntityID == nil {
			writeError(w, http.StatusForbidden, codeForbidden, "caller has no entity")
			return
		}
		entityID = *scope.EntityID
	}

	vehicle, err := h.vehicleService.Create(r.Context(), types.Vehicle{
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		EntityID:    entityID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	id, err := parseIntParam(chi.URLParam(r, "vehicleID"), "vehicle id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req VehicleUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	current, err := h.vehicleService.GetByID(r.Context(), scope, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entityID := current.EntityID
	if scope.Unrestricted() && req.EntityID > 0 {
		entityID = req.EntityID
	}

	vehicle, err := h.vehicleService.Update(r.Context(), scope, types.Vehicle{
		ID:          id,
		PlateNumber: strings.TrimSpace(req.PlateNumber),
		Make:        strings.TrimSpace(req.Make),
		Model:       strings.TrimSpace(req.Model),
		EntityID:    entityID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}

// SetMaintenance moves a vehicle into or out of maintenance. Entering
// maintenance while a trip is open is a conflict.
func (h *VehicleHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	id, err := parseIntParam(chi.URLParam(r, "vehicleID"), "vehicle id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req MaintenanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}

	vehicle, err := h.vehicleService.SetMaintenance(r.Context(), scope, id, req.Maintenance)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, vehicle)
}
