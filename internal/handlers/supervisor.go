package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
)

// SupervisorHandler provides the assignment ledger endpoints used by
// supervisors to bind drivers to vehicles.
type SupervisorHandler struct {
	assignmentService *services.AssignmentService
}

// NewSupervisorHandler constructs a SupervisorHandler.
func NewSupervisorHandler(assignmentService *services.AssignmentService) *SupervisorHandler {
	return &SupervisorHandler{assignmentService: assignmentService}
}

// SupervisorRouter registers the supervisor assignment routes. The caller must
// already be gated to supervisor or above.
func SupervisorRouter(r chi.Router, assignmentService *services.AssignmentService) {
	handler := NewSupervisorHandler(assignmentService)

	r.Post("/assignments", handler.CreateAssignment)
	r.Put("/assignments/{assignmentID}", handler.UpdateAssignment)
	r.Delete("/assignments/{assignmentID}", handler.RemoveAssignment)
	r.Get("/assignments/vehicle/{vehicleID}", handler.VehicleAssignment)
}

// AssignmentRequest is the body for creating or updating an assignment.
type AssignmentRequest struct {
	DriverID  int  `json:"driverId"`
	VehicleID int  `json:"vehicleId"`
	Permanent bool `json:"permanent"`
}

// CreateAssignment binds a driver to a vehicle, replacing any existing active
// assignment for that vehicle.
func (h *SupervisorHandler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.DriverID < 1 || req.VehicleID < 1 {
		writeError(w, http.StatusBadRequest, codeValidation, "driverId and vehicleId are required")
		return
	}

	assignment, err := h.assignmentService.CreateOrReplace(r.Context(), scope, req.VehicleID, req.DriverID, req.Permanent)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, assignment)
}

// UpdateAssignment changes the driver or permanence of an active assignment.
func (h *SupervisorHandler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	id, err := parseIntParam(chi.URLParam(r, "assignmentID"), "assignment id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.DriverID < 1 {
		writeError(w, http.StatusBadRequest, codeValidation, "driverId is required")
		return
	}

	assignment, err := h.assignmentService.UpdateActive(r.Context(), scope, id, req.DriverID, req.Permanent)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assignment)
}

// RemoveAssignment ends an active assignment. Any open trip on the vehicle
// keeps running.
func (h *SupervisorHandler) RemoveAssignment(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	id, err := parseIntParam(chi.URLParam(r, "assignmentID"), "assignment id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	if err := h.assignmentService.Remove(r.Context(), scope, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// VehicleAssignment returns a vehicle's current assignment.
func (h *SupervisorHandler) VehicleAssignment(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	vehicleID, err := parseIntParam(chi.URLParam(r, "vehicleID"), "vehicle id")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	assignment, err := h.assignmentService.ActiveForVehicle(r.Context(), scope, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assignment)
}
