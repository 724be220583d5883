package handlers

import (
	"net/http"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
)

// ReportHandler serves the admin report projections.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ReportRouter registers the report routes.
func ReportRouter(r chi.Router, reportService *services.ReportService) {
	handler := NewReportHandler(reportService)

	r.Get("/trips", handler.Trips)
	r.Get("/fuel", handler.Fuel)
	r.Get("/vehicles", handler.Vehicles)
	r.Get("/drivers", handler.Drivers)
}

func (h *ReportHandler) Trips(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	from, to, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	trips, err := h.reportService.Trips(r.Context(), scope, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if trips == nil {
		trips = []services.TripReport{}
	}
	writeJSON(w, http.StatusOK, trips)
}

func (h *ReportHandler) Fuel(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	from, to, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	report, err := h.reportService.Fuel(r.Context(), scope, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Vehicles(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	summaries, err := h.reportService.Vehicles(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.VehicleSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *ReportHandler) Drivers(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	summaries, err := h.reportService.Drivers(r.Context(), scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if summaries == nil {
		summaries = []store.DriverSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}
