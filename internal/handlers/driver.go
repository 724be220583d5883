package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// errDriverOverride rejects a ?driverId= override from a plain driver.
var errDriverOverride = errors.New("drivers may only query their own state")

// DriverHandler provides the mobile driver endpoints: check-in, check-out,
// fuel logging, and current-state lookups.
type DriverHandler struct {
	tripService       *services.TripService
	assignmentService *services.AssignmentService
	fuelService       *services.FuelService
}

// NewDriverHandler constructs a DriverHandler with the provided services.
func NewDriverHandler(tripService *services.TripService, assignmentService *services.AssignmentService, fuelService *services.FuelService) *DriverHandler {
	return &DriverHandler{
		tripService:       tripService,
		assignmentService: assignmentService,
		fuelService:       fuelService,
	}
}

// DriverRouter registers the mobile driver routes on the given router.
// Callers are already authenticated; any fleet role may reach these routes
// because supervisors check vehicles in and out on behalf of drivers.
func DriverRouter(r chi.Router, tripService *services.TripService, assignmentService *services.AssignmentService, fuelService *services.FuelService) {
	handler := NewDriverHandler(tripService, assignmentService, fuelService)

	r.Post("/checkin", handler.CheckIn)
	r.Post("/checkout", handler.CheckOut)
	r.Post("/fuel", handler.LogFuel)
	r.Get("/active-trip", handler.ActiveTrip)
	r.Get("/assignment", handler.Assignment)
}

// CheckInRequest is the body for POST /mobile/driver/checkin.
type CheckInRequest struct {
	VehicleID     int     `json:"vehicleId"`
	DriverID      int     `json:"driverId"`
	StartOdometer float64 `json:"startOdometer"`
	StartLocation string  `json:"startLocation"`
	TripPurpose   string  `json:"tripPurpose"`
}

// CheckIn opens a trip for the driver on the vehicle.
func (h *DriverHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.VehicleID < 1 {
		writeError(w, http.StatusBadRequest, codeValidation, "vehicleId is required")
		return
	}
	if req.DriverID == 0 {
		req.DriverID = scope.UserID
	}

	trip, err := h.tripService.CheckIn(r.Context(), scope, services.CheckInRequest{
		VehicleID:     req.VehicleID,
		DriverID:      req.DriverID,
		OdometerStart: req.StartOdometer,
		LocationStart: strings.TrimSpace(req.StartLocation),
		Purpose:       strings.TrimSpace(req.TripPurpose),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// CheckOutRequest is the body for POST /mobile/driver/checkout.
type CheckOutRequest struct {
	TripID      int     `json:"tripId"`
	VehicleID   int     `json:"vehicleId"`
	EndOdometer float64 `json:"endOdometer"`
	EndLocation string  `json:"endLocation"`
}

// CheckOut closes the driver's open trip.
func (h *DriverHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	var req CheckOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.TripID < 1 || req.VehicleID < 1 {
		writeError(w, http.StatusBadRequest, codeValidation, "tripId and vehicleId are required")
		return
	}

	trip, err := h.tripService.CheckOut(r.Context(), scope, services.CheckOutRequest{
		TripID:      req.TripID,
		VehicleID:   req.VehicleID,
		OdometerEnd: req.EndOdometer,
		LocationEnd: strings.TrimSpace(req.EndLocation),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// FuelRequest is the body for POST /mobile/driver/fuel.
type FuelRequest struct {
	VehicleID        int     `json:"vehicleId"`
	TripID           *int    `json:"tripId,omitempty"`
	Litres           float64 `json:"litres"`
	Cost             float64 `json:"cost"`
	Odometer         float64 `json:"odometer"`
	Location         string  `json:"location"`
	PaymentReference string  `json:"paymentReference"`
	ReceiptURL       string  `json:"receiptUrl,omitempty"`
}

// LogFuel appends a fuel purchase record.
func (h *DriverHandler) LogFuel(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	var req FuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request")
		return
	}
	if req.VehicleID < 1 {
		writeError(w, http.StatusBadRequest, codeValidation, "vehicleId is required")
		return
	}

	log, err := h.fuelService.Log(r.Context(), scope, types.FuelLog{
		VehicleID:        req.VehicleID,
		TripID:           req.TripID,
		Litres:           req.Litres,
		Cost:             req.Cost,
		Odometer:         req.Odometer,
		Location:         strings.TrimSpace(req.Location),
		PaymentReference: strings.TrimSpace(req.PaymentReference),
		ReceiptURL:       strings.TrimSpace(req.ReceiptURL),
		LoggedBy:         scope.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, log)
}

// ActiveTrip returns the caller's open trip, or the named driver's for
// supervisor use via ?driverId=.
func (h *DriverHandler) ActiveTrip(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	driverID, err := h.targetDriver(r, scope)
	if err != nil {
		if errors.Is(err, errDriverOverride) {
			writeError(w, http.StatusForbidden, codeForbidden, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		}
		return
	}

	trip, err := h.tripService.ActiveForDriver(r.Context(), scope, driverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// Assignment returns the caller's active assignment, or the named driver's
// for supervisor use via ?driverId=.
func (h *DriverHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	scope, ok := scopeFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return
	}

	driverID, err := h.targetDriver(r, scope)
	if err != nil {
		if errors.Is(err, errDriverOverride) {
			writeError(w, http.StatusForbidden, codeForbidden, err.Error())
		} else {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		}
		return
	}

	assignment, err := h.assignmentService.ActiveForDriver(r.Context(), scope, driverID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, assignment)
}

// targetDriver resolves the ?driverId= override. Drivers may only query
// themselves; supervisor and above may query any driver in scope.
func (h *DriverHandler) targetDriver(r *http.Request, scope types.Scope) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("driverId"))
	if raw == "" {
		return scope.UserID, nil
	}
	driverID, err := parseIntParam(raw, "driverId")
	if err != nil {
		return 0, err
	}
	if driverID != scope.UserID && !scope.CanActForOthers() {
		return 0, errDriverOverride
	}
	return driverID, nil
}
