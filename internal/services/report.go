package services

import (
	"context"
	"time"

	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
)

// ReportRepository defines the aggregation queries behind the admin reports.
type ReportRepository interface {
	VehicleSummaries(ctx context.Context, scope types.Scope) ([]store.VehicleSummary, error)
	DriverSummaries(ctx context.Context, scope types.Scope) ([]store.DriverSummary, error)
}

// ReportService produces the read-only projections for dashboards. Distance
// and duration are derived from stored readings at query time.
type ReportService struct {
	reports ReportRepository
	trips   TripRepository
	fuel    FuelLogRepository
}

func NewReportService(reports ReportRepository, trips TripRepository, fuel FuelLogRepository) *ReportService {
	return &ReportService{reports: reports, trips: trips, fuel: fuel}
}

// TripReport is a trip row with its derived figures.
type TripReport struct {
	types.Trip
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	DurationSeconds *int64   `json:"duration_seconds,omitempty"`
}

// Trips lists trips in the window with computed distance and duration.
func (s *ReportService) Trips(ctx context.Context, scope types.Scope, from, to *time.Time) ([]TripReport, error) {
	trips, err := s.trips.List(ctx, scope, store.TripFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	reports := make([]TripReport, len(trips))
	for i, trip := range trips {
		report := TripReport{Trip: trip}
		if distance, ok := trip.Distance(); ok {
			report.DistanceKm = &distance
		}
		if duration, ok := trip.Duration(); ok {
			seconds := int64(duration.Seconds())
			report.DurationSeconds = &seconds
		}
		reports[i] = report
	}
	return reports, nil
}

// FuelReport is the fuel listing plus totals.
type FuelReport struct {
	Logs        []types.FuelLog `json:"logs"`
	TotalLitres float64         `json:"total_litres"`
	TotalCost   float64         `json:"total_cost"`
}

// Fuel lists fuel logs in the window with litre and cost totals.
func (s *ReportService) Fuel(ctx context.Context, scope types.Scope, from, to *time.Time) (FuelReport, error) {
	logs, err := s.fuel.List(ctx, scope, store.FuelFilter{From: from, To: to})
	if err != nil {
		return FuelReport{}, err
	}

	report := FuelReport{Logs: logs}
	if report.Logs == nil {
		report.Logs = []types.FuelLog{}
	}
	for _, log := range logs {
		report.TotalLitres += log.Litres
		report.TotalCost += log.Cost
	}
	return report, nil
}

// Vehicles returns the per-vehicle aggregation.
func (s *ReportService) Vehicles(ctx context.Context, scope types.Scope) ([]store.VehicleSummary, error) {
	return s.reports.VehicleSummaries(ctx, scope)
}

// Drivers returns the per-driver aggregation.
func (s *ReportService) Drivers(ctx context.Context, scope types.Scope) ([]store.DriverSummary, error) {
	return s.reports.DriverSummaries(ctx, scope)
}
