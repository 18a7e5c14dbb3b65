package handlers

import (
	"net/http"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/export"
	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/notify"
)

type fuelEfficiencyResponse struct {
	analytics.FuelEfficiency
	Rating    analytics.EfficiencyRating `json:"rating"`
	Refills   int                        `json:"refills"`
	CostPerKm float64                    `json:"cost_per_km"`
}

// FuelEfficiency reports km/L over the vehicle's refills.
func (h *GarageHandler) FuelEfficiency(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	eff := analytics.EstimateFuelEfficiency(v.FuelLogs)
	writeJSON(w, http.StatusOK, fuelEfficiencyResponse{
		FuelEfficiency: eff,
		Rating:         h.policy.Rate(v.Category, eff.Current),
		Refills:        len(v.FuelLogs),
		CostPerKm:      analytics.CostPerKm(v),
	})
}

type predictionResponse struct {
	*analytics.Prediction
	Overdue bool `json:"overdue"`
}

// Prediction forecasts the next service date. 204 when the history is too thin.
func (h *GarageHandler) Prediction(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	p := analytics.PredictNextService(v, v.Services, h.policy, h.now())
	if h.metrics != nil {
		h.metrics.RecordPrediction(p != nil)
	}
	if p == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, predictionResponse{Prediction: p, Overdue: p.Overdue()})
}

// Rank returns the mileage tier of a vehicle.
func (h *GarageHandler) Rank(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.RankFor(v.Mileage))
}

type tripRequest struct {
	VehicleID  string  `json:"vehicle_id"`
	DistanceKm float64 `json:"distance_km"`
}

// SimulateTrip projects a planned trip. 204 when the distance is not positive.
func (h *GarageHandler) SimulateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VehicleID == "" {
		writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}

	v, err := h.store.FindVehicleByID(r.Context(), req.VehicleID)
	if err != nil {
		writeStoreError(w, err, "load vehicle")
		return
	}
	sim := analytics.SimulateTrip(v, req.DistanceKm, h.policy)
	if h.metrics != nil {
		h.metrics.RecordTrip(tripOutcome(sim))
	}
	if sim == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sim)
}

func tripOutcome(sim *analytics.TripSimulation) string {
	switch {
	case sim == nil:
		return metrics.OutcomeSkipped
	case sim.ServiceDueDuringTrip:
		return metrics.OutcomeServiceDue
	default:
		return metrics.OutcomeSimulated
	}
}

// FleetSummary aggregates cost and distance over every vehicle.
func (h *GarageHandler) FleetSummary(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.FindVehicles(r.Context())
	if err != nil {
		writeStoreError(w, err, "list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, analytics.SummarizeFleet(vehicles, h.now()))
}

// Alerts returns the current alert list.
func (h *GarageHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := notify.StoreSource(h.store, h.policy, h.now)(r.Context())
	if err != nil {
		writeStoreError(w, err, "build alerts")
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// ServicesCSV downloads the service history of a vehicle.
func (h *GarageHandler) ServicesCSV(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="services-`+v.ID+`.csv"`)
	if err := export.ServicesCSV(w, v); err != nil {
		logWriteError(err, "services csv")
	}
}
