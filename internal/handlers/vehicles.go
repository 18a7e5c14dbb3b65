package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-ops/internal/analytics"
	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/models"
)

// GarageHandler serves vehicles, their history, inventory and the analytics built on them.
type GarageHandler struct {
	store   db.GarageStore
	policy  analytics.Policy
	metrics *metrics.Recorder
	now     func() time.Time
}

// NewGarageHandler creates a handler backed by store. rec may be nil.
func NewGarageHandler(store db.GarageStore, policy analytics.Policy, rec *metrics.Recorder) *GarageHandler {
	return &GarageHandler{
		store:   store,
		policy:  policy,
		metrics: rec,
		now:     time.Now,
	}
}

type vehicleRequest struct {
	Category models.VehicleCategory `json:"category"`
	Brand    string                 `json:"brand"`
	Model    string                 `json:"model"`
	Year     int                    `json:"year"`
	Plate    string                 `json:"plate"`
	Mileage  int                    `json:"mileage"`
	PhotoURL string                 `json:"photo_url"`
}

func (req *vehicleRequest) validate() string {
	req.Brand = strings.TrimSpace(req.Brand)
	req.Model = strings.TrimSpace(req.Model)
	if req.Category == "" {
		req.Category = models.CategoryCar
	}
	switch {
	case !models.IsValidCategory(req.Category):
		return "invalid category"
	case req.Brand == "":
		return "brand is required"
	case req.Mileage < 0:
		return "mileage cannot be negative"
	case req.Year != 0 && (req.Year < 1886 || req.Year > time.Now().Year()+1):
		return "invalid year"
	}
	return ""
}

func (req *vehicleRequest) vehicle() models.Vehicle {
	return models.Vehicle{
		Category: req.Category,
		Brand:    req.Brand,
		Model:    req.Model,
		Year:     req.Year,
		Plate:    strings.ToUpper(strings.TrimSpace(req.Plate)),
		Mileage:  req.Mileage,
		PhotoURL: req.PhotoURL,
	}
}

// ListVehicles returns every vehicle with its history.
func (h *GarageHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.store.FindVehicles(r.Context())
	if err != nil {
		writeStoreError(w, err, "list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

// CreateVehicle registers a vehicle.
func (h *GarageHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	v := req.vehicle()
	if err := h.store.InsertVehicle(r.Context(), &v); err != nil {
		writeStoreError(w, err, "create vehicle")
		return
	}
	log.WithFields(log.Fields{"vehicle_id": v.ID, "vehicle": v.DisplayName()}).Info("Vehicle created")
	writeJSON(w, http.StatusCreated, v)
}

// GetVehicle returns one vehicle.
func (h *GarageHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	v, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// UpdateVehicle replaces the profile of a vehicle. History is not touched.
func (h *GarageHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req vehicleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.UpdateVehicle(r.Context(), id, req.vehicle()); err != nil {
		writeStoreError(w, err, "update vehicle")
		return
	}
	v, err := h.store.FindVehicleByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, "load vehicle")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVehicle removes a vehicle and its history.
func (h *GarageHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.DeleteVehicle(r.Context(), id); err != nil {
		writeStoreError(w, err, "delete vehicle")
		return
	}
	log.WithField("vehicle_id", id).Info("Vehicle deleted")
	w.WriteHeader(http.StatusNoContent)
}

type serviceRequest struct {
	Type             models.ServiceType   `json:"type"`
	MileageAtService int                  `json:"mileage_at_service"`
	Cost             float64              `json:"cost"`
	Date             string               `json:"date"`
	Notes            string               `json:"notes"`
	Parts            []string             `json:"parts"`
	Status           models.ServiceStatus `json:"status"`
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// AddService records a service on a vehicle. Status defaults to completed.
func (h *GarageHandler) AddService(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req serviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Status == "" {
		req.Status = models.StatusCompleted
	}
	switch {
	case !models.IsValidServiceType(req.Type):
		writeError(w, http.StatusBadRequest, "invalid service type")
		return
	case !models.IsValidServiceStatus(req.Status):
		writeError(w, http.StatusBadRequest, "invalid service status")
		return
	case req.MileageAtService < 0:
		writeError(w, http.StatusBadRequest, "mileage cannot be negative")
		return
	case req.Cost < 0:
		writeError(w, http.StatusBadRequest, "cost cannot be negative")
		return
	}

	// calendar days are stored as UTC midnight
	y, m, d := h.now().Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		date = parsed
	}

	rec := models.ServiceRecord{
		Type:             req.Type,
		MileageAtService: req.MileageAtService,
		Cost:             req.Cost,
		Date:             date,
		Notes:            req.Notes,
		Parts:            req.Parts,
		Status:           req.Status,
	}
	if err := h.store.AddService(r.Context(), id, &rec); err != nil {
		writeStoreError(w, err, "add service")
		return
	}
	log.WithFields(log.Fields{"vehicle_id": id, "service_id": rec.ID, "type": rec.Type}).Info("Service recorded")
	writeJSON(w, http.StatusCreated, rec)
}

// UpdateServiceStatus moves a service on the workshop board. An empty status
// advances it to the next column.
func (h *GarageHandler) UpdateServiceStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Status models.ServiceStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := req.Status
	if status == "" {
		v, ok := h.loadVehicle(w, r)
		if !ok {
			return
		}
		var current models.ServiceStatus
		found := false
		for _, s := range v.Services {
			if s.ID == vars["serviceID"] {
				current, found = s.Status, true
				break
			}
		}
		if !found {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		if status = models.NextStatus(current); status == "" {
			writeError(w, http.StatusConflict, "service is already completed")
			return
		}
	}
	if !models.IsValidServiceStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid service status")
		return
	}

	if err := h.store.UpdateServiceStatus(r.Context(), vars["id"], vars["serviceID"], status); err != nil {
		writeStoreError(w, err, "update service")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": vars["serviceID"], "status": string(status)})
}

type fuelLogRequest struct {
	Mileage int     `json:"mileage"`
	Liters  float64 `json:"liters"`
	Cost    float64 `json:"cost"`
	Date    string  `json:"date"`
}

// AddFuelLog records a refill. The vehicle mileage follows the highest reading.
func (h *GarageHandler) AddFuelLog(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req fuelLogRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch {
	case req.Mileage < 0:
		writeError(w, http.StatusBadRequest, "mileage cannot be negative")
		return
	case req.Liters <= 0:
		writeError(w, http.StatusBadRequest, "liters must be positive")
		return
	case req.Cost < 0:
		writeError(w, http.StatusBadRequest, "cost cannot be negative")
		return
	}

	date := h.now().UTC()
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD or RFC 3339")
			return
		}
		date = parsed
	}

	entry := models.FuelLogEntry{Mileage: req.Mileage, Liters: req.Liters, Cost: req.Cost, Date: date}
	if err := h.store.AddFuelLog(r.Context(), id, &entry); err != nil {
		writeStoreError(w, err, "add fuel log")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *GarageHandler) loadVehicle(w http.ResponseWriter, r *http.Request) (*models.Vehicle, bool) {
	v, err := h.store.FindVehicleByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, err, "load vehicle")
		return nil, false
	}
	return v, true
}
