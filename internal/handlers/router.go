package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ukydev/garage-ops/internal/metrics"
	"github.com/ukydev/garage-ops/internal/middleware"
	"github.com/ukydev/garage-ops/internal/models"
)

// login attempts allowed per client per minute
const loginRateLimit = 10

// NewRouter wires every API route. rec may be nil, in which case /metrics is not served.
func NewRouter(garage *GarageHandler, accounts *AuthHandler, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware, rec *metrics.Recorder) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger)
	if rec != nil {
		r.Use(rec.Middleware)
		r.Handle("/metrics", rec.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	guard := func(permission string, fn http.HandlerFunc) http.Handler {
		return authMW.RequirePermission(permission)(fn)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMW.Authenticate)

	api.Handle("/auth/login", limiter.RateLimit(loginRateLimit, time.Minute)(http.HandlerFunc(accounts.Login))).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", accounts.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", accounts.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", accounts.GetProfile).Methods(http.MethodGet)
	api.HandleFunc("/auth/me", accounts.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/auth/password", accounts.ChangePassword).Methods(http.MethodPost)
	api.Handle("/users", authMW.RequireRole(models.RoleAdmin)(http.HandlerFunc(accounts.ListUsers))).Methods(http.MethodGet)

	api.Handle("/vehicles", guard(models.PermViewVehicles, garage.ListVehicles)).Methods(http.MethodGet)
	api.Handle("/vehicles", guard(models.PermManageVehicles, garage.CreateVehicle)).Methods(http.MethodPost)
	api.Handle("/vehicles/{id}", guard(models.PermViewVehicles, garage.GetVehicle)).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}", guard(models.PermManageVehicles, garage.UpdateVehicle)).Methods(http.MethodPut)
	api.Handle("/vehicles/{id}", guard(models.PermManageVehicles, garage.DeleteVehicle)).Methods(http.MethodDelete)
	api.Handle("/vehicles/{id}/services", guard(models.PermManageVehicles, garage.AddService)).Methods(http.MethodPost)
	api.Handle("/vehicles/{id}/services.csv", guard(models.PermViewVehicles, garage.ServicesCSV)).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/services/{serviceID}", guard(models.PermManageVehicles, garage.UpdateServiceStatus)).Methods(http.MethodPatch)
	api.Handle("/vehicles/{id}/fuel-logs", guard(models.PermManageVehicles, garage.AddFuelLog)).Methods(http.MethodPost)

	api.Handle("/vehicles/{id}/fuel-efficiency", guard(models.PermViewAnalytics, garage.FuelEfficiency)).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/prediction", guard(models.PermViewAnalytics, garage.Prediction)).Methods(http.MethodGet)
	api.Handle("/vehicles/{id}/rank", guard(models.PermViewAnalytics, garage.Rank)).Methods(http.MethodGet)
	api.Handle("/trips/simulate", guard(models.PermViewAnalytics, garage.SimulateTrip)).Methods(http.MethodPost)
	api.Handle("/fleet/summary", guard(models.PermViewAnalytics, garage.FleetSummary)).Methods(http.MethodGet)
	api.Handle("/alerts", guard(models.PermViewAnalytics, garage.Alerts)).Methods(http.MethodGet)

	api.Handle("/parts", guard(models.PermViewInventory, garage.ListParts)).Methods(http.MethodGet)
	api.Handle("/parts", guard(models.PermManageInventory, garage.CreatePart)).Methods(http.MethodPost)
	api.Handle("/parts.csv", guard(models.PermViewInventory, garage.PartsCSV)).Methods(http.MethodGet)
	api.Handle("/parts/{id}/stock", guard(models.PermManageInventory, garage.AdjustStock)).Methods(http.MethodPatch)
	api.Handle("/parts/{id}", guard(models.PermManageInventory, garage.DeletePart)).Methods(http.MethodDelete)
	api.Handle("/templates", guard(models.PermViewInventory, garage.ListTemplates)).Methods(http.MethodGet)
	api.Handle("/templates", guard(models.PermManageInventory, garage.CreateTemplate)).Methods(http.MethodPost)
	api.Handle("/templates/{id}", guard(models.PermManageInventory, garage.DeleteTemplate)).Methods(http.MethodDelete)

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
