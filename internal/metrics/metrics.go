// Package metrics exposes Prometheus collectors for the API and the analytics
// it serves.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ukydev/garage-ops/internal/models"
)

// Outcomes recorded for predictions and trip simulations.
const (
	OutcomePredicted    = "predicted"
	OutcomeInsufficient = "insufficient_data"
	OutcomeSimulated    = "simulated"
	OutcomeServiceDue   = "service_due"
	OutcomeSkipped      = "skipped"
)

// Recorder groups every collector the service registers.
type Recorder struct {
	gatherer prometheus.Gatherer

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	predictions   *prometheus.CounterVec
	trips         *prometheus.CounterVec
	alerts        *prometheus.GaugeVec
	notifications *prometheus.CounterVec
}

// NewRecorder registers the collectors on reg. A nil reg means a fresh
// registry. Collectors that are already registered are reused.
func NewRecorder(reg *prometheus.Registry) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Recorder{gatherer: reg}

	var err error
	if r.requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_http_requests_total",
		Help: "HTTP requests by method, route template and status code",
	}, []string{"method", "route", "status"})); err != nil {
		return nil, err
	}
	if r.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "garage_http_request_duration_seconds",
		Help:    "HTTP request latency by route template",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})); err != nil {
		return nil, err
	}
	if r.predictions, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_maintenance_predictions_total",
		Help: "Maintenance predictions served, by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if r.trips, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_trip_simulations_total",
		Help: "Trip simulations served, by outcome",
	}, []string{"outcome"})); err != nil {
		return nil, err
	}
	if r.alerts, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "garage_active_alerts",
		Help: "Alerts produced by the last sweep, by level",
	}, []string{"level"})); err != nil {
		return nil, err
	}
	if r.notifications, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "garage_notifications_published_total",
		Help: "Alert notifications handed to the publisher, by result",
	}, []string{"result"})); err != nil {
		return nil, err
	}
	return r, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// RecordPrediction counts one prediction request.
func (r *Recorder) RecordPrediction(predicted bool) {
	if predicted {
		r.predictions.WithLabelValues(OutcomePredicted).Inc()
		return
	}
	r.predictions.WithLabelValues(OutcomeInsufficient).Inc()
}

// RecordTrip counts one trip simulation request.
func (r *Recorder) RecordTrip(outcome string) {
	r.trips.WithLabelValues(outcome).Inc()
}

// RecordAlerts sets the alert gauge from the result of a sweep.
func (r *Recorder) RecordAlerts(alerts []models.Notification) {
	counts := map[models.AlertLevel]int{
		models.LevelInfo:    0,
		models.LevelWarning: 0,
		models.LevelDanger:  0,
	}
	for _, a := range alerts {
		counts[a.Level]++
	}
	for level, n := range counts {
		r.alerts.WithLabelValues(string(level)).Set(float64(n))
	}
}

// RecordPublish counts a notification hand-off.
func (r *Recorder) RecordPublish(err error) {
	if err != nil {
		r.notifications.WithLabelValues("error").Inc()
		return
	}
	r.notifications.WithLabelValues("ok").Inc()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and latency keyed by the mux route
// template, so path parameters do not explode label cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := "unmatched"
		if cur := mux.CurrentRoute(req); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		r.requests.WithLabelValues(req.Method, route, strconv.Itoa(rec.status)).Inc()
		r.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
