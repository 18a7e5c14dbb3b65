package analytics

import (
	"sort"
	"time"

	"github.com/ukydev/garage-ops/internal/models"
)

// Prediction forecasts when a vehicle reaches its next service odometer.
// Date lies in the past when the service is already overdue.
type Prediction struct {
	Date          time.Time `json:"date"`
	Confidence    int       `json:"confidence"`
	AvgKmPerDay   float64   `json:"avg_km_per_day"`
	NextServiceKm int       `json:"next_service_km"`
	RemainingKm   int       `json:"remaining_km"`
	DaysUntilDue  float64   `json:"days_until_due"`
}

// Overdue reports whether the vehicle already passed its service odometer.
func (p *Prediction) Overdue() bool {
	return p.RemainingKm < 0
}

// PredictNextService extrapolates the usage rate between the oldest and newest
// dated service records to the next interval boundary. It returns nil when
// fewer than policy.MinRecords usable records exist or when the records do not
// show forward progress in both time and distance.
func PredictNextService(v *models.Vehicle, services []models.ServiceRecord, policy Policy, now time.Time) *Prediction {
	if v == nil {
		return nil
	}

	valid := make([]models.ServiceRecord, 0, len(services))
	for _, s := range services {
		if s.MileageAtService < 0 || s.Date.IsZero() {
			continue
		}
		valid = append(valid, s)
	}
	if len(valid) < policy.MinRecords {
		return nil
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Date.Before(valid[j].Date)
	})

	first, last := valid[0], valid[len(valid)-1]
	deltaKm := last.MileageAtService - first.MileageAtService
	deltaDays := DaysBetween(first.Date, last.Date)
	if deltaDays <= 0 || deltaKm <= 0 {
		return nil
	}

	avgKmPerDay := float64(deltaKm) / float64(deltaDays)
	next := policy.NextServiceOdometer(v.Category, last.MileageAtService)
	remaining := next - v.Mileage
	daysLeft := float64(remaining) / avgKmPerDay

	return &Prediction{
		Date:          AddDays(now, daysLeft),
		Confidence:    policy.Confidence(len(valid)),
		AvgKmPerDay:   avgKmPerDay,
		NextServiceKm: next,
		RemainingKm:   remaining,
		DaysUntilDue:  daysLeft,
	}
}
