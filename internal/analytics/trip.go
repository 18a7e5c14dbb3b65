package analytics

import (
	"math"

	"github.com/ukydev/garage-ops/internal/models"
)

// TripSimulation projects the maintenance and cost impact of a planned trip.
// Oil life is a linear 0-100 gauge: 100 right after an oil change, 0 at the
// service interval.
type TripSimulation struct {
	DistanceKm           float64 `json:"distance_km"`
	ProjectedMileage     float64 `json:"projected_mileage"`
	CostPerKm            float64 `json:"cost_per_km"`
	EstimatedCost        float64 `json:"estimated_cost"`
	ServiceDueDuringTrip bool    `json:"service_due_during_trip"`
	LastServiceKm        int     `json:"last_service_km"`
	NextServiceKm        int     `json:"next_service_km"`
	RemainingBeforeKm    float64 `json:"remaining_before_km"`
	RemainingAfterKm     float64 `json:"remaining_after_km"`
	OilLifeBefore        float64 `json:"oil_life_before"`
	OilLifeAfter         float64 `json:"oil_life_after"`
}

// SimulateTrip returns nil when there is no vehicle or the distance is not positive.
func SimulateTrip(v *models.Vehicle, distanceKm float64, policy Policy) *TripSimulation {
	if v == nil || !(distanceKm > 0) {
		return nil
	}

	current := float64(v.Mileage)
	projected := current + distanceKm

	costPerKm := CostPerKm(v)
	if costPerKm == 0 {
		costPerKm = policy.For(v.Category).DefaultCostPerKm
	}

	lastServiceKm := 0
	if oc := LastOilChange(v.Services); oc != nil {
		lastServiceKm = oc.MileageAtService
	}
	interval := float64(policy.Interval(v.Category))
	next := policy.NextServiceOdometer(v.Category, lastServiceKm)
	sinceService := current - float64(lastServiceKm)

	return &TripSimulation{
		DistanceKm:           distanceKm,
		ProjectedMileage:     projected,
		CostPerKm:            costPerKm,
		EstimatedCost:        distanceKm * costPerKm,
		ServiceDueDuringTrip: projected >= float64(next),
		LastServiceKm:        lastServiceKm,
		NextServiceKm:        next,
		RemainingBeforeKm:    float64(next) - current,
		RemainingAfterKm:     float64(next) - projected,
		OilLifeBefore:        clampPercent(100 - sinceService/interval*100),
		OilLifeAfter:         clampPercent(100 - (sinceService+distanceKm)/interval*100),
	}
}

// LastOilChange returns the most recent oil change by date, breaking ties on
// the higher odometer reading, or nil if none was recorded.
func LastOilChange(services []models.ServiceRecord) *models.ServiceRecord {
	var latest *models.ServiceRecord
	for i := range services {
		s := &services[i]
		if s.Type != models.ServiceOilChange {
			continue
		}
		if latest == nil || s.Date.After(latest.Date) ||
			(s.Date.Equal(latest.Date) && s.MileageAtService > latest.MileageAtService) {
			latest = s
		}
	}
	return latest
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
