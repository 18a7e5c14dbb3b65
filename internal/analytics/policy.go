package analytics

import (
	"fmt"

	"github.com/ukydev/garage-ops/internal/models"
)

// CategoryPolicy holds the tunable constants for one vehicle category.
type CategoryPolicy struct {
	ServiceIntervalKm int     `json:"service_interval_km"`
	DefaultCostPerKm  float64 `json:"default_cost_per_km"`
	EfficiencyGood    float64 `json:"efficiency_good"` // km/L at or above which consumption is efficient
	EfficiencyBad     float64 `json:"efficiency_bad"`  // km/L at or below which consumption is high
}

// Policy parameterizes every heuristic in this package.
type Policy struct {
	Car                 CategoryPolicy `json:"car"`
	Motorcycle          CategoryPolicy `json:"motorcycle"`
	ConfidencePerRecord int            `json:"confidence_per_record"`
	MaxConfidence       int            `json:"max_confidence"`
	MinRecords          int            `json:"min_records"`
	DueSoonWindowKm     int            `json:"due_soon_window_km"`
	LowStockThreshold   int            `json:"low_stock_threshold"`
}

// DefaultPolicy returns the reference constants.
func DefaultPolicy() Policy {
	return Policy{
		Car: CategoryPolicy{
			ServiceIntervalKm: 10000,
			DefaultCostPerKm:  1.5,
			EfficiencyGood:    12,
			EfficiencyBad:     8,
		},
		Motorcycle: CategoryPolicy{
			ServiceIntervalKm: 5000,
			DefaultCostPerKm:  0.8,
			EfficiencyGood:    30,
			EfficiencyBad:     20,
		},
		ConfidencePerRecord: 20,
		MaxConfidence:       100,
		MinRecords:          2,
		DueSoonWindowKm:     500,
		LowStockThreshold:   3,
	}
}

// For returns the policy of a category. Unknown categories are treated as cars.
func (p Policy) For(c models.VehicleCategory) CategoryPolicy {
	if c == models.CategoryMotorcycle {
		return p.Motorcycle
	}
	return p.Car
}

// Interval is the service interval in kilometers for a category.
func (p Policy) Interval(c models.VehicleCategory) int {
	return p.For(c).ServiceIntervalKm
}

// NextServiceOdometer is the odometer reading at which the next service falls due.
func (p Policy) NextServiceOdometer(c models.VehicleCategory, lastServiceKm int) int {
	return lastServiceKm + p.Interval(c)
}

// Confidence scores how much history backs a prediction, saturating at MaxConfidence.
func (p Policy) Confidence(records int) int {
	score := records * p.ConfidencePerRecord
	if score > p.MaxConfidence {
		return p.MaxConfidence
	}
	return score
}

// Validate rejects policies that would make the heuristics meaningless.
func (p Policy) Validate() error {
	for name, cp := range map[string]CategoryPolicy{"car": p.Car, "motorcycle": p.Motorcycle} {
		if cp.ServiceIntervalKm <= 0 {
			return fmt.Errorf("%s: service interval must be positive, got %d", name, cp.ServiceIntervalKm)
		}
		if cp.DefaultCostPerKm < 0 {
			return fmt.Errorf("%s: default cost per km must not be negative", name)
		}
		if cp.EfficiencyBad > cp.EfficiencyGood {
			return fmt.Errorf("%s: efficiency_bad (%.1f) above efficiency_good (%.1f)", name, cp.EfficiencyBad, cp.EfficiencyGood)
		}
	}
	if p.ConfidencePerRecord <= 0 || p.MaxConfidence <= 0 {
		return fmt.Errorf("confidence settings must be positive")
	}
	if p.MinRecords < 2 {
		return fmt.Errorf("min_records must be at least 2, got %d", p.MinRecords)
	}
	if p.DueSoonWindowKm < 0 || p.LowStockThreshold < 0 {
		return fmt.Errorf("alert thresholds must not be negative")
	}
	return nil
}
