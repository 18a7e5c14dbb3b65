package analytics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ukydev/garage-ops/internal/models"
)

// FuelEfficiency is expressed in kilometers per liter.
type FuelEfficiency struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
}

// EfficiencyRating classifies a km/L figure against the category thresholds.
type EfficiencyRating string

const (
	RatingNoData          EfficiencyRating = "no_data"
	RatingEfficient       EfficiencyRating = "efficient"
	RatingRegular         EfficiencyRating = "regular"
	RatingHighConsumption EfficiencyRating = "high_consumption"
)

// EstimateFuelEfficiency computes km/L over consecutive refills sorted by
// odometer. Each segment uses the liters of the later refill. Segments whose
// distance or volume is not positive are skipped.
//
// Current is the efficiency of the final segment only: when that segment is
// skipped, Current stays 0 even if earlier segments were valid.
func EstimateFuelEfficiency(logs []models.FuelLogEntry) FuelEfficiency {
	if len(logs) < 2 {
		return FuelEfficiency{}
	}

	sorted := make([]models.FuelLogEntry, len(logs))
	copy(sorted, logs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Mileage < sorted[j].Mileage
	})

	var result FuelEfficiency
	efficiencies := make([]float64, 0, len(sorted)-1)
	last := len(sorted) - 1
	for i := 1; i < len(sorted); i++ {
		distance := float64(sorted[i].Mileage - sorted[i-1].Mileage)
		volume := sorted[i].Liters
		if distance <= 0 || volume <= 0 {
			continue
		}
		eff := distance / volume
		efficiencies = append(efficiencies, eff)
		if i == last {
			result.Current = eff
		}
	}

	if len(efficiencies) > 0 {
		result.Average = stat.Mean(efficiencies, nil)
	}
	return result
}

// Rate classifies kmPerLiter for the given category.
func (p Policy) Rate(c models.VehicleCategory, kmPerLiter float64) EfficiencyRating {
	if kmPerLiter == 0 {
		return RatingNoData
	}
	cp := p.For(c)
	switch {
	case kmPerLiter >= cp.EfficiencyGood:
		return RatingEfficient
	case kmPerLiter <= cp.EfficiencyBad:
		return RatingHighConsumption
	default:
		return RatingRegular
	}
}
