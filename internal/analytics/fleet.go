package analytics

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ukydev/garage-ops/internal/models"
)

// summaryMonths is how many calendar months, including the current one, the
// cost chart covers.
const summaryMonths = 6

// CostPerKm is the vehicle's total service spend divided by its odometer.
// It is 0 when the vehicle is nil or has no mileage.
func CostPerKm(v *models.Vehicle) float64 {
	if v == nil || v.Mileage <= 0 {
		return 0
	}
	var total float64
	for _, s := range v.Services {
		total += s.Cost
	}
	return total / float64(v.Mileage)
}

// MonthlyCost is the service spend of one calendar month, keyed "2006-01".
type MonthlyCost struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// FleetSummary aggregates the dashboard figures over all vehicles.
type FleetSummary struct {
	VehicleCount  int                            `json:"vehicle_count"`
	TotalCost     float64                        `json:"total_cost"`
	TotalKm       int                            `json:"total_km"`
	TotalServices int                            `json:"total_services"`
	AvgCostPerKm  float64                        `json:"avg_cost_per_km"`
	CostByMonth   []MonthlyCost                  `json:"cost_by_month"`
	CostByType    map[models.ServiceType]float64 `json:"cost_by_type"`
}

// SummarizeFleet totals mileage and service spend, and buckets spend into the
// last six calendar months ending at now. Services outside that window count
// toward the totals only.
func SummarizeFleet(vehicles []models.Vehicle, now time.Time) FleetSummary {
	summary := FleetSummary{
		VehicleCount: len(vehicles),
		CostByMonth:  make([]MonthlyCost, summaryMonths),
		CostByType:   make(map[models.ServiceType]float64),
	}

	index := make(map[string]int, summaryMonths)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < summaryMonths; i++ {
		key := firstOfMonth.AddDate(0, i-summaryMonths+1, 0).Format("2006-01")
		summary.CostByMonth[i] = MonthlyCost{Month: key}
		index[key] = i
	}

	perKm := make([]float64, 0, len(vehicles))
	for i := range vehicles {
		v := &vehicles[i]
		summary.TotalKm += v.Mileage
		summary.TotalServices += len(v.Services)
		for _, s := range v.Services {
			summary.TotalCost += s.Cost
			summary.CostByType[s.Type] += s.Cost
			if pos, ok := index[monthKey(s.Date)]; ok {
				summary.CostByMonth[pos].Amount += s.Cost
			}
		}
		if v.Mileage > 0 {
			perKm = append(perKm, CostPerKm(v))
		}
	}
	if len(perKm) > 0 {
		summary.AvgCostPerKm = stat.Mean(perKm, nil)
	}
	return summary
}
