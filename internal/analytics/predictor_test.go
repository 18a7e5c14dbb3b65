package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/garage-ops/internal/models"
)

var (
	today = time.Date(2026, 1, 1, 9, 30, 0, 0, time.UTC)
	day0  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func serviceAt(kind models.ServiceType, mileage int, day int, cost float64) models.ServiceRecord {
	return models.ServiceRecord{
		ID:               fmt.Sprintf("%s-%d", kind, day),
		Type:             kind,
		MileageAtService: mileage,
		Cost:             cost,
		Date:             day0.AddDate(0, 0, day),
		Status:           models.StatusCompleted,
	}
}

func TestPredictNextService_ReferenceCase(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 1000}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceGeneral, 0, 0, 0),
		serviceAt(models.ServiceOilChange, 1000, 10, 0),
	}

	p := PredictNextService(car, services, DefaultPolicy(), today)

	require.NotNil(t, p)
	assert.InDelta(t, 100.0, p.AvgKmPerDay, 1e-9)
	assert.Equal(t, 11000, p.NextServiceKm)
	assert.Equal(t, 10000, p.RemainingKm)
	assert.InDelta(t, 100.0, p.DaysUntilDue, 1e-9)
	assert.Equal(t, today.AddDate(0, 0, 100), p.Date)
	assert.Equal(t, 40, p.Confidence)
	assert.False(t, p.Overdue())
}

func TestPredictNextService_MotorcycleInterval(t *testing.T) {
	moto := &models.Vehicle{Category: models.CategoryMotorcycle, Mileage: 3000}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceOilChange, 1000, 0, 0),
		serviceAt(models.ServiceOilChange, 3000, 20, 0),
	}

	p := PredictNextService(moto, services, DefaultPolicy(), today)

	require.NotNil(t, p)
	assert.Equal(t, 8000, p.NextServiceKm)
	assert.Equal(t, today.AddDate(0, 0, 50), p.Date)
}

func TestPredictNextService_Overdue(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 12000}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceGeneral, 0, 0, 0),
		serviceAt(models.ServiceOilChange, 1000, 10, 0),
	}

	p := PredictNextService(car, services, DefaultPolicy(), today)

	require.NotNil(t, p)
	assert.True(t, p.Overdue())
	assert.Equal(t, -1000, p.RemainingKm)
	assert.InDelta(t, -10.0, p.DaysUntilDue, 1e-9)
	assert.True(t, p.Date.Before(today))
	assert.Equal(t, today.AddDate(0, 0, -10), p.Date)
}

func TestPredictNextService_OverdueByLessThanADay(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 11050}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceGeneral, 0, 0, 0),
		serviceAt(models.ServiceOilChange, 1000, 10, 0),
	}

	p := PredictNextService(car, services, DefaultPolicy(), today)

	require.NotNil(t, p)
	assert.True(t, p.Overdue())
	assert.Equal(t, -50, p.RemainingKm)
	assert.InDelta(t, -0.5, p.DaysUntilDue, 1e-9)
	assert.True(t, p.Date.Before(today), "overdue date %v must precede %v", p.Date, today)
	assert.Equal(t, today.AddDate(0, 0, -1), p.Date)
}

func TestPredictNextService_SortsByDate(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 1000}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceOilChange, 1000, 10, 0),
		serviceAt(models.ServiceBrakes, 500, 5, 0),
		serviceAt(models.ServiceGeneral, 0, 0, 0),
	}

	p := PredictNextService(car, services, DefaultPolicy(), today)

	require.NotNil(t, p)
	assert.InDelta(t, 100.0, p.AvgKmPerDay, 1e-9)
	assert.Equal(t, 60, p.Confidence)
	assert.Equal(t, 1000, services[0].MileageAtService, "input must not be reordered")
}

func TestPredictNextService_InsufficientData(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 5000}
	undated := serviceAt(models.ServiceGeneral, 2000, 0, 0)
	undated.Date = time.Time{}
	negative := serviceAt(models.ServiceGeneral, -1, 3, 0)

	tests := []struct {
		name     string
		vehicle  *models.Vehicle
		services []models.ServiceRecord
	}{
		{"nil vehicle", nil, []models.ServiceRecord{serviceAt(models.ServiceGeneral, 0, 0, 0), serviceAt(models.ServiceGeneral, 1000, 10, 0)}},
		{"no services", car, nil},
		{"single service", car, []models.ServiceRecord{serviceAt(models.ServiceGeneral, 1000, 10, 0)}},
		{"one valid after filtering", car, []models.ServiceRecord{undated, negative, serviceAt(models.ServiceGeneral, 1000, 10, 0)}},
		{"same day", car, []models.ServiceRecord{serviceAt(models.ServiceGeneral, 0, 4, 0), serviceAt(models.ServiceGeneral, 1000, 4, 0)}},
		{"no distance", car, []models.ServiceRecord{serviceAt(models.ServiceGeneral, 1000, 0, 0), serviceAt(models.ServiceGeneral, 1000, 10, 0)}},
		{"odometer went backwards", car, []models.ServiceRecord{serviceAt(models.ServiceGeneral, 2000, 0, 0), serviceAt(models.ServiceGeneral, 1000, 10, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, PredictNextService(tt.vehicle, tt.services, DefaultPolicy(), today))
		})
	}
}

func TestPredictNextService_Idempotent(t *testing.T) {
	car := &models.Vehicle{Category: models.CategoryCar, Mileage: 7321}
	services := []models.ServiceRecord{
		serviceAt(models.ServiceOilChange, 5230, 97, 0),
		serviceAt(models.ServiceGeneral, 120, 0, 0),
		serviceAt(models.ServiceBrakes, 3377, 61, 0),
	}

	first := PredictNextService(car, services, DefaultPolicy(), today)
	second := PredictNextService(car, services, DefaultPolicy(), today)

	require.NotNil(t, first)
	assert.Equal(t, *first, *second)
}

func TestPolicy_Confidence(t *testing.T) {
	p := DefaultPolicy()
	expected := []int{20, 40, 60, 80, 100, 100}
	for n := 1; n <= 6; n++ {
		assert.Equal(t, expected[n-1], p.Confidence(n), "records=%d", n)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 10, DaysBetween(day0, day0.AddDate(0, 0, 10)))
	assert.Equal(t, 9, DaysBetween(day0, day0.AddDate(0, 0, 10).Add(-time.Hour)))
	assert.Equal(t, -3, DaysBetween(day0.AddDate(0, 0, 3), day0))
}

func TestAddDays(t *testing.T) {
	assert.Equal(t, day0.AddDate(0, 0, 2), AddDays(day0, 2.9))
	assert.Equal(t, day0.AddDate(0, 0, -2), AddDays(day0, -1.9))
	assert.Equal(t, day0.AddDate(0, 0, -1), AddDays(day0, -0.2))
	assert.Equal(t, day0.AddDate(0, 0, -3), AddDays(day0, -3))
	assert.Equal(t, day0, AddDays(day0, 0.4))
}
