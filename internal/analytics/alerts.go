package analytics

import (
	"fmt"
	"time"

	"github.com/ukydev/garage-ops/internal/models"
)

// BuildAlerts derives the notification list from the current garage state:
// low stock parts, vehicles at or near their oil change odometer, and services
// dated today that are not completed. Vehicles without a recorded oil change
// never raise a service alert.
func BuildAlerts(vehicles []models.Vehicle, parts []models.Part, policy Policy, now time.Time) []models.Notification {
	alerts := make([]models.Notification, 0)

	for _, p := range parts {
		if p.Stock > policy.LowStockThreshold {
			continue
		}
		alerts = append(alerts, models.Notification{
			ID:        "inv-" + p.ID,
			Level:     models.LevelWarning,
			Title:     "Low stock",
			Message:   fmt.Sprintf("%s has only %d units left.", p.Name, p.Stock),
			Link:      "/inventory",
			CreatedAt: now,
		})
	}

	for i := range vehicles {
		v := &vehicles[i]
		oc := LastOilChange(v.Services)
		if oc == nil {
			continue
		}
		next := policy.NextServiceOdometer(v.Category, oc.MileageAtService)
		switch {
		case v.Mileage >= next:
			alerts = append(alerts, models.Notification{
				ID:        "veh-" + v.ID + "-service",
				Level:     models.LevelDanger,
				Title:     "Service overdue",
				Message:   fmt.Sprintf("%s needs maintenance: %d km past the %d km mark.", v.DisplayName(), v.Mileage-next, next),
				Link:      "/garage",
				VehicleID: v.ID,
				CreatedAt: now,
			})
		case v.Mileage >= next-policy.DueSoonWindowKm:
			alerts = append(alerts, models.Notification{
				ID:        "veh-" + v.ID + "-soon",
				Level:     models.LevelWarning,
				Title:     "Service due soon",
				Message:   fmt.Sprintf("%s is %d km away from its next service.", v.DisplayName(), next-v.Mileage),
				Link:      "/garage",
				VehicleID: v.ID,
				CreatedAt: now,
			})
		}
	}

	for i := range vehicles {
		v := &vehicles[i]
		for _, s := range v.Services {
			if s.Status == models.StatusCompleted || !sameDay(s.Date, now) {
				continue
			}
			alerts = append(alerts, models.Notification{
				ID:        "sch-" + s.ID,
				Level:     models.LevelInfo,
				Title:     "Scheduled today",
				Message:   fmt.Sprintf("%s scheduled for %s.", s.Type, v.DisplayName()),
				Link:      "/schedule",
				VehicleID: v.ID,
				CreatedAt: now,
			})
		}
	}

	return alerts
}
