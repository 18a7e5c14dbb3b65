package models

import "time"

// AlertLevel ranks a notification.
type AlertLevel string

const (
	LevelInfo    AlertLevel = "info"
	LevelWarning AlertLevel = "warning"
	LevelDanger  AlertLevel = "danger"
)

// Notification is an alert derived from garage state. It is never persisted.
type Notification struct {
	ID        string     `json:"id"`
	Level     AlertLevel `json:"level"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Link      string     `json:"link"`
	VehicleID string     `json:"vehicle_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
