package models

import (
	"time"
)

// ServiceType is the maintenance category of a service record.
type ServiceType string

const (
	ServiceOilChange  ServiceType = "oil_change"
	ServiceBrakes     ServiceType = "brakes"
	ServiceTires      ServiceType = "tires"
	ServiceBattery    ServiceType = "battery"
	ServiceSuspension ServiceType = "suspension"
	ServiceGeneral    ServiceType = "general"
	ServiceOther      ServiceType = "other"
)

// ServiceStatus tracks a service through the workshop board.
type ServiceStatus string

const (
	StatusScheduled  ServiceStatus = "scheduled"
	StatusInProgress ServiceStatus = "in_progress"
	StatusCompleted  ServiceStatus = "completed"
)

// IsValidServiceType checks if a service type is known
func IsValidServiceType(t ServiceType) bool {
	switch t {
	case ServiceOilChange, ServiceBrakes, ServiceTires, ServiceBattery,
		ServiceSuspension, ServiceGeneral, ServiceOther:
		return true
	default:
		return false
	}
}

// IsValidServiceStatus checks if a status is known
func IsValidServiceStatus(s ServiceStatus) bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// NextStatus returns the board column after s, or "" once completed.
func NextStatus(s ServiceStatus) ServiceStatus {
	switch s {
	case StatusScheduled:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return ""
	}
}

// ServiceRecord represents one maintenance action performed on a vehicle.
type ServiceRecord struct {
	ID               string        `bson:"id" json:"id"`
	Type             ServiceType   `bson:"type" json:"type"`
	MileageAtService int           `bson:"mileage_at_service" json:"mileage_at_service"` // in kilometers
	Cost             float64       `bson:"cost" json:"cost"`
	Date             time.Time     `bson:"date" json:"date"`
	Notes            string        `bson:"notes" json:"notes,omitempty"`
	Parts            []string      `bson:"parts" json:"parts,omitempty"`
	Status           ServiceStatus `bson:"status" json:"status"`
}
