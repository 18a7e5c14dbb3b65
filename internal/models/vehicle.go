package models

import (
	"time"
)

// VehicleCategory determines the maintenance interval and fuel thresholds applied to a vehicle.
type VehicleCategory string

const (
	CategoryCar        VehicleCategory = "car"
	CategoryMotorcycle VehicleCategory = "motorcycle"
)

// IsValidCategory checks if a category is known
func IsValidCategory(c VehicleCategory) bool {
	switch c {
	case CategoryCar, CategoryMotorcycle:
		return true
	default:
		return false
	}
}

// Vehicle represents a garage vehicle with its service and fuel history.
type Vehicle struct {
	ID        string          `bson:"_id,omitempty" json:"id"`
	Category  VehicleCategory `bson:"category" json:"category"`
	Brand     string          `bson:"brand" json:"brand"`
	Model     string          `bson:"model" json:"model"`
	Year      int             `bson:"year" json:"year"`
	Plate     string          `bson:"plate" json:"plate"`
	Mileage   int             `bson:"mileage" json:"mileage"` // in kilometers
	PhotoURL  string          `bson:"photo_url" json:"photo_url,omitempty"`
	Services  []ServiceRecord `bson:"services" json:"services"`
	FuelLogs  []FuelLogEntry  `bson:"fuel_logs" json:"fuel_logs"`
	CreatedAt time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}

// DisplayName returns "Brand Model".
func (v *Vehicle) DisplayName() string {
	if v.Model == "" {
		return v.Brand
	}
	return v.Brand + " " + v.Model
}

// FuelLogEntry is a single refill. Mileage is the odometer reading at the pump.
type FuelLogEntry struct {
	ID      string    `bson:"id" json:"id"`
	Mileage int       `bson:"mileage" json:"mileage"`
	Liters  float64   `bson:"liters" json:"liters"`
	Cost    float64   `bson:"cost" json:"cost"`
	Date    time.Time `bson:"date" json:"date"`
}
