package models

import (
	"time"
)

// Part is an inventory item kept in the garage.
type Part struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Category  string    `bson:"category" json:"category"`
	SKU       string    `bson:"sku" json:"sku"`
	Stock     int       `bson:"stock" json:"stock"`
	UnitCost  float64   `bson:"unit_cost" json:"unit_cost"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ServiceTemplate is a reusable service preset listing the parts it consumes.
type ServiceTemplate struct {
	ID            string      `bson:"_id,omitempty" json:"id"`
	Name          string      `bson:"name" json:"name"`
	ServiceType   ServiceType `bson:"service_type" json:"service_type"`
	Parts         []string    `bson:"parts" json:"parts"`
	EstimatedCost float64     `bson:"estimated_cost" json:"estimated_cost"`
	CreatedAt     time.Time   `bson:"created_at" json:"created_at"`
}

// StockAdjustment is the body of a stock change request.
type StockAdjustment struct {
	Delta int `json:"delta"`
}
