package db

import (
	"context"
	"errors"

	"github.com/ukydev/garage-ops/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicles(ctx context.Context) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	// UpdateVehicle replaces the profile fields. Services and fuel logs are left untouched.
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

// ServiceCollection defines the interface for service history operations.
type ServiceCollection interface {
	AddService(ctx context.Context, vehicleID string, service *models.ServiceRecord) error
	UpdateServiceStatus(ctx context.Context, vehicleID, serviceID string, status models.ServiceStatus) error
}

// FuelLogCollection defines the interface for fuel log operations.
type FuelLogCollection interface {
	// AddFuelLog appends the entry and raises the vehicle mileage to the
	// entry's odometer reading when that is higher.
	AddFuelLog(ctx context.Context, vehicleID string, entry *models.FuelLogEntry) error
}

// PartCollection defines the interface for inventory operations.
type PartCollection interface {
	InsertPart(ctx context.Context, part *models.Part) error
	FindParts(ctx context.Context) ([]models.Part, error)
	// AdjustStock adds delta to the stock, never going below zero.
	AdjustStock(ctx context.Context, id string, delta int) (*models.Part, error)
	DeletePart(ctx context.Context, id string) error
}

// TemplateCollection defines the interface for service template operations.
type TemplateCollection interface {
	InsertTemplate(ctx context.Context, tmpl *models.ServiceTemplate) error
	FindTemplates(ctx context.Context) ([]models.ServiceTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// GarageStore is everything the API needs from a storage backend.
type GarageStore interface {
	VehicleCollection
	ServiceCollection
	FuelLogCollection
	PartCollection
	TemplateCollection
	Close(ctx context.Context) error
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
}

var (
	_ GarageStore    = (*MongoStore)(nil)
	_ GarageStore    = (*SQLiteStore)(nil)
	_ UserCollection = (*MongoUserCollection)(nil)
	_ UserCollection = (*SQLiteUserCollection)(nil)
)
