package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/garage-ops/internal/db"
	"github.com/ukydev/garage-ops/internal/models"
)

// MockUserCollection is a mock implementation of UserCollection
type MockUserCollection struct {
	mock.Mock
}

var _ db.UserCollection = (*MockUserCollection)(nil)

func (m *MockUserCollection) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserCollection) UpdateUser(ctx context.Context, id string, user models.User) error {
	args := m.Called(ctx, id, user)
	return args.Error(0)
}

func (m *MockUserCollection) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGarageStore is a mock implementation of GarageStore
type MockGarageStore struct {
	mock.Mock
}

var _ db.GarageStore = (*MockGarageStore)(nil)

func (m *MockGarageStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	return m.Called(ctx, v).Error(0)
}

func (m *MockGarageStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockGarageStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vehicle), args.Error(1)
}

func (m *MockGarageStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	return m.Called(ctx, id, v).Error(0)
}

func (m *MockGarageStore) DeleteVehicle(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGarageStore) AddService(ctx context.Context, vehicleID string, s *models.ServiceRecord) error {
	return m.Called(ctx, vehicleID, s).Error(0)
}

func (m *MockGarageStore) UpdateServiceStatus(ctx context.Context, vehicleID, serviceID string, status models.ServiceStatus) error {
	return m.Called(ctx, vehicleID, serviceID, status).Error(0)
}

func (m *MockGarageStore) AddFuelLog(ctx context.Context, vehicleID string, e *models.FuelLogEntry) error {
	return m.Called(ctx, vehicleID, e).Error(0)
}

func (m *MockGarageStore) InsertPart(ctx context.Context, p *models.Part) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockGarageStore) FindParts(ctx context.Context) ([]models.Part, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Part), args.Error(1)
}

func (m *MockGarageStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Part, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Part), args.Error(1)
}

func (m *MockGarageStore) DeletePart(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGarageStore) InsertTemplate(ctx context.Context, t *models.ServiceTemplate) error {
	return m.Called(ctx, t).Error(0)
}

func (m *MockGarageStore) FindTemplates(ctx context.Context) ([]models.ServiceTemplate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ServiceTemplate), args.Error(1)
}

func (m *MockGarageStore) DeleteTemplate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGarageStore) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
