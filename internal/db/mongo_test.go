package db

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/garage-ops/internal/models"
)

func TestConnectMongo_BadURI(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestMongoStore_NilCollections(t *testing.T) {
	ctx := context.Background()
	store := &MongoStore{}

	assert.Error(t, store.InsertVehicle(ctx, &models.Vehicle{}))
	_, err := store.FindVehicles(ctx)
	assert.Error(t, err)
	_, err = store.AdjustStock(ctx, newMongoID(), 1)
	assert.Error(t, err)
	assert.Error(t, store.InsertTemplate(ctx, &models.ServiceTemplate{}))
	assert.NoError(t, store.Close(ctx))

	users := &MongoUserCollection{}
	assert.Error(t, users.InsertUser(ctx, &models.User{}))
}

func TestMongoStore_RejectsMalformedIDs(t *testing.T) {
	ctx := context.Background()
	// Connect is lazy, so no server is needed for the ID checks to run.
	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	defer client.Disconnect(ctx)
	store := NewMongoStore(client, client.Database("garage_test"))
	users := &MongoUserCollection{Collection: client.Database("garage_test").Collection("users")}

	_, err = store.FindVehicleByID(ctx, "not-an-object-id")
	assert.ErrorIs(t, err, ErrInvalidID)
	assert.ErrorIs(t, store.DeleteVehicle(ctx, "42"), ErrInvalidID)
	assert.ErrorIs(t, store.AddService(ctx, "42", &models.ServiceRecord{}), ErrInvalidID)
	_, err = users.FindUserByID(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidID)
}

// startMongo runs a throwaway MongoDB container. Set DOCKER_AVAILABLE=1 to enable.
func startMongo(t *testing.T) *MongoStore {
	t.Helper()
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := ConnectMongo(ctx, fmt.Sprintf("mongodb://%s:%s", host, port.Port()))
	require.NoError(t, err)
	store := NewMongoStore(client, client.Database("garage_test"))
	t.Cleanup(func() { store.Close(context.Background()) })
	return store
}

func TestMongoStore_Integration(t *testing.T) {
	store := startMongo(t)
	ctx := context.Background()

	v := &models.Vehicle{Category: models.CategoryMotorcycle, Brand: "Honda", Model: "CB500", Mileage: 12000}
	require.NoError(t, store.InsertVehicle(ctx, v))
	require.True(t, len(v.ID) == 24)

	svc := &models.ServiceRecord{Type: models.ServiceOilChange, MileageAtService: 10000, Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Status: models.StatusScheduled}
	require.NoError(t, store.AddService(ctx, v.ID, svc))
	require.NoError(t, store.UpdateServiceStatus(ctx, v.ID, svc.ID, models.StatusCompleted))
	require.NoError(t, store.AddFuelLog(ctx, v.ID, &models.FuelLogEntry{Mileage: 12500, Liters: 12, Date: time.Now()}))

	found, err := store.FindVehicleByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 12500, found.Mileage)
	require.Len(t, found.Services, 1)
	assert.Equal(t, models.StatusCompleted, found.Services[0].Status)
	assert.Len(t, found.FuelLogs, 1)

	part := &models.Part{Name: "Chain kit", Stock: 2}
	require.NoError(t, store.InsertPart(ctx, part))
	adjusted, err := store.AdjustStock(ctx, part.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, adjusted.Stock)

	require.NoError(t, store.DeleteVehicle(ctx, v.ID))
	_, err = store.FindVehicleByID(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
