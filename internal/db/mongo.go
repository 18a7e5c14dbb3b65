package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/garage-ops/internal/models"
)

// ConnectMongo connects to MongoDB and pings it.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoStore keeps each vehicle as one document with its services and fuel
// logs embedded. Parts and templates live in their own collections.
type MongoStore struct {
	client    *mongo.Client
	Vehicles  *mongo.Collection
	Parts     *mongo.Collection
	Templates *mongo.Collection
}

// NewMongoStore binds the store to the collections of database.
func NewMongoStore(client *mongo.Client, database *mongo.Database) *MongoStore {
	return &MongoStore{
		client:    client,
		Vehicles:  database.Collection("vehicles"),
		Parts:     database.Collection("parts"),
		Templates: database.Collection("templates"),
	}
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func newMongoID() string {
	return primitive.NewObjectID().Hex()
}

func checkMongoID(id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func collectionReady(c *mongo.Collection) error {
	if c == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	return nil
}

// InsertVehicle inserts a vehicle record into the collection.
func (s *MongoStore) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	now := time.Now().UTC()
	vehicle.ID = newMongoID()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now
	// $push needs an array, not null
	if vehicle.Services == nil {
		vehicle.Services = []models.ServiceRecord{}
	}
	if vehicle.FuelLogs == nil {
		vehicle.FuelLogs = []models.FuelLogEntry{}
	}
	_, err := s.Vehicles.InsertOne(ctx, vehicle)
	return err
}

// FindVehicles returns every vehicle ordered by creation time.
func (s *MongoStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if err := collectionReady(s.Vehicles); err != nil {
		return nil, err
	}
	cursor, err := s.Vehicles.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	vehicles := make([]models.Vehicle, 0)
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID.
func (s *MongoStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if err := collectionReady(s.Vehicles); err != nil {
		return nil, err
	}
	if err := checkMongoID(id); err != nil {
		return nil, err
	}

	var vehicle models.Vehicle
	err := s.Vehicles.FindOne(ctx, bson.M{"_id": id}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicle updates the profile fields of a vehicle.
func (s *MongoStore) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	if err := checkMongoID(id); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"category":   vehicle.Category,
		"brand":      vehicle.Brand,
		"model":      vehicle.Model,
		"year":       vehicle.Year,
		"plate":      vehicle.Plate,
		"mileage":    vehicle.Mileage,
		"photo_url":  vehicle.PhotoURL,
		"updated_at": time.Now().UTC(),
	}}
	result, err := s.Vehicles.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteVehicle deletes a vehicle together with its history.
func (s *MongoStore) DeleteVehicle(ctx context.Context, id string) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	if err := checkMongoID(id); err != nil {
		return err
	}

	result, err := s.Vehicles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddService appends a service record to a vehicle.
func (s *MongoStore) AddService(ctx context.Context, vehicleID string, service *models.ServiceRecord) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	if err := checkMongoID(vehicleID); err != nil {
		return err
	}
	service.ID = newMongoID()

	update := bson.M{
		"$push": bson.M{"services": service},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.Vehicles.UpdateOne(ctx, bson.M{"_id": vehicleID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	return nil
}

// UpdateServiceStatus moves one embedded service to a new status.
func (s *MongoStore) UpdateServiceStatus(ctx context.Context, vehicleID, serviceID string, status models.ServiceStatus) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	if err := checkMongoID(vehicleID); err != nil {
		return err
	}

	result, err := s.Vehicles.UpdateOne(ctx,
		bson.M{"_id": vehicleID, "services.id": serviceID},
		bson.M{"$set": bson.M{"services.$.status": status, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("service %s on vehicle %s: %w", serviceID, vehicleID, ErrNotFound)
	}
	return nil
}

// AddFuelLog appends a fuel log and raises the vehicle mileage if needed.
func (s *MongoStore) AddFuelLog(ctx context.Context, vehicleID string, entry *models.FuelLogEntry) error {
	if err := collectionReady(s.Vehicles); err != nil {
		return err
	}
	if err := checkMongoID(vehicleID); err != nil {
		return err
	}
	entry.ID = newMongoID()

	update := bson.M{
		"$push": bson.M{"fuel_logs": entry},
		"$max":  bson.M{"mileage": entry.Mileage},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := s.Vehicles.UpdateOne(ctx, bson.M{"_id": vehicleID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID, ErrNotFound)
	}
	return nil
}

// InsertPart inserts an inventory item.
func (s *MongoStore) InsertPart(ctx context.Context, part *models.Part) error {
	if err := collectionReady(s.Parts); err != nil {
		return err
	}
	now := time.Now().UTC()
	part.ID = newMongoID()
	part.CreatedAt = now
	part.UpdatedAt = now
	if part.Stock < 0 {
		part.Stock = 0
	}
	_, err := s.Parts.InsertOne(ctx, part)
	return err
}

// FindParts returns the inventory ordered by name.
func (s *MongoStore) FindParts(ctx context.Context) ([]models.Part, error) {
	if err := collectionReady(s.Parts); err != nil {
		return nil, err
	}
	cursor, err := s.Parts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	parts := make([]models.Part, 0)
	if err := cursor.All(ctx, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// AdjustStock changes the stock atomically, clamping at zero.
func (s *MongoStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Part, error) {
	if err := collectionReady(s.Parts); err != nil {
		return nil, err
	}
	if err := checkMongoID(id); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$add", Value: bson.A{"$stock", delta}}}}}}},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var part models.Part
	err := s.Parts.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&part)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("part %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &part, nil
}

// DeletePart removes an inventory item.
func (s *MongoStore) DeletePart(ctx context.Context, id string) error {
	return s.deleteByID(ctx, s.Parts, "part", id)
}

// InsertTemplate inserts a service template.
func (s *MongoStore) InsertTemplate(ctx context.Context, tmpl *models.ServiceTemplate) error {
	if err := collectionReady(s.Templates); err != nil {
		return err
	}
	tmpl.ID = newMongoID()
	tmpl.CreatedAt = time.Now().UTC()
	if tmpl.Parts == nil {
		tmpl.Parts = []string{}
	}
	_, err := s.Templates.InsertOne(ctx, tmpl)
	return err
}

// FindTemplates returns all service templates ordered by name.
func (s *MongoStore) FindTemplates(ctx context.Context) ([]models.ServiceTemplate, error) {
	if err := collectionReady(s.Templates); err != nil {
		return nil, err
	}
	cursor, err := s.Templates.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := make([]models.ServiceTemplate, 0)
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// DeleteTemplate removes a service template.
func (s *MongoStore) DeleteTemplate(ctx context.Context, id string) error {
	return s.deleteByID(ctx, s.Templates, "template", id)
}

func (s *MongoStore) deleteByID(ctx context.Context, c *mongo.Collection, kind, id string) error {
	if err := collectionReady(c); err != nil {
		return err
	}
	if err := checkMongoID(id); err != nil {
		return err
	}
	result, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
