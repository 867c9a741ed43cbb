package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"submitdesk-bot/internal/storage/models"
)

const (
	advertisementCollection = "advertisements"
	adPlacementCollection   = "ad_placements"
)

// MongoAdvertisementRepository implements AdvertisementRepository for MongoDB.
type MongoAdvertisementRepository struct {
	collection *mongo.Collection
}

// NewMongoAdvertisementRepository creates a new MongoDB advertisement repository.
func NewMongoAdvertisementRepository(db *mongo.Database) *MongoAdvertisementRepository {
	return &MongoAdvertisementRepository{
		collection: db.Collection(advertisementCollection),
	}
}

func (r *MongoAdvertisementRepository) ListEnabled(ctx context.Context) ([]models.Advertisement, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled advertisements: %w", err)
	}
	defer cursor.Close(ctx)

	var ads []models.Advertisement
	if err := cursor.All(ctx, &ads); err != nil {
		return nil, fmt.Errorf("failed to decode advertisements: %w", err)
	}
	return ads, nil
}

func (r *MongoAdvertisementRepository) Create(ctx context.Context, ad *models.Advertisement) error {
	if ad.ID.IsZero() {
		ad.ID = primitive.NewObjectID()
	}
	if ad.CreatedAt.IsZero() {
		ad.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, ad); err != nil {
		return fmt.Errorf("failed to insert advertisement: %w", err)
	}
	return nil
}

func (r *MongoAdvertisementRepository) SetEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"enabled": enabled}})
	if err != nil {
		return fmt.Errorf("failed to update advertisement %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("advertisement %s not found", id.Hex())
	}
	return nil
}

// MongoAdPlacementRepository implements AdPlacementRepository for MongoDB.
type MongoAdPlacementRepository struct {
	collection *mongo.Collection
}

// NewMongoAdPlacementRepository creates a new MongoDB ad placement repository.
func NewMongoAdPlacementRepository(db *mongo.Database) *MongoAdPlacementRepository {
	return &MongoAdPlacementRepository{
		collection: db.Collection(adPlacementCollection),
	}
}

func (r *MongoAdPlacementRepository) ListByDestination(ctx context.Context, adID primitive.ObjectID, chatID int64) ([]models.AdPlacement, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"ad_id": adID, "chat_id": chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to list placements for chat %d: %w", chatID, err)
	}
	defer cursor.Close(ctx)

	var placements []models.AdPlacement
	if err := cursor.All(ctx, &placements); err != nil {
		return nil, fmt.Errorf("failed to decode placements: %w", err)
	}
	return placements, nil
}

func (r *MongoAdPlacementRepository) Create(ctx context.Context, placement *models.AdPlacement) error {
	if placement.ID.IsZero() {
		placement.ID = primitive.NewObjectID()
	}
	if placement.PostedAt.IsZero() {
		placement.PostedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, placement); err != nil {
		return fmt.Errorf("failed to insert ad placement: %w", err)
	}
	return nil
}

func (r *MongoAdPlacementRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete ad placement %s: %w", id.Hex(), err)
	}
	return nil
}
