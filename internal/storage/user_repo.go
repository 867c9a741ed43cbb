package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage/models"
)

const (
	userCollection     = "users"
	sequenceCollection = "sequences"
)

// MongoUserRepository implements UserRepository for MongoDB.
type MongoUserRepository struct {
	collection *mongo.Collection
	sequences  *mongo.Collection
}

// NewMongoUserRepository creates a new MongoDB user repository.
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection(userCollection),
		sequences:  db.Collection(sequenceCollection),
	}
}

// nextInternalID atomically reserves the next ascending internal user id.
func (r *MongoUserRepository) nextInternalID(ctx context.Context) (int64, error) {
	var seq struct {
		Value int64 `bson:"value"`
	}
	err := r.sequences.FindOneAndUpdate(ctx,
		bson.M{"_id": userCollection},
		bson.M{"$inc": bson.M{"value": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to advance user id sequence: %w", err)
	}
	return seq.Value, nil
}

func (r *MongoUserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user %d: %w", telegramID, err)
	}
	return &user, nil
}

func (r *MongoUserRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	existing, err := r.FindByTelegramID(ctx, user.TelegramID)
	if err == nil {
		if existing.Username == user.Username && existing.FirstName == user.FirstName {
			return existing, nil
		}
		update := bson.M{"$set": bson.M{
			"username":    user.Username,
			"first_name":  user.FirstName,
			"modified_at": time.Now(),
		}}
		if _, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": user.TelegramID}, update); err != nil {
			return nil, fmt.Errorf("failed to update user %d: %w", user.TelegramID, err)
		}
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		return existing, nil
	}
	if err != ErrUserNotFound {
		return nil, err
	}

	id, err := r.nextInternalID(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	user.ID = id
	user.CreatedAt = now
	user.ModifiedAt = now
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to insert user %d: %w", user.TelegramID, err)
	}
	return user, nil
}

func (r *MongoUserRepository) ListFrom(ctx context.Context, startID int64, limit int) ([]models.User, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "id", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"id": bson.M{"$gte": startID}}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list users from id %d: %w", startID, err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateCounters(ctx context.Context, telegramID int64, c models.Counters) error {
	update := bson.M{"$set": bson.M{
		"counters":    c,
		"modified_at": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to update counters for user %d: %w", telegramID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) AdjustCounters(ctx context.Context, telegramID int64, delta models.Counters) error {
	update := bson.M{
		"$inc": bson.M{
			"counters.submitted": delta.Submitted,
			"counters.accepted":  delta.Accepted,
			"counters.rejected":  delta.Rejected,
			"counters.expired":   delta.Expired,
			"counters.reviewed":  delta.Reviewed,
		},
		"$set": bson.M{"modified_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to adjust counters for user %d: %w", telegramID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) SetRights(ctx context.Context, telegramID int64, level rights.Level) error {
	update := bson.M{"$set": bson.M{"rights": level, "modified_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to set rights for user %d: %w", telegramID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) Deactivate(ctx context.Context, telegramID int64) error {
	update := bson.M{"$set": bson.M{"deactivated": true, "modified_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return fmt.Errorf("failed to deactivate user %d: %w", telegramID, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
