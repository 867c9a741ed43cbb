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

const policyCollection = "channel_policies"

// MongoChannelPolicyRepository implements ChannelPolicyRepository for MongoDB.
type MongoChannelPolicyRepository struct {
	collection *mongo.Collection
}

// NewMongoChannelPolicyRepository creates a new MongoDB channel policy repository.
func NewMongoChannelPolicyRepository(db *mongo.Database) *MongoChannelPolicyRepository {
	return &MongoChannelPolicyRepository{
		collection: db.Collection(policyCollection),
	}
}

func (r *MongoChannelPolicyRepository) FindByTitle(ctx context.Context, title string) (*models.ChannelPolicy, error) {
	return r.findOne(ctx, bson.M{"channel_title": title})
}

func (r *MongoChannelPolicyRepository) FindByChannelID(ctx context.Context, channelID int64) (*models.ChannelPolicy, error) {
	return r.findOne(ctx, bson.M{"channel_id": channelID})
}

func (r *MongoChannelPolicyRepository) findOne(ctx context.Context, filter bson.M) (*models.ChannelPolicy, error) {
	var policy models.ChannelPolicy
	err := r.collection.FindOne(ctx, filter).Decode(&policy)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPolicyNotFound
		}
		return nil, fmt.Errorf("failed to find channel policy: %w", err)
	}
	return &policy, nil
}

func (r *MongoChannelPolicyRepository) Create(ctx context.Context, policy *models.ChannelPolicy) error {
	if policy.ID.IsZero() {
		policy.ID = primitive.NewObjectID()
	}
	now := time.Now()
	policy.CreatedAt = now
	policy.ModifiedAt = now
	if _, err := r.collection.InsertOne(ctx, policy); err != nil {
		return fmt.Errorf("failed to insert channel policy for %d: %w", policy.ChannelID, err)
	}
	return nil
}

func (r *MongoChannelPolicyRepository) UpdateOption(ctx context.Context, channelID int64, option models.ChannelOption) error {
	update := bson.M{"$set": bson.M{"option": option, "modified_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"channel_id": channelID}, update)
	if err != nil {
		return fmt.Errorf("failed to update channel policy for %d: %w", channelID, err)
	}
	if result.MatchedCount == 0 {
		return ErrPolicyNotFound
	}
	return nil
}
