// Package storage implements the persistence contracts on MongoDB.
package storage

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"submitdesk-bot/internal/config"
)

// Connect establishes a connection to MongoDB and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	var result bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Decode(&result); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Println("Successfully connected and pinged MongoDB")

	return client, client.Database(cfg.MongoDatabase), nil
}

// EnsureIndexes creates the indexes the correlation lookups and the
// reconciler range scan depend on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	subIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "review_message_id", Value: 1}}},
		{Keys: bson.D{{Key: "manage_message_id", Value: 1}}},
		{Keys: bson.D{{Key: "poster_id", Value: 1}, {Key: "status", Value: 1}}},
	}
	if _, err := db.Collection(submissionCollection).Indexes().CreateMany(ctx, subIndexes); err != nil {
		return fmt.Errorf("failed to create submission indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "telegram_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := db.Collection(userCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	policyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "channel_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "channel_title", Value: 1}}},
	}
	if _, err := db.Collection(policyCollection).Indexes().CreateMany(ctx, policyIndexes); err != nil {
		return fmt.Errorf("failed to create channel policy indexes: %w", err)
	}
	return nil
}
