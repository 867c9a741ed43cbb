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

const submissionCollection = "submissions"

// MongoSubmissionRepository implements SubmissionRepository for MongoDB.
type MongoSubmissionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubmissionRepository creates a new MongoDB submission repository.
func NewMongoSubmissionRepository(db *mongo.Database) *MongoSubmissionRepository {
	return &MongoSubmissionRepository{
		collection: db.Collection(submissionCollection),
	}
}

func (r *MongoSubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID.IsZero() {
		sub.ID = primitive.NewObjectID()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *MongoSubmissionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
	var sub models.Submission
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission %s: %w", id.Hex(), err)
	}
	return &sub, nil
}

// FindByMessageID resolves by either chat surface: the review message or
// the companion manage message. Both ids live on the same record, so the
// lookup is a single query over the two indexed fields.
func (r *MongoSubmissionRepository) FindByMessageID(ctx context.Context, messageID int) (*models.Submission, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"review_message_id": messageID},
		bson.M{"manage_message_id": messageID},
	}}
	var sub models.Submission
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission by message id %d: %w", messageID, err)
	}
	return &sub, nil
}

func (r *MongoSubmissionRepository) SetReviewMessages(ctx context.Context, id primitive.ObjectID, reviewMsgID, manageMsgID int) error {
	update := bson.M{"$set": bson.M{
		"review_message_id": reviewMsgID,
		"manage_message_id": manageMsgID,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set review messages for %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// TransitionStatus performs the guarded first-transition-wins write: the
// filter matches only while the record is still Pending, so of two
// concurrent reviewers exactly one update matches.
func (r *MongoSubmissionRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, to models.Status, reviewerID int64, reason string) error {
	filter := bson.M{"_id": id, "status": models.StatusPending}
	set := bson.M{
		"status":      to,
		"reviewer_id": reviewerID,
		"reviewed_at": time.Now(),
	}
	if reason != "" {
		set["reject_reason"] = reason
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to transition submission %s to %s: %w", id.Hex(), to, err)
	}
	if result.MatchedCount == 0 {
		return ErrNoPendingSubmission
	}
	return nil
}

func (r *MongoSubmissionRepository) SetPublishedMessage(ctx context.Context, id primitive.ObjectID, messageID int) error {
	update := bson.M{"$set": bson.M{"published_message_id": messageID}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set published message for %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

func (r *MongoSubmissionRepository) CountByPoster(ctx context.Context, posterID int64) (int64, error) {
	return r.count(ctx, bson.M{"poster_id": posterID})
}

func (r *MongoSubmissionRepository) CountByPosterStatus(ctx context.Context, posterID int64, status models.Status) (int64, error) {
	return r.count(ctx, bson.M{"poster_id": posterID, "status": status})
}

func (r *MongoSubmissionRepository) CountExpiredByPoster(ctx context.Context, posterID int64) (int64, error) {
	return r.count(ctx, bson.M{"poster_id": posterID, "status": bson.M{"$lt": 0}})
}

func (r *MongoSubmissionRepository) CountReviewedBy(ctx context.Context, reviewerID int64) (int64, error) {
	return r.count(ctx, bson.M{"reviewer_id": reviewerID, "poster_id": bson.M{"$ne": reviewerID}})
}

func (r *MongoSubmissionRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return n, nil
}
