package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage/models"
)

var (
	// ErrUserNotFound is returned when a user lookup matches nothing.
	ErrUserNotFound = errors.New("user not found")
	// ErrSubmissionNotFound is returned when a submission lookup matches nothing.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrPolicyNotFound is returned when a channel policy lookup matches nothing.
	ErrPolicyNotFound = errors.New("channel policy not found")
	// ErrNoPendingSubmission is returned by TransitionStatus when the guarded
	// update matched no pending record, i.e. another reviewer got there first.
	ErrNoPendingSubmission = errors.New("no pending submission matched")
)

// UserRepository is the user ledger.
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	// Upsert creates the user on first contact (assigning the next internal
	// id) or refreshes identity fields on subsequent ones.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
	// ListFrom returns up to limit users with internal id >= startID, ordered
	// by ascending internal id.
	ListFrom(ctx context.Context, startID int64, limit int) ([]models.User, error)
	// UpdateCounters overwrites the cached counters and bumps the modify
	// timestamp. Used by the stats reconciler.
	UpdateCounters(ctx context.Context, telegramID int64, c models.Counters) error
	// AdjustCounters applies a delta to the cached counters. Used by the
	// review workflow on state transitions.
	AdjustCounters(ctx context.Context, telegramID int64, delta models.Counters) error
	SetRights(ctx context.Context, telegramID int64, level rights.Level) error
	Deactivate(ctx context.Context, telegramID int64) error
}

// SubmissionRepository is the submission ledger, the single source of truth
// for review state.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.Submission) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Submission, error)
	// FindByMessageID resolves a submission whose review message id or manage
	// message id equals messageID.
	FindByMessageID(ctx context.Context, messageID int) (*models.Submission, error)
	SetReviewMessages(ctx context.Context, id primitive.ObjectID, reviewMsgID, manageMsgID int) error
	// TransitionStatus moves a submission out of Pending. The write is
	// conditioned on the record still being Pending; if another transition
	// won the race it returns ErrNoPendingSubmission and changes nothing.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, to models.Status, reviewerID int64, reason string) error
	SetPublishedMessage(ctx context.Context, id primitive.ObjectID, messageID int) error

	CountByPoster(ctx context.Context, posterID int64) (int64, error)
	CountByPosterStatus(ctx context.Context, posterID int64, status models.Status) (int64, error)
	// CountExpiredByPoster counts submissions in the negative status range.
	CountExpiredByPoster(ctx context.Context, posterID int64) (int64, error)
	CountReviewedBy(ctx context.Context, reviewerID int64) (int64, error)
}

// ChannelPolicyRepository stores per-origin-channel handling rules.
type ChannelPolicyRepository interface {
	FindByTitle(ctx context.Context, title string) (*models.ChannelPolicy, error)
	FindByChannelID(ctx context.Context, channelID int64) (*models.ChannelPolicy, error)
	Create(ctx context.Context, policy *models.ChannelPolicy) error
	UpdateOption(ctx context.Context, channelID int64, option models.ChannelOption) error
}

// AdvertisementRepository stores the advertisement inventory.
type AdvertisementRepository interface {
	ListEnabled(ctx context.Context) ([]models.Advertisement, error)
	Create(ctx context.Context, ad *models.Advertisement) error
	SetEnabled(ctx context.Context, id primitive.ObjectID, enabled bool) error
}

// AdPlacementRepository tracks live advertisement placements.
type AdPlacementRepository interface {
	ListByDestination(ctx context.Context, adID primitive.ObjectID, chatID int64) ([]models.AdPlacement, error)
	Create(ctx context.Context, placement *models.AdPlacement) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}
