package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status tracks a submission through the review state machine.
// Negative values are the expired range set by an external timer.
type Status int32

const (
	StatusExpired  Status = -1
	StatusPending  Status = 1
	StatusAccepted Status = 2
	StatusRejected Status = 3
)

// Terminal reports whether the submission can no longer be reviewed.
func (s Status) Terminal() bool {
	return s != StatusPending
}

func (s Status) String() string {
	switch {
	case s < 0:
		return "expired"
	case s == StatusPending:
		return "pending"
	case s == StatusAccepted:
		return "accepted"
	case s == StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Submission is one piece of user content under review. It is correlated
// across chat surfaces by ReviewMessageID (the copy shown to reviewers)
// and ManageMessageID (the companion control message); either id resolves
// to the same record.
type Submission struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	PosterID        int64              `bson:"poster_id"` // Telegram id of the submitter
	PosterUsername  string             `bson:"poster_username,omitempty"`
	Status          Status             `bson:"status"`
	Text            string             `bson:"text,omitempty"` // rendered content shown to reviewers
	OriginChatID    int64              `bson:"origin_chat_id"`
	OriginMessageID int                `bson:"origin_message_id"`
	IsFromChannel   bool               `bson:"is_from_channel"`
	ChannelTitle    string             `bson:"channel_title,omitempty"`

	ReviewMessageID    int `bson:"review_message_id,omitempty"`
	ManageMessageID    int `bson:"manage_message_id,omitempty"`
	PublishedMessageID int `bson:"published_message_id,omitempty"`

	ReviewerID   int64     `bson:"reviewer_id,omitempty"`
	RejectReason string    `bson:"reject_reason,omitempty"`
	SubmittedAt  time.Time `bson:"submitted_at"`
	ReviewedAt   time.Time `bson:"reviewed_at,omitempty"`
}
