package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Advertisement is a piece of promotional content to keep pinned in one or
// more destination chats.
type Advertisement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	Enabled   bool               `bson:"enabled"`
	CreatedAt time.Time          `bson:"created_at"`
}

// AdPlacement records the currently-live instance of an advertisement in a
// destination chat. At most one placement per (advertisement, destination)
// pair is live; superseded placements are torn down before a new one is
// recorded.
type AdPlacement struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	AdID      primitive.ObjectID `bson:"ad_id"`
	ChatID    int64              `bson:"chat_id"`
	MessageID int                `bson:"message_id"`
	Pinned    bool               `bson:"pinned"`
	PostedAt  time.Time          `bson:"posted_at"`
}
