package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelOption is the automatic handling rule for submissions reposted
// from a foreign channel.
type ChannelOption string

const (
	// OptionNormal applies no automatic action.
	OptionNormal ChannelOption = "normal"
	// OptionPurgeOrigin strips origin attribution before review.
	OptionPurgeOrigin ChannelOption = "purgeorigin"
	// OptionAutoReject rejects submissions from the channel outright.
	OptionAutoReject ChannelOption = "autoreject"
)

// ChannelPolicy is the per-origin-channel handling rule. Records are
// created lazily on the first submission seen from a channel.
type ChannelPolicy struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ChannelID    int64              `bson:"channel_id"`
	ChannelTitle string             `bson:"channel_title"`
	Option       ChannelOption      `bson:"option"`
	CreatedAt    time.Time          `bson:"created_at"`
	ModifiedAt   time.Time          `bson:"modified_at"`
}
