package models

import (
	"time"

	"submitdesk-bot/internal/rights"
)

// Counters caches per-user submission statistics. The values are derived
// from the submission ledger and recomputed by the stats reconciler.
type Counters struct {
	Submitted int `bson:"submitted"`
	Accepted  int `bson:"accepted"`
	Rejected  int `bson:"rejected"`
	Expired   int `bson:"expired"`
	Reviewed  int `bson:"reviewed"`
}

// User represents a Telegram user known to the bot. Users are never
// deleted, only deactivated.
type User struct {
	ID          int64        `bson:"id"` // internal ascending id
	TelegramID  int64        `bson:"telegram_id"`
	Username    string       `bson:"username,omitempty"`
	FirstName   string       `bson:"first_name,omitempty"`
	Rights      rights.Level `bson:"rights"`
	Counters    Counters     `bson:"counters"`
	Deactivated bool         `bson:"deactivated"`
	CreatedAt   time.Time    `bson:"created_at"`
	ModifiedAt  time.Time    `bson:"modified_at"`
}
