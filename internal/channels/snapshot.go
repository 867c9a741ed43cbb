// Package channels resolves the configured chat identities once at startup
// into a read-mostly snapshot consumed by the rest of the application.
package channels

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/mymmrac/telego"

	"submitdesk-bot/internal/config"
	"submitdesk-bot/pkg/telegoapi"
)

// UnresolvedChatID marks a chat that could not be resolved at startup.
const UnresolvedChatID int64 = -1

// ChatInfo is the resolved identity of one configured chat.
type ChatInfo struct {
	ID       int64
	Title    string
	Username string
}

// Resolved reports whether the chat was found at startup.
func (c ChatInfo) Resolved() bool {
	return c.ID != 0 && c.ID != UnresolvedChatID
}

func (c ChatInfo) String() string {
	if !c.Resolved() {
		return "<unresolved>"
	}
	if c.Username != "" {
		return fmt.Sprintf("%s (@%s, %d)", c.Title, c.Username, c.ID)
	}
	return fmt.Sprintf("%s (%d)", c.Title, c.ID)
}

// Snapshot holds the chats the bot operates across. It is populated by
// Init and read-only afterwards.
type Snapshot struct {
	BotUser       telego.User
	AcceptChannel ChatInfo
	RejectChannel ChatInfo
	ReviewGroup   ChatInfo
	CommentGroup  ChatInfo
	SubGroup      ChatInfo
}

func chatID(ref string) telego.ChatID {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return telego.ChatID{ID: id}
	}
	return telego.ChatID{Username: ref}
}

func resolveChat(ctx context.Context, bot telegoapi.BotAPI, ref string) (ChatInfo, error) {
	if ref == "" {
		return ChatInfo{ID: UnresolvedChatID}, fmt.Errorf("chat reference is empty")
	}
	chat, err := bot.GetChat(ctx, &telego.GetChatParams{ChatID: chatID(ref)})
	if err != nil {
		return ChatInfo{ID: UnresolvedChatID}, fmt.Errorf("failed to resolve chat %q: %w", ref, err)
	}
	return ChatInfo{ID: chat.ID, Title: chat.Title, Username: chat.Username}, nil
}

// Init resolves the configured chats. The accept and reject channels are
// required; the groups degrade to the unresolved sentinel. If exactly one
// of the comment and sub groups resolves, the other aliases it.
func Init(ctx context.Context, bot telegoapi.BotAPI, cfg *config.Config) (*Snapshot, error) {
	me, err := bot.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bot identity: %w", err)
	}
	snap := &Snapshot{BotUser: *me}
	log.Printf("Bot identity: %d %s @%s", me.ID, me.FirstName, me.Username)

	snap.AcceptChannel, err = resolveChat(ctx, bot, cfg.AcceptChannel)
	if err != nil {
		return nil, fmt.Errorf("accept channel: %w", err)
	}
	log.Printf("Accept channel: %s", snap.AcceptChannel)

	snap.RejectChannel, err = resolveChat(ctx, bot, cfg.RejectChannel)
	if err != nil {
		return nil, fmt.Errorf("reject channel: %w", err)
	}
	log.Printf("Reject channel: %s", snap.RejectChannel)

	if snap.ReviewGroup, err = resolveChat(ctx, bot, cfg.ReviewGroup); err != nil {
		log.Printf("Review group not found, reviewer commands disabled: %v", err)
	} else {
		log.Printf("Review group: %s", snap.ReviewGroup)
	}

	if snap.CommentGroup, err = resolveChat(ctx, bot, cfg.CommentGroup); err != nil {
		log.Printf("Comment group not found: %v", err)
	} else {
		log.Printf("Comment group: %s", snap.CommentGroup)
	}

	if snap.SubGroup, err = resolveChat(ctx, bot, cfg.SubGroup); err != nil {
		log.Printf("Sub group not found: %v", err)
	} else {
		log.Printf("Sub group: %s", snap.SubGroup)
	}

	// Observed behavior carried over from the previous deployment: when only
	// one of the two group identities resolves, the other aliases it.
	if !snap.SubGroup.Resolved() && snap.CommentGroup.Resolved() {
		snap.SubGroup = snap.CommentGroup
	} else if !snap.CommentGroup.Resolved() && snap.SubGroup.Resolved() {
		snap.CommentGroup = snap.SubGroup
	}

	return snap, nil
}
