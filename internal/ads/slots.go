// Package ads keeps at most one live, pinned advertisement per destination
// chat.
package ads

import (
	"context"
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// SlotManager replaces the live advertisement placement in a destination.
type SlotManager struct {
	bot        telegoapi.BotAPI
	placements storage.AdPlacementRepository
}

// NewSlotManager creates a slot manager.
func NewSlotManager(bot telegoapi.BotAPI, placements storage.AdPlacementRepository) *SlotManager {
	return &SlotManager{bot: bot, placements: placements}
}

// Publish tears down every existing placement of the advertisement in the
// destination, then posts and pins the new one. Teardown order matters: a
// pinned message must be unpinned before it can be deleted, and the old
// placement is fully gone before the new one exists so the destination
// never shows two pinned ads. Individual teardown failures (for example a
// message already removed externally) are logged and skipped; bookkeeping
// proceeds regardless.
func (m *SlotManager) Publish(ctx context.Context, ad *models.Advertisement, destChatID int64) (*models.AdPlacement, error) {
	existing, err := m.placements.ListByDestination(ctx, ad.ID, destChatID)
	if err != nil {
		return nil, err
	}

	for _, old := range existing {
		logPrefix := fmt.Sprintf("[Ads Chat:%d Msg:%d]", old.ChatID, old.MessageID)

		if err := m.bot.UnpinChatMessage(ctx, &telego.UnpinChatMessageParams{
			ChatID:    tu.ID(old.ChatID),
			MessageID: old.MessageID,
		}); err != nil {
			log.Printf("%s Failed to unpin old placement: %v", logPrefix, err)
		}

		if err := m.bot.DeleteMessage(ctx, &telego.DeleteMessageParams{
			ChatID:    tu.ID(old.ChatID),
			MessageID: old.MessageID,
		}); err != nil {
			log.Printf("%s Failed to delete old placement: %v", logPrefix, err)
		}

		if err := m.placements.Delete(ctx, old.ID); err != nil {
			log.Printf("%s Failed to drop placement record: %v", logPrefix, err)
		}
	}

	posted, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(destChatID), ad.Text))
	if err != nil {
		return nil, fmt.Errorf("failed to post advertisement to chat %d: %w", destChatID, err)
	}

	pinned := true
	if err := m.bot.PinChatMessage(ctx, &telego.PinChatMessageParams{
		ChatID:              tu.ID(destChatID),
		MessageID:           posted.MessageID,
		DisableNotification: true,
	}); err != nil {
		log.Printf("[Ads Chat:%d Msg:%d] Failed to pin new placement: %v", destChatID, posted.MessageID, err)
		pinned = false
	}

	placement := &models.AdPlacement{
		AdID:      ad.ID,
		ChatID:    destChatID,
		MessageID: posted.MessageID,
		Pinned:    pinned,
	}
	if err := m.placements.Create(ctx, placement); err != nil {
		return nil, err
	}
	return placement, nil
}
