package handlers

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"

	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// HandleMyInfo replies with the caller's cached submission statistics.
func (h *Handlers) HandleMyInfo(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)

	name := caller.FirstName
	if caller.Username != "" {
		name = "@" + caller.Username
	}
	if name == "" {
		name = fmt.Sprintf("%d", caller.TelegramID)
	}

	text := locales.GetMessage(localizer, "MsgMyInfo", map[string]interface{}{
		"Name":      name,
		"Rights":    caller.Rights.String(),
		"Submitted": caller.Counters.Submitted,
		"Accepted":  caller.Counters.Accepted,
		"Rejected":  caller.Counters.Rejected,
		"Expired":   caller.Counters.Expired,
		"Reviewed":  caller.Counters.Reviewed,
	})
	return h.reply(ctx, bot, message, text)
}

// HandleGroupInfo replies with the identity of the chat the command was
// issued in.
func (h *Handlers) HandleGroupInfo(ctx context.Context, bot telegoapi.BotAPI, _ *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)

	title := message.Chat.Title
	if title == "" {
		title = message.Chat.FirstName
	}
	text := locales.GetMessage(localizer, "MsgGroupInfo", map[string]interface{}{
		"ChatID": message.Chat.ID,
		"Title":  title,
	})
	return h.reply(ctx, bot, message, text)
}
