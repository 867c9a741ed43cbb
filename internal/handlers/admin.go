package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/policy"
	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

const channelOptionTrigger = "CHANNELOPTION"

// HandleRestart acknowledges the command and terminates the process. The
// supervisor (systemd, docker restart policy) brings the bot back up.
func (h *Handlers) HandleRestart(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)
	if err := h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgRestarting", nil)); err != nil {
		log.Printf("[Cmd:restart User:%d] Failed to send restart ack: %v", caller.TelegramID, err)
	}
	log.Printf("[Cmd:restart User:%d] Restart requested, exiting", caller.TelegramID)
	h.exit(0)
	return nil
}

// HandleChannelOption shows the handling options for the origin channel of
// the submission the command replies to. It only works inside the review
// group, replying to either surface of a review pair.
func (h *Handlers) HandleChannelOption(ctx context.Context, bot telegoapi.BotAPI, _ *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)

	if !h.chats.ReviewGroup.Resolved() || message.Chat.ID != h.chats.ReviewGroup.ID {
		return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgReviewGroupOnly", nil))
	}
	if message.ReplyToMessage == nil {
		return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgReplyToReviewRequired", nil))
	}

	sub, err := h.workflow.FindByCorrelationID(ctx, message.ReplyToMessage.MessageID)
	if err != nil {
		if errors.Is(err, storage.ErrSubmissionNotFound) {
			return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgSubmissionNotFound", nil))
		}
		return err
	}
	if !sub.IsFromChannel {
		return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgNotFromChannel", nil))
	}

	pol, err := h.policies.FetchByTitle(ctx, sub.ChannelTitle)
	if err != nil {
		return err
	}
	if pol == nil {
		return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgChannelNotFound", map[string]interface{}{
			"ChannelID": sub.ChannelTitle,
		}))
	}

	prompt := locales.GetMessage(localizer, "MsgChannelOptionPrompt", map[string]interface{}{
		"Channel": pol.ChannelTitle,
		"Option":  locales.GetMessage(localizer, policy.OptionDescriptionKey(pol.Option), nil),
	})
	params := tu.Message(tu.ID(message.Chat.ID), prompt)
	params.ReplyParameters = &telego.ReplyParameters{MessageID: message.MessageID}
	params.ReplyMarkup = channelOptionKeyboard(localizer, pol.ChannelID)
	if _, err := bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send channel option prompt: %w", err)
	}
	return nil
}

// channelOptionKeyboard builds one button per handling rule. Callback data
// follows the delimited command encoding: trigger, channel id, keyword.
func channelOptionKeyboard(localizer *i18n.Localizer, channelID int64) *telego.InlineKeyboardMarkup {
	options := []models.ChannelOption{models.OptionNormal, models.OptionPurgeOrigin, models.OptionAutoReject}
	rows := make([][]telego.InlineKeyboardButton, 0, len(options))
	for _, option := range options {
		label := locales.GetMessage(localizer, policy.OptionDescriptionKey(option), nil)
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(label).
				WithCallbackData(fmt.Sprintf("%s %d %s", channelOptionTrigger, channelID, option)),
		))
	}
	return tu.InlineKeyboard(rows...)
}

// HandleChannelOptionCallback applies the option chosen on the prompt. The
// callback data carries the channel id and the option keyword after the
// trigger token.
func (h *Handlers) HandleChannelOptionCallback(ctx context.Context, bot telegoapi.BotAPI, _ *models.User, query telego.CallbackQuery, args []string) error {
	localizer := h.localizer(&query.From)

	if len(args) != 3 {
		return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgChannelOptionBadArgs", nil), true)
	}
	channelID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgChannelOptionBadArgs", nil), true)
	}
	option, ok := policy.ParseOption(args[2])
	if !ok {
		return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgChannelOptionUnknown", map[string]interface{}{
			"Option": args[2],
		}), true)
	}

	pol, err := h.policies.Update(ctx, channelID, option)
	if err != nil {
		var notFound *policy.ChannelNotFoundError
		if errors.As(err, &notFound) {
			return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgChannelNotFound", map[string]interface{}{
				"ChannelID": channelID,
			}), true)
		}
		return err
	}

	updated := locales.GetMessage(localizer, "MsgChannelOptionUpdated", map[string]interface{}{
		"Channel": pol.ChannelTitle,
		"Option":  locales.GetMessage(localizer, policy.OptionDescriptionKey(pol.Option), nil),
	})
	if msg, ok := query.Message.(*telego.Message); ok && msg != nil {
		if _, err := bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    tu.ID(msg.Chat.ID),
			MessageID: msg.MessageID,
			Text:      updated,
		}); err != nil {
			log.Printf("[Callback:channeloption User:%d] Failed to edit prompt: %v", query.From.ID, err)
		}
	}
	return h.answer(ctx, bot, query, "", false)
}

// HandleCommand pushes the member-visible command menu to the platform so
// clients pick up trigger and description changes.
func (h *Handlers) HandleCommand(ctx context.Context, bot telegoapi.BotAPI, _ *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)

	entries := h.registry.Menu(rights.Member)
	commands := make([]telego.BotCommand, 0, len(entries))
	for _, entry := range entries {
		commands = append(commands, telego.BotCommand{
			Command:     strings.ToLower(entry.Trigger),
			Description: locales.GetMessage(localizer, entry.DescriptionKey, nil),
		})
	}

	if err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands}); err != nil {
		log.Printf("[Cmd:command User:%d] Failed to set bot commands: %v", message.From.ID, err)
		return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgMenuUpdateFailed", nil))
	}
	log.Printf("[Cmd:command User:%d] Set %d bot commands", message.From.ID, len(commands))
	return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgMenuUpdated", nil))
}

// HandleRecalcPost runs a full counter reconciliation sweep and reports how
// many user records were corrected.
func (h *Handlers) HandleRecalcPost(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, message telego.Message, _ string) error {
	localizer := h.localizer(message.From)

	count, err := h.reconciler.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation sweep failed after %d correction(s): %w", count, err)
	}
	log.Printf("[Cmd:recalcpost User:%d] Reconciled user counters, %d corrected", caller.TelegramID, count)
	return h.reply(ctx, bot, message, locales.GetMessage(localizer, "MsgRecalcDone", map[string]interface{}{
		"Count": count,
	}))
}
