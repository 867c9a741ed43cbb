// Package handlers implements every text command and callback-query command
// the bot answers to, and binds them into the command registry.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	"submitdesk-bot/internal/channels"
	"submitdesk-bot/internal/command"
	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/policy"
	"submitdesk-bot/internal/review"
	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/stats"
	"submitdesk-bot/internal/storage"
	"submitdesk-bot/pkg/telegoapi"
)

// Handlers holds the shared dependencies of the command surface.
type Handlers struct {
	workflow   *review.Workflow
	policies   *policy.Engine
	chats      *channels.Snapshot
	users      storage.UserRepository
	reconciler *stats.Reconciler
	registry   *command.Registry

	// exit terminates the process; replaced in tests.
	exit func(code int)
}

// New creates the command surface.
func New(
	workflow *review.Workflow,
	policies *policy.Engine,
	chats *channels.Snapshot,
	users storage.UserRepository,
	reconciler *stats.Reconciler,
) *Handlers {
	return &Handlers{
		workflow:   workflow,
		policies:   policies,
		chats:      chats,
		users:      users,
		reconciler: reconciler,
		exit:       os.Exit,
	}
}

// Register binds every command into the registry. Registration happens once
// at startup; any duplicate trigger is a configuration bug and fails fast.
func (h *Handlers) Register(reg *command.Registry) error {
	h.registry = reg

	textBindings := []struct {
		trigger string
		level   rights.Level
		descKey string
		handler command.TextHandler
	}{
		{"MYINFO", rights.Member, "CmdMyInfoDesc", h.HandleMyInfo},
		{"GROUPINFO", rights.Admin, "CmdGroupInfoDesc", h.HandleGroupInfo},
		{"RESTART", rights.SuperCmd, "CmdRestartDesc", h.HandleRestart},
		{"CHANNELOPTION", rights.SuperCmd, "CmdChannelOptionDesc", h.HandleChannelOption},
		{"COMMAND", rights.SuperCmd, "CmdCommandDesc", h.HandleCommand},
		{"RECALCPOST", rights.SuperCmd, "CmdRecalcPostDesc", h.HandleRecalcPost},
	}
	for _, b := range textBindings {
		if err := reg.RegisterText(b.trigger, b.level, b.descKey, b.handler); err != nil {
			return err
		}
	}

	callbackBindings := []struct {
		trigger string
		level   rights.Level
		handler command.CallbackHandler
	}{
		{review.TriggerApprove, rights.Admin, h.HandleApproveCallback},
		{review.TriggerReject, rights.Admin, h.HandleRejectCallback},
		{"CHANNELOPTION", rights.SuperCmd, h.HandleChannelOptionCallback},
	}
	for _, b := range callbackBindings {
		if err := reg.RegisterCallback(b.trigger, b.level, b.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) localizer(user *telego.User) *i18n.Localizer {
	if user != nil && user.LanguageCode != "" {
		return locales.NewLocalizer(user.LanguageCode, locales.DefaultLanguageTag().String())
	}
	return locales.NewLocalizer(locales.DefaultLanguageTag().String())
}

// reply sends a plain reply to the message that triggered a command.
func (h *Handlers) reply(ctx context.Context, bot telegoapi.BotAPI, message telego.Message, text string) error {
	params := tu.Message(tu.ID(message.Chat.ID), text)
	params.ReplyParameters = &telego.ReplyParameters{MessageID: message.MessageID}
	if _, err := bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// answer acknowledges a callback query, optionally with an alert popup.
func (h *Handlers) answer(ctx context.Context, bot telegoapi.BotAPI, query telego.CallbackQuery, text string, alert bool) error {
	return bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            text,
		ShowAlert:       alert,
	})
}
