package command

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// Outcome classifies the result of a dispatch.
type Outcome int

const (
	// OutcomeIgnored means the event did not match a registered command.
	OutcomeIgnored Outcome = iota
	// OutcomeHandled means the handler ran and returned no error.
	OutcomeHandled
	// OutcomeUnauthorized means the rights check failed; the handler did
	// not run and the caller was told so.
	OutcomeUnauthorized
	// OutcomeFailed means the handler returned an error; it was logged and
	// the caller got a generic failure reply.
	OutcomeFailed
)

// Dispatcher routes incoming events to registry bindings. Each dispatch is
// self-contained: handler faults are absorbed here and never propagate to
// the intake loop, so concurrent dispatches cannot take each other down.
type Dispatcher struct {
	registry *Registry
	bot      telegoapi.BotAPI
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, bot telegoapi.BotAPI) *Dispatcher {
	return &Dispatcher{registry: registry, bot: bot}
}

// ParseTextTrigger extracts the trigger token and the raw argument string
// from a command-shaped message text. The leading slash and an optional
// @botname suffix are stripped; matching is case-insensitive.
func ParseTextTrigger(text string) (trigger, args string) {
	text = strings.TrimSpace(text)
	token, rest, _ := strings.Cut(text, " ")
	token = strings.TrimPrefix(token, "/")
	if at := strings.IndexByte(token, '@'); at >= 0 {
		token = token[:at]
	}
	return token, strings.TrimSpace(rest)
}

// DispatchText routes a text message to its command handler.
func (d *Dispatcher) DispatchText(ctx context.Context, caller *models.User, message telego.Message) Outcome {
	trigger, args := ParseTextTrigger(message.Text)
	if trigger == "" {
		return OutcomeIgnored
	}

	binding := d.registry.Lookup(trigger, KindText)
	if binding == nil {
		// Not a command we know; not an error.
		return OutcomeIgnored
	}

	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", binding.Trigger, caller.TelegramID)

	if !rights.Satisfies(caller.Rights, binding.Rights) {
		log.Printf("%s Rights check failed (%s < %s)", logPrefix, caller.Rights, binding.Rights)
		d.replyText(ctx, message, "MsgAccessDenied")
		return OutcomeUnauthorized
	}

	if err := binding.textHandler(ctx, d.bot, caller, message, args); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
		d.replyText(ctx, message, "MsgCommandFailed")
		return OutcomeFailed
	}
	return OutcomeHandled
}

// DispatchCallback routes a callback query to its command handler. The
// query data is a space-delimited token sequence whose first token is the
// trigger.
func (d *Dispatcher) DispatchCallback(ctx context.Context, caller *models.User, query telego.CallbackQuery) Outcome {
	args := strings.Fields(query.Data)
	if len(args) == 0 {
		return OutcomeIgnored
	}

	binding := d.registry.Lookup(args[0], KindCallback)
	if binding == nil {
		return OutcomeIgnored
	}

	logPrefix := fmt.Sprintf("[Query:%s User:%d]", binding.Trigger, caller.TelegramID)

	if !rights.Satisfies(caller.Rights, binding.Rights) {
		log.Printf("%s Rights check failed (%s < %s)", logPrefix, caller.Rights, binding.Rights)
		d.answerCallback(ctx, query.ID, "MsgAccessDenied", true)
		return OutcomeUnauthorized
	}

	if err := binding.callbackHandler(ctx, d.bot, caller, query, args); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
		d.answerCallback(ctx, query.ID, "MsgCommandFailed", true)
		return OutcomeFailed
	}
	return OutcomeHandled
}

func (d *Dispatcher) replyText(ctx context.Context, message telego.Message, msgID string) {
	localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
	text := locales.GetMessage(localizer, msgID, nil)
	params := tu.Message(tu.ID(message.Chat.ID), text)
	params.ReplyParameters = &telego.ReplyParameters{MessageID: message.MessageID}
	if _, err := d.bot.SendMessage(ctx, params); err != nil {
		log.Printf("[Dispatch] Failed to send %s reply: %v", msgID, err)
	}
}

func (d *Dispatcher) answerCallback(ctx context.Context, queryID, msgID string, alert bool) {
	localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
	text := locales.GetMessage(localizer, msgID, nil)
	err := d.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.Printf("[Dispatch] Failed to answer callback query %s: %v", queryID, err)
	}
}
