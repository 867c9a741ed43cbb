// Package bot runs the update intake loop: it pulls updates off the long
// polling channel, resolves the calling user, and routes each update to
// the command dispatcher or the submission workflow.
package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	"go.uber.org/ratelimit"

	"submitdesk-bot/internal/command"
	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/review"
	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

const updateTimeout = 30 * time.Second

// Bot wraps the telego update stream and fans each update out to its own
// goroutine.
type Bot struct {
	bot         telegoapi.BotAPI
	updatesChan <-chan telego.Update
	dispatcher  *command.Dispatcher
	workflow    *review.Workflow
	users       storage.UserRepository
	debug       bool
	ratelimiter ratelimit.Limiter
}

// Deps holds the dependencies required by the Bot.
type Deps struct {
	Bot         telegoapi.BotAPI
	UpdatesChan <-chan telego.Update
	Dispatcher  *command.Dispatcher
	Workflow    *review.Workflow
	Users       storage.UserRepository
	Debug       bool
}

// New creates a new Bot instance from its dependencies.
func New(deps Deps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("command dispatcher cannot be nil")
	}
	if deps.Workflow == nil {
		return nil, fmt.Errorf("review workflow cannot be nil")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository cannot be nil")
	}

	return &Bot{
		bot:         deps.Bot,
		updatesChan: deps.UpdatesChan,
		dispatcher:  deps.Dispatcher,
		workflow:    deps.Workflow,
		users:       deps.Users,
		debug:       deps.Debug,
		ratelimiter: ratelimit.New(20),
	}, nil
}

// Start begins the update processing loop. Each update is processed in its
// own goroutine; Start returns only after the context is cancelled and all
// in-flight updates have drained.
func (b *Bot) Start(ctx context.Context) {
	log.Println("Listening for updates...")

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}

// processUpdate routes one update. Panics in handlers are recovered here so
// a single bad update cannot take the loop down.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	b.ratelimiter.Take()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			// Channel posts and other senderless messages are not commands
			// or submissions.
			if b.debug {
				log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			}
			return
		}
		b.handleMessage(processingCtx, message)

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type: %+v", update)
		}
	}
}

// handleMessage routes a message: command-shaped text goes through the
// dispatcher, anything else sent in a private chat is treated as a
// submission.
func (b *Bot) handleMessage(ctx context.Context, message telego.Message) {
	caller, err := b.resolveCaller(ctx, message.From)
	if err != nil {
		log.Printf("[Intake User:%d] Failed to resolve user: %v", message.From.ID, err)
		sentry.CaptureException(fmt.Errorf("failed to resolve user %d: %w", message.From.ID, err))
		return
	}

	if strings.HasPrefix(message.Text, "/") {
		outcome := b.dispatcher.DispatchText(ctx, caller, message)
		if b.debug {
			log.Printf("[Intake User:%d] Text dispatch outcome: %d", caller.TelegramID, outcome)
		}
		// Unknown commands are silently ignored; the message may be meant
		// for another bot in the same chat.
		return
	}

	if message.Chat.Type == telego.ChatTypePrivate {
		b.handleSubmission(ctx, caller, message)
	}
}

// handleSubmission assembles the ingestion input from the message and hands
// it to the review workflow.
func (b *Bot) handleSubmission(ctx context.Context, caller *models.User, message telego.Message) {
	text := message.Text
	if text == "" {
		text = message.Caption
	}

	in := review.IncomingSubmission{
		PosterID:        caller.TelegramID,
		PosterUsername:  caller.Username,
		OriginChatID:    message.Chat.ID,
		OriginMessageID: message.MessageID,
		Text:            text,
	}
	if origin, ok := message.ForwardOrigin.(*telego.MessageOriginChannel); ok {
		in.IsFromChannel = true
		in.ChannelID = origin.Chat.ID
		in.ChannelTitle = origin.Chat.Title
	}

	if _, err := b.workflow.Ingest(ctx, in); err != nil {
		log.Printf("[Intake User:%d Msg:%d] Failed to ingest submission: %v", caller.TelegramID, message.MessageID, err)
		sentry.CaptureException(fmt.Errorf("failed to ingest submission from user %d: %w", caller.TelegramID, err))
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	caller, err := b.resolveCaller(ctx, &query.From)
	if err != nil {
		log.Printf("[Intake User:%d] Failed to resolve user: %v", query.From.ID, err)
		sentry.CaptureException(fmt.Errorf("failed to resolve user %d: %w", query.From.ID, err))
		return
	}

	outcome := b.dispatcher.DispatchCallback(ctx, caller, query)
	if outcome == command.OutcomeIgnored {
		// Stale button from a previous deployment; tell the user instead of
		// leaving the client spinner hanging.
		localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
		err := b.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            locales.GetMessage(localizer, "MsgUnknownCallback", nil),
			ShowAlert:       true,
		})
		if err != nil {
			log.Printf("[Intake User:%d] Failed to answer unknown callback: %v", query.From.ID, err)
		}
	}
}

// resolveCaller loads the user record for the update sender, creating it
// with member rights on first contact and refreshing identity fields.
func (b *Bot) resolveCaller(ctx context.Context, from *telego.User) (*models.User, error) {
	user := &models.User{
		TelegramID: from.ID,
		Username:   from.Username,
		FirstName:  from.FirstName,
		Rights:     rights.Member,
	}
	return b.users.Upsert(ctx, user)
}
