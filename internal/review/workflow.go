// Package review implements the submission review state machine: ingestion,
// review-group presentation, reviewer actions, and propagation to the
// accept and reject destinations.
package review

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"submitdesk-bot/internal/channels"
	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/policy"
	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// Callback triggers for the reviewer buttons on the manage message.
const (
	TriggerApprove = "APPROVE"
	TriggerReject  = "REJECT"
)

// AlreadyReviewedError is returned when a reviewer acts on a submission
// that already reached a terminal state. It carries the current status so
// callers can report the existing outcome instead of retrying.
type AlreadyReviewedError struct {
	Status models.Status
}

func (e *AlreadyReviewedError) Error() string {
	return fmt.Sprintf("submission already reviewed (%s)", e.Status)
}

// IncomingSubmission is the ingestion input assembled from a platform event.
type IncomingSubmission struct {
	PosterID        int64
	PosterUsername  string
	OriginChatID    int64
	OriginMessageID int
	Text            string

	// Set when the content was reposted from a foreign channel.
	IsFromChannel bool
	ChannelID     int64
	ChannelTitle  string
}

// Workflow drives submissions through Pending → {Accepted, Rejected}.
// All transitions go through the ledger's guarded conditional write, so
// concurrent reviewer actions resolve to exactly one winner.
type Workflow struct {
	bot      telegoapi.BotAPI
	subs     storage.SubmissionRepository
	users    storage.UserRepository
	policies *policy.Engine
	chats    *channels.Snapshot
}

// NewWorkflow creates a review workflow.
func NewWorkflow(
	bot telegoapi.BotAPI,
	subs storage.SubmissionRepository,
	users storage.UserRepository,
	policies *policy.Engine,
	chats *channels.Snapshot,
) *Workflow {
	return &Workflow{bot: bot, subs: subs, users: users, policies: policies, chats: chats}
}

// Ingest records a new submission and presents it to the review group.
// Foreign-channel reposts consult the channel policy first: AutoReject
// short-circuits to a rejected record without reviewer interaction,
// PurgeOrigin scrubs the origin attribution from the rendered content.
func (w *Workflow) Ingest(ctx context.Context, in IncomingSubmission) (*models.Submission, error) {
	sub := &models.Submission{
		PosterID:        in.PosterID,
		PosterUsername:  in.PosterUsername,
		Status:          models.StatusPending,
		Text:            in.Text,
		OriginChatID:    in.OriginChatID,
		OriginMessageID: in.OriginMessageID,
		IsFromChannel:   in.IsFromChannel,
		ChannelTitle:    in.ChannelTitle,
	}

	purged := false
	if in.IsFromChannel {
		pol, err := w.policies.EnsureByTitle(ctx, in.ChannelID, in.ChannelTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve channel policy for %q: %w", in.ChannelTitle, err)
		}
		switch pol.Option {
		case models.OptionAutoReject:
			return w.autoReject(ctx, sub)
		case models.OptionPurgeOrigin:
			sub.Text = policy.PurgeOrigin(sub.Text, in.ChannelTitle)
			purged = true
		}
	}

	if err := w.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	w.adjustCounters(ctx, sub.PosterID, models.Counters{Submitted: 1})

	if err := w.presentForReview(ctx, sub, purged); err != nil {
		// The submission stays pending; review messages can be re-sent.
		log.Printf("[Review Sub:%s] Failed to present for review: %v", sub.ID.Hex(), err)
		return sub, err
	}

	w.notifyPoster(ctx, sub, "MsgSubmissionReceived", nil)
	return sub, nil
}

// autoReject records the submission as rejected with the origin channel on
// the rejection record for audit, and tells the poster.
func (w *Workflow) autoReject(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	sub.Status = models.StatusRejected
	sub.RejectReason = fmt.Sprintf("auto-rejected: origin channel %q", sub.ChannelTitle)
	if err := w.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	w.adjustCounters(ctx, sub.PosterID, models.Counters{Submitted: 1, Rejected: 1})
	w.notifyPoster(ctx, sub, "MsgSubmissionAutoRejected", map[string]interface{}{"Channel": sub.ChannelTitle})
	return sub, nil
}

// presentForReview copies the content into the review group and sends the
// companion manage message, then records both message ids.
func (w *Workflow) presentForReview(ctx context.Context, sub *models.Submission, purged bool) error {
	if !w.chats.ReviewGroup.Resolved() {
		return fmt.Errorf("review group is not resolved")
	}
	reviewChat := tu.ID(w.chats.ReviewGroup.ID)

	var reviewMsgID int
	if purged {
		// A plain copy would carry the origin attribution; send the scrubbed
		// rendering instead.
		msg, err := w.bot.SendMessage(ctx, tu.Message(reviewChat, sub.Text))
		if err != nil {
			return fmt.Errorf("failed to send scrubbed submission to review group: %w", err)
		}
		reviewMsgID = msg.MessageID
	} else {
		copied, err := w.bot.CopyMessage(ctx, &telego.CopyMessageParams{
			ChatID:     reviewChat,
			FromChatID: tu.ID(sub.OriginChatID),
			MessageID:  sub.OriginMessageID,
		})
		if err != nil {
			return fmt.Errorf("failed to copy submission to review group: %w", err)
		}
		reviewMsgID = copied.MessageID
	}

	localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
	poster := sub.PosterUsername
	if poster == "" {
		poster = fmt.Sprintf("%d", sub.PosterID)
	}
	prompt := locales.GetMessage(localizer, "MsgReviewManagePrompt", map[string]interface{}{"Poster": poster})

	manageParams := tu.Message(reviewChat, prompt)
	manageParams.ReplyParameters = &telego.ReplyParameters{MessageID: reviewMsgID}
	manageParams.ReplyMarkup = reviewKeyboard(localizer, sub.ID)
	manageMsg, err := w.bot.SendMessage(ctx, manageParams)
	if err != nil {
		return fmt.Errorf("failed to send manage message: %w", err)
	}

	if err := w.subs.SetReviewMessages(ctx, sub.ID, reviewMsgID, manageMsg.MessageID); err != nil {
		return err
	}
	sub.ReviewMessageID = reviewMsgID
	sub.ManageMessageID = manageMsg.MessageID
	return nil
}

// reviewKeyboard builds the Approve/Reject buttons. Callback data is the
// space-delimited command encoding the dispatcher parses: trigger first,
// then the submission id.
func reviewKeyboard(localizer *i18n.Localizer, id primitive.ObjectID) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnApprove", nil)).
				WithCallbackData(fmt.Sprintf("%s %s", TriggerApprove, id.Hex())),
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnReject", nil)).
				WithCallbackData(fmt.Sprintf("%s %s", TriggerReject, id.Hex())),
		),
	)
}

// Approve transitions a pending submission to Accepted: the guarded write
// happens first so the race loser never posts, then the content is copied
// to the accept channel and the review surfaces are updated.
func (w *Workflow) Approve(ctx context.Context, id primitive.ObjectID, reviewer *models.User) (*models.Submission, error) {
	sub, err := w.subs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := w.subs.TransitionStatus(ctx, id, models.StatusAccepted, reviewer.TelegramID, ""); err != nil {
		return nil, w.transitionErr(ctx, id, err)
	}
	sub.Status = models.StatusAccepted
	sub.ReviewerID = reviewer.TelegramID

	published, err := w.bot.CopyMessage(ctx, &telego.CopyMessageParams{
		ChatID:     tu.ID(w.chats.AcceptChannel.ID),
		FromChatID: tu.ID(w.chats.ReviewGroup.ID),
		MessageID:  sub.ReviewMessageID,
	})
	if err != nil {
		// State already transitioned; surfacing the failure lets the
		// reviewer retry the publish out of band.
		return sub, fmt.Errorf("failed to publish submission %s: %w", id.Hex(), err)
	}
	if err := w.subs.SetPublishedMessage(ctx, id, published.MessageID); err != nil {
		log.Printf("[Review Sub:%s] Failed to record published message id: %v", id.Hex(), err)
	}
	sub.PublishedMessageID = published.MessageID

	w.finishReview(ctx, sub, "MsgReviewAccepted", map[string]interface{}{"Reviewer": reviewerName(reviewer)})
	w.adjustCounters(ctx, sub.PosterID, models.Counters{Accepted: 1})
	w.adjustCounters(ctx, reviewer.TelegramID, models.Counters{Reviewed: 1})
	w.notifyPoster(ctx, sub, "MsgSubmissionAccepted", nil)
	return sub, nil
}

// Reject transitions a pending submission to Rejected and archives a copy
// to the reject channel.
func (w *Workflow) Reject(ctx context.Context, id primitive.ObjectID, reviewer *models.User, reason string) (*models.Submission, error) {
	sub, err := w.subs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := w.subs.TransitionStatus(ctx, id, models.StatusRejected, reviewer.TelegramID, reason); err != nil {
		return nil, w.transitionErr(ctx, id, err)
	}
	sub.Status = models.StatusRejected
	sub.ReviewerID = reviewer.TelegramID
	sub.RejectReason = reason

	if w.chats.RejectChannel.Resolved() && sub.ReviewMessageID != 0 {
		if _, err := w.bot.CopyMessage(ctx, &telego.CopyMessageParams{
			ChatID:     tu.ID(w.chats.RejectChannel.ID),
			FromChatID: tu.ID(w.chats.ReviewGroup.ID),
			MessageID:  sub.ReviewMessageID,
		}); err != nil {
			log.Printf("[Review Sub:%s] Failed to archive rejected submission: %v", id.Hex(), err)
		}
	}

	w.finishReview(ctx, sub, "MsgReviewRejected", map[string]interface{}{
		"Reviewer": reviewerName(reviewer),
		"Reason":   reason,
	})
	w.adjustCounters(ctx, sub.PosterID, models.Counters{Rejected: 1})
	w.adjustCounters(ctx, reviewer.TelegramID, models.Counters{Reviewed: 1})
	w.notifyPoster(ctx, sub, "MsgSubmissionRejected", nil)
	return sub, nil
}

// FindByCorrelationID resolves a submission from either of its review-group
// surfaces: the review message id or the manage message id.
func (w *Workflow) FindByCorrelationID(ctx context.Context, messageID int) (*models.Submission, error) {
	return w.subs.FindByMessageID(ctx, messageID)
}

// transitionErr converts the repository's guard miss into
// AlreadyReviewedError carrying the current terminal status.
func (w *Workflow) transitionErr(ctx context.Context, id primitive.ObjectID, err error) error {
	if !errors.Is(err, storage.ErrNoPendingSubmission) {
		return err
	}
	current, findErr := w.subs.FindByID(ctx, id)
	if findErr != nil {
		return findErr
	}
	return &AlreadyReviewedError{Status: current.Status}
}

// finishReview rewrites the manage message to the final outcome, dropping
// the action keyboard.
func (w *Workflow) finishReview(ctx context.Context, sub *models.Submission, msgID string, data map[string]interface{}) {
	if sub.ManageMessageID == 0 {
		return
	}
	localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
	text := locales.GetMessage(localizer, msgID, data)
	if _, err := w.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:    tu.ID(w.chats.ReviewGroup.ID),
		MessageID: sub.ManageMessageID,
		Text:      text,
	}); err != nil {
		log.Printf("[Review Sub:%s] Failed to update manage message: %v", sub.ID.Hex(), err)
	}
}

func (w *Workflow) notifyPoster(ctx context.Context, sub *models.Submission, msgID string, data map[string]interface{}) {
	if sub.OriginChatID == 0 {
		return
	}
	localizer := locales.NewLocalizer(locales.DefaultLanguageTag().String())
	text := locales.GetMessage(localizer, msgID, data)
	if _, err := w.bot.SendMessage(ctx, tu.Message(tu.ID(sub.OriginChatID), text)); err != nil {
		log.Printf("[Review Sub:%s] Failed to notify poster %d: %v", sub.ID.Hex(), sub.PosterID, err)
	}
}

// adjustCounters applies a counter delta, tolerating unknown users (the
// reconciler converges the cache later anyway).
func (w *Workflow) adjustCounters(ctx context.Context, telegramID int64, delta models.Counters) {
	if err := w.users.AdjustCounters(ctx, telegramID, delta); err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		log.Printf("[Review] Failed to adjust counters for user %d: %v", telegramID, err)
	}
}

func reviewerName(reviewer *models.User) string {
	if reviewer.Username != "" {
		return "@" + reviewer.Username
	}
	return fmt.Sprintf("%d", reviewer.TelegramID)
}
