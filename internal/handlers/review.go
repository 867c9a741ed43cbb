package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/mymmrac/telego"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/review"
	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// HandleApproveCallback accepts the submission named in the callback data.
func (h *Handlers) HandleApproveCallback(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, query telego.CallbackQuery, args []string) error {
	return h.handleReviewCallback(ctx, bot, caller, query, args, func(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
		return h.workflow.Approve(ctx, id, caller)
	})
}

// HandleRejectCallback rejects the submission named in the callback data.
func (h *Handlers) HandleRejectCallback(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, query telego.CallbackQuery, args []string) error {
	return h.handleReviewCallback(ctx, bot, caller, query, args, func(ctx context.Context, id primitive.ObjectID) (*models.Submission, error) {
		return h.workflow.Reject(ctx, id, caller, "")
	})
}

// handleReviewCallback parses the submission id from the callback data and
// runs the reviewer action. A lost transition race is reported to the
// reviewer as an alert with the outcome that won; it is not an error.
func (h *Handlers) handleReviewCallback(
	ctx context.Context,
	bot telegoapi.BotAPI,
	caller *models.User,
	query telego.CallbackQuery,
	args []string,
	action func(ctx context.Context, id primitive.ObjectID) (*models.Submission, error),
) error {
	localizer := h.localizer(&query.From)

	if len(args) != 2 {
		return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgUnknownCallback", nil), true)
	}
	id, err := primitive.ObjectIDFromHex(args[1])
	if err != nil {
		return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgUnknownCallback", nil), true)
	}

	if _, err := action(ctx, id); err != nil {
		var already *review.AlreadyReviewedError
		switch {
		case errors.As(err, &already):
			return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgAlreadyReviewed", map[string]interface{}{
				"Status": already.Status.String(),
			}), true)
		case errors.Is(err, storage.ErrSubmissionNotFound):
			return h.answer(ctx, bot, query, locales.GetMessage(localizer, "MsgSubmissionNotFound", nil), true)
		default:
			log.Printf("[Callback:%s User:%d] Review action failed: %v", args[0], caller.TelegramID, err)
			return err
		}
	}
	return h.answer(ctx, bot, query, "", false)
}
