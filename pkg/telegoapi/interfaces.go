package telegoapi

import (
	"context"

	"github.com/mymmrac/telego"
)

// BotAPI is the outbound platform contract used across packages. It covers
// the subset of telego.Bot the application calls, so tests can substitute
// mocks.
type BotAPI interface {
	GetMe(ctx context.Context) (*telego.User, error)
	GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error)

	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	CopyMessage(ctx context.Context, params *telego.CopyMessageParams) (*telego.MessageID, error)
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
	DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error

	PinChatMessage(ctx context.Context, params *telego.PinChatMessageParams) error
	UnpinChatMessage(ctx context.Context, params *telego.UnpinChatMessageParams) error

	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
	SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error
}
