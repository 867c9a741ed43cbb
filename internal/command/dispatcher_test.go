package command

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// --- Mocks ---

// MockBot is a mock implementing the telegoapi.BotAPI interface
type MockBot struct {
	mock.Mock
}

func (m *MockBot) GetMe(ctx context.Context) (*telego.User, error) {
	args := m.Called(ctx)
	if user, ok := args.Get(0).(*telego.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) GetChat(ctx context.Context, params *telego.GetChatParams) (*telego.ChatFullInfo, error) {
	args := m.Called(ctx, params)
	if chat, ok := args.Get(0).(*telego.ChatFullInfo); ok {
		return chat, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) CopyMessage(ctx context.Context, params *telego.CopyMessageParams) (*telego.MessageID, error) {
	args := m.Called(ctx, params)
	if msgID, ok := args.Get(0).(*telego.MessageID); ok {
		return msgID, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error) {
	args := m.Called(ctx, params)
	if msg, ok := args.Get(0).(*telego.Message); ok {
		return msg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBot) DeleteMessage(ctx context.Context, params *telego.DeleteMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) PinChatMessage(ctx context.Context, params *telego.PinChatMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) UnpinChatMessage(ctx context.Context, params *telego.UnpinChatMessageParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockBot) SetMyCommands(ctx context.Context, params *telego.SetMyCommandsParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// --- Tests ---

func memberCaller() *models.User {
	return &models.User{ID: 1, TelegramID: 100, Username: "member", Rights: rights.Member}
}

func adminCaller() *models.User {
	return &models.User{ID: 2, TelegramID: 200, Username: "admin", Rights: rights.Admin}
}

func commandMessage(text string) telego.Message {
	return telego.Message{
		MessageID: 42,
		From:      &telego.User{ID: 100, Username: "member", LanguageCode: "en"},
		Chat:      telego.Chat{ID: 500},
		Text:      text,
	}
}

func TestDispatchText(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	t.Run("UnknownTriggerIgnored", func(t *testing.T) {
		mockBot := new(MockBot)
		d := NewDispatcher(NewRegistry(), mockBot)

		outcome := d.DispatchText(ctx, memberCaller(), commandMessage("/unknown"))

		assert.Equal(t, OutcomeIgnored, outcome)
		mockBot.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
	})

	t.Run("HandlerRunsWithParsedArgs", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()

		var gotArgs string
		var gotCaller *models.User
		err := reg.RegisterText("ECHO", rights.Member, "CmdEchoDesc", func(_ context.Context, _ telegoapi.BotAPI, caller *models.User, _ telego.Message, args string) error {
			gotArgs = args
			gotCaller = caller
			return nil
		})
		assert.NoError(t, err)

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchText(ctx, memberCaller(), commandMessage("/echo hello world"))

		assert.Equal(t, OutcomeHandled, outcome)
		assert.Equal(t, "hello world", gotArgs)
		assert.Equal(t, int64(100), gotCaller.TelegramID)
	})

	t.Run("InsufficientRights", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()
		called := false
		assert.NoError(t, reg.RegisterText("RESTART", rights.SuperCmd, "CmdRestartDesc", func(_ context.Context, _ telegoapi.BotAPI, _ *models.User, _ telego.Message, _ string) error {
			called = true
			return nil
		}))

		var captured *telego.SendMessageParams
		mockBot.On("SendMessage", ctx, mock.AnythingOfType("*telego.SendMessageParams")).
			Run(func(args mock.Arguments) {
				captured, _ = args.Get(1).(*telego.SendMessageParams)
			}).
			Return(&telego.Message{}, nil).Once()

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchText(ctx, memberCaller(), commandMessage("/restart"))

		assert.Equal(t, OutcomeUnauthorized, outcome)
		assert.False(t, called, "handler must not run for unauthorized callers")
		mockBot.AssertExpectations(t)

		expected := locales.GetMessage(locales.NewLocalizer("en"), "MsgAccessDenied", nil)
		assert.NotNil(t, captured)
		assert.Equal(t, expected, captured.Text)
	})

	t.Run("HandlerErrorReported", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()
		assert.NoError(t, reg.RegisterText("BROKEN", rights.Member, "CmdBrokenDesc", func(_ context.Context, _ telegoapi.BotAPI, _ *models.User, _ telego.Message, _ string) error {
			return errors.New("boom")
		}))

		mockBot.On("SendMessage", ctx, mock.AnythingOfType("*telego.SendMessageParams")).
			Return(&telego.Message{}, nil).Once()

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchText(ctx, memberCaller(), commandMessage("/broken"))

		assert.Equal(t, OutcomeFailed, outcome)
		mockBot.AssertExpectations(t)
	})
}

func TestDispatchCallback(t *testing.T) {
	locales.Init("en")
	ctx := context.Background()

	query := telego.CallbackQuery{
		ID:   "cbq-1",
		From: telego.User{ID: 200, Username: "admin", LanguageCode: "en"},
		Data: "APPROVE 0123456789abcdef01234567",
	}

	t.Run("ArgsIncludeTrigger", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()

		var gotArgs []string
		assert.NoError(t, reg.RegisterCallback("APPROVE", rights.Admin, func(_ context.Context, _ telegoapi.BotAPI, _ *models.User, _ telego.CallbackQuery, args []string) error {
			gotArgs = args
			return nil
		}))

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchCallback(ctx, adminCaller(), query)

		assert.Equal(t, OutcomeHandled, outcome)
		assert.Equal(t, []string{"APPROVE", "0123456789abcdef01234567"}, gotArgs)
	})

	t.Run("UnknownTriggerIgnored", func(t *testing.T) {
		mockBot := new(MockBot)
		d := NewDispatcher(NewRegistry(), mockBot)

		outcome := d.DispatchCallback(ctx, adminCaller(), query)

		assert.Equal(t, OutcomeIgnored, outcome)
		mockBot.AssertNotCalled(t, "AnswerCallbackQuery", mock.Anything, mock.Anything)
	})

	t.Run("EmptyDataIgnored", func(t *testing.T) {
		mockBot := new(MockBot)
		d := NewDispatcher(NewRegistry(), mockBot)

		empty := query
		empty.Data = "   "
		outcome := d.DispatchCallback(ctx, adminCaller(), empty)

		assert.Equal(t, OutcomeIgnored, outcome)
	})

	t.Run("InsufficientRightsAnsweredWithAlert", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()
		assert.NoError(t, reg.RegisterCallback("APPROVE", rights.Admin, func(_ context.Context, _ telegoapi.BotAPI, _ *models.User, _ telego.CallbackQuery, _ []string) error {
			t.Fatal("handler must not run")
			return nil
		}))

		var captured *telego.AnswerCallbackQueryParams
		mockBot.On("AnswerCallbackQuery", ctx, mock.AnythingOfType("*telego.AnswerCallbackQueryParams")).
			Run(func(args mock.Arguments) {
				captured, _ = args.Get(1).(*telego.AnswerCallbackQueryParams)
			}).
			Return(nil).Once()

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchCallback(ctx, memberCaller(), query)

		assert.Equal(t, OutcomeUnauthorized, outcome)
		mockBot.AssertExpectations(t)
		assert.NotNil(t, captured)
		assert.Equal(t, "cbq-1", captured.CallbackQueryID)
		assert.True(t, captured.ShowAlert)
	})

	t.Run("HandlerErrorReported", func(t *testing.T) {
		mockBot := new(MockBot)
		reg := NewRegistry()
		assert.NoError(t, reg.RegisterCallback("APPROVE", rights.Admin, func(_ context.Context, _ telegoapi.BotAPI, _ *models.User, _ telego.CallbackQuery, _ []string) error {
			return errors.New("boom")
		}))

		mockBot.On("AnswerCallbackQuery", ctx, mock.AnythingOfType("*telego.AnswerCallbackQueryParams")).
			Return(nil).Once()

		d := NewDispatcher(reg, mockBot)
		outcome := d.DispatchCallback(ctx, adminCaller(), query)

		assert.Equal(t, OutcomeFailed, outcome)
		mockBot.AssertExpectations(t)
	})
}
