package channels

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"submitdesk-bot/internal/config"
)

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

// --- Helpers ---

func chatRef(ref string) interface{} {
	return mock.MatchedBy(func(params *telego.GetChatParams) bool {
		if params.ChatID.Username != "" {
			return params.ChatID.Username == ref
		}
		return chatID(ref) == params.ChatID
	})
}

func fullChat(id int64, title, username string) *telego.ChatFullInfo {
	return &telego.ChatFullInfo{ID: id, Title: title, Username: username}
}

func baseConfig() *config.Config {
	return &config.Config{
		AcceptChannel: "@accepted",
		RejectChannel: "@rejected",
		ReviewGroup:   "-100333",
		CommentGroup:  "@comments",
		SubGroup:      "@subs",
	}
}

func expectBotUser(m *MockBot) {
	m.On("GetMe", mock.Anything).Return(&telego.User{ID: 1, Username: "submitdesk_bot"}, nil).Once()
}

// --- Tests ---

func TestInitResolvesAllChats(t *testing.T) {
	ctx := context.Background()
	mockBot := new(MockBot)
	expectBotUser(mockBot)
	mockBot.On("GetChat", ctx, chatRef("@accepted")).Return(fullChat(-100111, "Accepted", "accepted"), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("@rejected")).Return(fullChat(-100222, "Rejected", "rejected"), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("-100333")).Return(fullChat(-100333, "Review", ""), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("@comments")).Return(fullChat(-100444, "Comments", "comments"), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("@subs")).Return(fullChat(-100555, "Subs", "subs"), nil).Once()

	snap, err := Init(ctx, mockBot, baseConfig())

	assert.NoError(t, err)
	assert.Equal(t, int64(1), snap.BotUser.ID)
	assert.Equal(t, int64(-100111), snap.AcceptChannel.ID)
	assert.Equal(t, int64(-100222), snap.RejectChannel.ID)
	assert.Equal(t, int64(-100333), snap.ReviewGroup.ID)
	assert.Equal(t, int64(-100444), snap.CommentGroup.ID)
	assert.Equal(t, int64(-100555), snap.SubGroup.ID)
	assert.True(t, snap.ReviewGroup.Resolved())
	mockBot.AssertExpectations(t)
}

func TestInitAcceptChannelIsRequired(t *testing.T) {
	ctx := context.Background()
	mockBot := new(MockBot)
	expectBotUser(mockBot)
	mockBot.On("GetChat", ctx, chatRef("@accepted")).Return(nil, errors.New("chat not found")).Once()

	_, err := Init(ctx, mockBot, baseConfig())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accept channel")
}

func TestInitGroupsDegradeToSentinel(t *testing.T) {
	ctx := context.Background()
	mockBot := new(MockBot)
	expectBotUser(mockBot)
	mockBot.On("GetChat", ctx, chatRef("@accepted")).Return(fullChat(-100111, "Accepted", "accepted"), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("@rejected")).Return(fullChat(-100222, "Rejected", "rejected"), nil).Once()
	mockBot.On("GetChat", ctx, chatRef("-100333")).Return(nil, errors.New("chat not found")).Once()
	mockBot.On("GetChat", ctx, chatRef("@comments")).Return(nil, errors.New("chat not found")).Once()
	mockBot.On("GetChat", ctx, chatRef("@subs")).Return(nil, errors.New("chat not found")).Once()

	snap, err := Init(ctx, mockBot, baseConfig())

	assert.NoError(t, err)
	assert.False(t, snap.ReviewGroup.Resolved())
	assert.False(t, snap.CommentGroup.Resolved())
	assert.False(t, snap.SubGroup.Resolved())
	assert.Equal(t, UnresolvedChatID, snap.ReviewGroup.ID)
}

func TestInitGroupAliasing(t *testing.T) {
	ctx := context.Background()

	t.Run("SubAliasesComment", func(t *testing.T) {
		mockBot := new(MockBot)
		expectBotUser(mockBot)
		mockBot.On("GetChat", ctx, chatRef("@accepted")).Return(fullChat(-100111, "Accepted", "accepted"), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("@rejected")).Return(fullChat(-100222, "Rejected", "rejected"), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("-100333")).Return(fullChat(-100333, "Review", ""), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("@comments")).Return(fullChat(-100444, "Comments", "comments"), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("@subs")).Return(nil, errors.New("chat not found")).Once()

		snap, err := Init(ctx, mockBot, baseConfig())

		assert.NoError(t, err)
		assert.Equal(t, snap.CommentGroup, snap.SubGroup)
		assert.Equal(t, int64(-100444), snap.SubGroup.ID)
	})

	t.Run("CommentAliasesSub", func(t *testing.T) {
		mockBot := new(MockBot)
		expectBotUser(mockBot)
		mockBot.On("GetChat", ctx, chatRef("@accepted")).Return(fullChat(-100111, "Accepted", "accepted"), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("@rejected")).Return(fullChat(-100222, "Rejected", "rejected"), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("-100333")).Return(fullChat(-100333, "Review", ""), nil).Once()
		mockBot.On("GetChat", ctx, chatRef("@comments")).Return(nil, errors.New("chat not found")).Once()
		mockBot.On("GetChat", ctx, chatRef("@subs")).Return(fullChat(-100555, "Subs", "subs"), nil).Once()

		snap, err := Init(ctx, mockBot, baseConfig())

		assert.NoError(t, err)
		assert.Equal(t, snap.SubGroup, snap.CommentGroup)
		assert.Equal(t, int64(-100555), snap.CommentGroup.ID)
	})
}

func TestChatInfoResolved(t *testing.T) {
	assert.False(t, ChatInfo{}.Resolved())
	assert.False(t, ChatInfo{ID: UnresolvedChatID}.Resolved())
	assert.True(t, ChatInfo{ID: -100111}.Resolved())
}
