package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
)

// MockChannelPolicyRepository is a mock for storage.ChannelPolicyRepository
type MockChannelPolicyRepository struct {
	mock.Mock
}

func (m *MockChannelPolicyRepository) FindByTitle(ctx context.Context, title string) (*models.ChannelPolicy, error) {
	args := m.Called(ctx, title)
	if policy, ok := args.Get(0).(*models.ChannelPolicy); ok {
		return policy, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChannelPolicyRepository) FindByChannelID(ctx context.Context, channelID int64) (*models.ChannelPolicy, error) {
	args := m.Called(ctx, channelID)
	if policy, ok := args.Get(0).(*models.ChannelPolicy); ok {
		return policy, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChannelPolicyRepository) Create(ctx context.Context, policy *models.ChannelPolicy) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *MockChannelPolicyRepository) UpdateOption(ctx context.Context, channelID int64, option models.ChannelOption) error {
	args := m.Called(ctx, channelID, option)
	return args.Error(0)
}

func TestFetchByTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownChannelIsNotAnError", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		repo.On("FindByTitle", ctx, "Unseen Channel").Return(nil, storage.ErrPolicyNotFound).Once()

		engine := NewEngine(repo)
		policy, err := engine.FetchByTitle(ctx, "Unseen Channel")

		assert.NoError(t, err)
		assert.Nil(t, policy)
		repo.AssertExpectations(t)
	})

	t.Run("KnownChannel", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		want := &models.ChannelPolicy{ChannelID: -100123, ChannelTitle: "Some Channel", Option: models.OptionPurgeOrigin}
		repo.On("FindByTitle", ctx, "Some Channel").Return(want, nil).Once()

		engine := NewEngine(repo)
		policy, err := engine.FetchByTitle(ctx, "Some Channel")

		assert.NoError(t, err)
		assert.Equal(t, want, policy)
	})
}

func TestEnsureByTitle(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNormalOnFirstSight", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		repo.On("FindByTitle", ctx, "New Channel").Return(nil, storage.ErrPolicyNotFound).Once()

		var created *models.ChannelPolicy
		repo.On("Create", ctx, mock.AnythingOfType("*models.ChannelPolicy")).
			Run(func(args mock.Arguments) {
				created, _ = args.Get(1).(*models.ChannelPolicy)
			}).
			Return(nil).Once()

		engine := NewEngine(repo)
		policy, err := engine.EnsureByTitle(ctx, -100456, "New Channel")

		assert.NoError(t, err)
		assert.Equal(t, models.OptionNormal, policy.Option)
		assert.NotNil(t, created)
		assert.Equal(t, int64(-100456), created.ChannelID)
		assert.Equal(t, "New Channel", created.ChannelTitle)
		repo.AssertExpectations(t)
	})

	t.Run("ReturnsExistingWithoutCreate", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		want := &models.ChannelPolicy{ChannelID: -100123, ChannelTitle: "Seen", Option: models.OptionAutoReject}
		repo.On("FindByTitle", ctx, "Seen").Return(want, nil).Once()

		engine := NewEngine(repo)
		policy, err := engine.EnsureByTitle(ctx, -100123, "Seen")

		assert.NoError(t, err)
		assert.Equal(t, models.OptionAutoReject, policy.Option)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownChannel", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		repo.On("UpdateOption", ctx, int64(-1), models.OptionAutoReject).Return(storage.ErrPolicyNotFound).Once()

		engine := NewEngine(repo)
		_, err := engine.Update(ctx, -1, models.OptionAutoReject)

		var notFound *ChannelNotFoundError
		assert.ErrorAs(t, err, &notFound)
		assert.Equal(t, int64(-1), notFound.ChannelID)
	})

	t.Run("Success", func(t *testing.T) {
		repo := new(MockChannelPolicyRepository)
		updated := &models.ChannelPolicy{ChannelID: -100123, ChannelTitle: "Seen", Option: models.OptionPurgeOrigin}
		repo.On("UpdateOption", ctx, int64(-100123), models.OptionPurgeOrigin).Return(nil).Once()
		repo.On("FindByChannelID", ctx, int64(-100123)).Return(updated, nil).Once()

		engine := NewEngine(repo)
		policy, err := engine.Update(ctx, -100123, models.OptionPurgeOrigin)

		assert.NoError(t, err)
		assert.Equal(t, models.OptionPurgeOrigin, policy.Option)
		repo.AssertExpectations(t)
	})
}

func TestParseOption(t *testing.T) {
	tests := []struct {
		input string
		want  models.ChannelOption
		ok    bool
	}{
		{"normal", models.OptionNormal, true},
		{"purgeorigin", models.OptionPurgeOrigin, true},
		{"autoreject", models.OptionAutoReject, true},
		{"", "", false},
		{"PURGEORIGIN", "", false},
		{"delete", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseOption(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
