// Package policy stores and applies per-origin-channel handling rules.
package policy

import (
	"context"
	"errors"
	"fmt"

	"submitdesk-bot/internal/storage"
	"submitdesk-bot/internal/storage/models"
)

// ChannelNotFoundError reports a policy update against a channel that was
// never seen.
type ChannelNotFoundError struct {
	ChannelID int64
}

func (e *ChannelNotFoundError) Error() string {
	return fmt.Sprintf("channel %d not found", e.ChannelID)
}

// Engine is the channel policy store. Reads vastly outnumber writes; all
// contention is pushed down to the repository.
type Engine struct {
	repo storage.ChannelPolicyRepository
}

// NewEngine creates a policy engine over the given repository.
func NewEngine(repo storage.ChannelPolicyRepository) *Engine {
	return &Engine{repo: repo}
}

// FetchByTitle looks a policy up by channel title, the stable identity a
// reposted submission carries at ingestion time. Returns nil when the
// channel was never seen.
func (e *Engine) FetchByTitle(ctx context.Context, title string) (*models.ChannelPolicy, error) {
	policy, err := e.repo.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, storage.ErrPolicyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return policy, nil
}

// EnsureByTitle returns the policy for the channel, lazily creating a
// Normal record on first sight.
func (e *Engine) EnsureByTitle(ctx context.Context, channelID int64, title string) (*models.ChannelPolicy, error) {
	policy, err := e.FetchByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if policy != nil {
		return policy, nil
	}

	policy = &models.ChannelPolicy{
		ChannelID:    channelID,
		ChannelTitle: title,
		Option:       models.OptionNormal,
	}
	if err := e.repo.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

// Update changes the handling rule for a known channel.
func (e *Engine) Update(ctx context.Context, channelID int64, option models.ChannelOption) (*models.ChannelPolicy, error) {
	if err := e.repo.UpdateOption(ctx, channelID, option); err != nil {
		if errors.Is(err, storage.ErrPolicyNotFound) {
			return nil, &ChannelNotFoundError{ChannelID: channelID}
		}
		return nil, err
	}
	return e.repo.FindByChannelID(ctx, channelID)
}

// ParseOption maps a callback keyword to a ChannelOption.
func ParseOption(s string) (models.ChannelOption, bool) {
	switch models.ChannelOption(s) {
	case models.OptionNormal, models.OptionPurgeOrigin, models.OptionAutoReject:
		return models.ChannelOption(s), true
	default:
		return "", false
	}
}

// OptionDescriptionKey returns the locale key describing an option.
func OptionDescriptionKey(option models.ChannelOption) string {
	switch option {
	case models.OptionPurgeOrigin:
		return "OptionPurgeOrigin"
	case models.OptionAutoReject:
		return "OptionAutoReject"
	default:
		return "OptionNormal"
	}
}
