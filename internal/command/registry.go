// Package command implements the rights-gated command catalog and the
// dispatch boundary that routes text commands and callback queries to
// their handlers.
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"

	"submitdesk-bot/internal/rights"
	"submitdesk-bot/internal/storage/models"
	"submitdesk-bot/pkg/telegoapi"
)

// Kind distinguishes text-message triggers from callback-query triggers.
type Kind int

const (
	KindText Kind = iota
	KindCallback
)

func (k Kind) String() string {
	if k == KindCallback {
		return "callback"
	}
	return "text"
}

// TextHandler handles a text command. args is the raw remainder of the
// message after the trigger token.
type TextHandler func(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, message telego.Message, args string) error

// CallbackHandler handles a callback-query command. args holds the full
// delimited token sequence, trigger included, so positional indices match
// the wire encoding.
type CallbackHandler func(ctx context.Context, bot telegoapi.BotAPI, caller *models.User, query telego.CallbackQuery, args []string) error

// Binding is one (trigger, kind) entry of the command catalog. Bindings are
// built once at startup and read-only afterwards.
type Binding struct {
	Trigger        string // upper-cased
	Kind           Kind
	Rights         rights.Level
	DescriptionKey string

	textHandler     TextHandler
	callbackHandler CallbackHandler
}

// DuplicateTriggerError reports a (trigger, kind) pair registered twice.
// It indicates a startup misconfiguration and is fatal.
type DuplicateTriggerError struct {
	Trigger string
	Kind    Kind
}

func (e *DuplicateTriggerError) Error() string {
	return fmt.Sprintf("duplicate %s command trigger %q", e.Kind, e.Trigger)
}

type bindingKey struct {
	trigger string
	kind    Kind
}

// Registry is the static catalog of command bindings.
type Registry struct {
	bindings map[bindingKey]*Binding
	order    []*Binding // registration order, for stable menus
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[bindingKey]*Binding)}
}

func normalizeTrigger(trigger string) string {
	return strings.ToUpper(strings.TrimSpace(trigger))
}

func (r *Registry) add(b *Binding) error {
	key := bindingKey{trigger: b.Trigger, kind: b.Kind}
	if _, exists := r.bindings[key]; exists {
		return &DuplicateTriggerError{Trigger: b.Trigger, Kind: b.Kind}
	}
	r.bindings[key] = b
	r.order = append(r.order, b)
	return nil
}

// RegisterText binds a text command trigger to a handler.
func (r *Registry) RegisterText(trigger string, level rights.Level, descriptionKey string, handler TextHandler) error {
	return r.add(&Binding{
		Trigger:        normalizeTrigger(trigger),
		Kind:           KindText,
		Rights:         level,
		DescriptionKey: descriptionKey,
		textHandler:    handler,
	})
}

// RegisterCallback binds a callback-query trigger to a handler.
func (r *Registry) RegisterCallback(trigger string, level rights.Level, handler CallbackHandler) error {
	return r.add(&Binding{
		Trigger:         normalizeTrigger(trigger),
		Kind:            KindCallback,
		Rights:          level,
		callbackHandler: handler,
	})
}

// Lookup returns the binding for (trigger, kind) after normalization, or
// nil when the trigger is unknown.
func (r *Registry) Lookup(trigger string, kind Kind) *Binding {
	return r.bindings[bindingKey{trigger: normalizeTrigger(trigger), kind: kind}]
}

// MenuEntry is one displayable command menu row.
type MenuEntry struct {
	Trigger        string
	DescriptionKey string
}

// Menu returns the text commands the caller may invoke, in registration
// order so the menu stays deterministic across restarts.
func (r *Registry) Menu(callerLevel rights.Level) []MenuEntry {
	var entries []MenuEntry
	for _, b := range r.order {
		if b.Kind != KindText {
			continue
		}
		if !rights.Satisfies(callerLevel, b.Rights) {
			continue
		}
		entries = append(entries, MenuEntry{Trigger: b.Trigger, DescriptionKey: b.DescriptionKey})
	}
	return entries
}
