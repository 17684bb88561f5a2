// Package handler carries the state shared by every message-bound handler:
// the bound message, the authorized-user set, the expiry clock and the
// serialization lock.
package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrClosed signals that a handler must be evicted by its registry. It
	// is control flow at the registry boundary, not a user-facing failure.
	ErrClosed = errors.New("handler closed")

	// ErrNotFound is returned when no handler is registered for the target
	// message.
	ErrNotFound = errors.New("handler not found")

	// ErrAlreadyOpen rejects opening a handler that is already bound.
	ErrAlreadyOpen = errors.New("handler already bound to a message")
)

// Handler is the capability set a dispatch registry manages, independent of
// the event type the concrete handler consumes.
type Handler interface {
	Open(ctx context.Context, message *discordgo.Message) error
	Close(ctx context.Context) error
	Expired() bool
	LastTriggered() time.Time
}

// Base implements the bound/unbound state machine. Field access is guarded
// by a read-write lock; callback execution is serialized by a separate run
// lock so a slow callback never blocks expiry checks.
type Base struct {
	stateMu       sync.RWMutex
	message       *discordgo.Message
	authors       map[string]struct{}
	lastTriggered time.Time
	timeout       time.Duration

	runMu sync.Mutex
}

// NewBase returns a Base with the expiry clock started at construction, so
// a handler that is never triggered still times out.
func NewBase(authors []string, timeout time.Duration) *Base {
	set := make(map[string]struct{}, len(authors))
	for _, id := range authors {
		set[id] = struct{}{}
	}
	return &Base{
		authors:       set,
		lastTriggered: time.Now(),
		timeout:       timeout,
	}
}

// Bind attaches the handler to a message. It fails when already bound; the
// owning registry only opens fresh handlers.
func (b *Base) Bind(message *discordgo.Message) error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if b.message != nil {
		return ErrAlreadyOpen
	}
	b.message = message
	return nil
}

// Unbind detaches the bound message and returns it, or nil when the handler
// was not bound. Safe to call repeatedly.
func (b *Base) Unbind() *discordgo.Message {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	m := b.message
	b.message = nil
	return m
}

// Message returns the currently bound message, nil when unbound.
func (b *Base) Message() *discordgo.Message {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.message
}

// Bound reports whether the handler currently targets a message.
func (b *Base) Bound() bool {
	return b.Message() != nil
}

// Expired reports whether the time since the last trigger exceeds the
// timeout. A zero timeout never expires.
func (b *Base) Expired() bool {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if b.timeout <= 0 {
		return false
	}
	return time.Since(b.lastTriggered) > b.timeout
}

// LastTriggered returns when a callback last ran, or the construction time
// if none has.
func (b *Base) LastTriggered() time.Time {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.lastTriggered
}

// Timeout returns how long the handler waits after the last trigger before
// expiring.
func (b *Base) Timeout() time.Duration {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.timeout
}

// Touch moves the expiry clock to now.
func (b *Base) Touch() {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	b.lastTriggered = time.Now()
}

// Authorized reports whether the user may trigger this handler. An empty
// author set means the handler is public.
func (b *Base) Authorized(userID string) bool {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	if len(b.authors) == 0 {
		return true
	}
	_, ok := b.authors[userID]
	return ok
}

// AddAuthor adds a user to the authorized set.
func (b *Base) AddAuthor(userID string) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	if b.authors == nil {
		b.authors = make(map[string]struct{})
	}
	b.authors[userID] = struct{}{}
}

// RemoveAuthor removes a user from the authorized set. Removing an unknown
// user passes silently.
func (b *Base) RemoveAuthor(userID string) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	delete(b.authors, userID)
}

// Authors returns a copy of the authorized-user set.
func (b *Base) Authors() []string {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	out := make([]string, 0, len(b.authors))
	for id := range b.authors {
		out = append(out, id)
	}
	return out
}

// Run serializes callback execution: exactly one callback at a time per
// handler, with the expiry clock touched after a successful run.
func (b *Base) Run(fn func() error) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if err := fn(); err != nil {
		return err
	}
	b.Touch()
	return nil
}
