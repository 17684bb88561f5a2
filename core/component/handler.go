package component

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/cordial/core/handler"
)

// Callback handles one component activation through its Context.
type Callback func(ctx context.Context, ictx *Context) error

// Handler receives the component interactions for one message.
type Handler interface {
	handler.Handler
	OnInteractionEvent(ctx context.Context, ictx *Context) error
}

type executorSettings struct {
	authors []string
	timeout time.Duration
	table   map[string]Callback
}

// ExecutorOption configures an Executor at construction.
type ExecutorOption func(*executorSettings)

// WithAuthors restricts which users may activate the components.
func WithAuthors(userIDs ...string) ExecutorOption {
	return func(s *executorSettings) {
		s.authors = append(s.authors, userIDs...)
	}
}

// WithTimeout overrides the default expiry timeout. Zero disables expiry.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(s *executorSettings) {
		s.timeout = d
	}
}

// WithCallbacks registers a full custom-id callback table up front.
func WithCallbacks(table map[string]Callback) ExecutorOption {
	return func(s *executorSettings) {
		for id, cb := range table {
			s.table[id] = cb
		}
	}
}

const defaultTimeout = 30 * time.Second

// Executor dispatches component activations to callbacks keyed by custom id.
type Executor struct {
	*handler.Base

	cbMu      sync.RWMutex
	callbacks map[string]Callback
}

// NewExecutor constructs an unbound executor. Registration order does not
// matter; the last callback registered for a custom id wins.
func NewExecutor(opts ...ExecutorOption) *Executor {
	settings := executorSettings{
		timeout: defaultTimeout,
		table:   make(map[string]Callback),
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &Executor{
		Base:      handler.NewBase(settings.authors, settings.timeout),
		callbacks: settings.table,
	}
}

// AddCallback registers cb for the custom id, replacing any previous one.
func (e *Executor) AddCallback(customID string, cb Callback) *Executor {
	e.cbMu.Lock()
	e.callbacks[customID] = cb
	e.cbMu.Unlock()
	return e
}

// RemoveCallback drops the callback for the custom id.
func (e *Executor) RemoveCallback(customID string) {
	e.cbMu.Lock()
	delete(e.callbacks, customID)
	e.cbMu.Unlock()
}

func (e *Executor) callback(customID string) (Callback, bool) {
	e.cbMu.RLock()
	cb, ok := e.callbacks[customID]
	e.cbMu.RUnlock()
	return cb, ok
}

// Open binds the executor to the message carrying its components.
func (e *Executor) Open(_ context.Context, message *discordgo.Message) error {
	return e.Bind(message)
}

// Close unbinds the executor. Safe to call repeatedly.
func (e *Executor) Close(_ context.Context) error {
	e.Unbind()
	return nil
}

// OnInteractionEvent routes one activation. Expired executors report
// handler.ErrClosed so the registry can collect them; activations from
// outside the author set and unknown custom ids are ignored.
func (e *Executor) OnInteractionEvent(ctx context.Context, ictx *Context) error {
	if e.Expired() {
		return handler.ErrClosed
	}
	if !e.Bound() || !e.Authorized(ictx.UserID()) {
		return nil
	}
	cb, ok := e.callback(ictx.CustomID())
	if !ok {
		return nil
	}
	return e.Run(func() error {
		return cb(ctx, ictx)
	})
}
