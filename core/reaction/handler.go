// Package reaction routes reaction-added/removed gateway events to
// per-message handlers and drives reaction-based pagination.
package reaction

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/cordial/core/discord"
	"github.com/m3rciful/cordial/core/handler"
)

// Callback handles one reaction event for a registered trigger emoji.
type Callback func(ctx context.Context, event *discordgo.MessageReaction) error

// Handler is a message-bound reaction handler managed by a Client.
type Handler interface {
	handler.Handler
	OnReactionEvent(ctx context.Context, event *discordgo.MessageReaction) error
}

// Router is the plain callback router: a table from emoji trigger keys to
// callbacks, bound to one message.
type Router struct {
	*handler.Base

	cbMu      sync.RWMutex
	callbacks map[string]Callback
}

type routerSettings struct {
	authors []string
	timeout time.Duration
	table   map[string]Callback
}

// RouterOption configures a Router at construction.
type RouterOption func(*routerSettings)

// WithAuthors restricts triggering to the given user ids. An empty set
// leaves the handler public.
func WithAuthors(userIDs ...string) RouterOption {
	return func(s *routerSettings) {
		s.authors = append(s.authors, userIDs...)
	}
}

// WithTimeout overrides the default 30s expiry timeout.
func WithTimeout(d time.Duration) RouterOption {
	return func(s *routerSettings) {
		s.timeout = d
	}
}

// WithCallbacks supplies the full callback table at construction.
func WithCallbacks(table map[string]Callback) RouterOption {
	return func(s *routerSettings) {
		if s.table == nil {
			s.table = make(map[string]Callback, len(table))
		}
		for key, cb := range table {
			s.table[key] = cb
		}
	}
}

const defaultTimeout = 30 * time.Second

// NewRouter constructs an unbound Router.
func NewRouter(opts ...RouterOption) *Router {
	settings := routerSettings{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&settings)
	}

	r := &Router{
		Base:      handler.NewBase(settings.authors, settings.timeout),
		callbacks: make(map[string]Callback),
	}
	for key, cb := range settings.table {
		r.callbacks[key] = cb
	}
	return r
}

// AddCallback registers a callback for an emoji trigger key. The last
// registration for a key wins.
func (r *Router) AddCallback(key string, cb Callback) *Router {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks[key] = cb
	return r
}

// RemoveCallback drops the callback for a trigger key.
func (r *Router) RemoveCallback(key string) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	delete(r.callbacks, key)
}

func (r *Router) callback(key string) (Callback, bool) {
	r.cbMu.RLock()
	defer r.cbMu.RUnlock()
	cb, ok := r.callbacks[key]
	return cb, ok
}

// Open binds the router to a message.
func (r *Router) Open(_ context.Context, message *discordgo.Message) error {
	return r.Bind(message)
}

// Close unbinds the router. Safe to call repeatedly.
func (r *Router) Close(_ context.Context) error {
	r.Unbind()
	return nil
}

// OnReactionEvent applies the handler state machine to one event: expired
// handlers signal eviction, unbound or unauthorized events are ignored,
// and a matched callback runs serialized under the handler's lock.
func (r *Router) OnReactionEvent(ctx context.Context, event *discordgo.MessageReaction) error {
	if r.Expired() {
		return handler.ErrClosed
	}
	if !r.Bound() || !r.Authorized(event.UserID) {
		return nil
	}

	key := discord.ReactionKey(event)
	cb, ok := r.callback(key)
	if !ok {
		return nil
	}

	return r.Run(func() error {
		return cb(ctx, event)
	})
}
