package reaction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"
	"log/slog"

	"github.com/m3rciful/cordial/core/config"
	"github.com/m3rciful/cordial/core/discord"
	"github.com/m3rciful/cordial/core/handler"
	"github.com/m3rciful/cordial/core/logger"
)

const defaultSweepInterval = 5 * time.Second

// Client routes gateway reaction events to the handlers registered for
// their messages and garbage-collects handlers past their timeout.
type Client struct {
	mu       sync.Mutex
	handlers map[string]Handler

	blacklistMu sync.RWMutex
	blacklist   map[string]struct{}

	sweepInterval time.Duration

	cancelSweep context.CancelFunc
	sweepDone   chan struct{}
	detach      []func()
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSweepInterval overrides how often expired handlers are collected.
func WithSweepInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.sweepInterval = d
		}
	}
}

// WithBlacklist pre-populates the set of users whose reactions are ignored.
func WithBlacklist(userIDs ...string) ClientOption {
	return func(c *Client) {
		for _, id := range userIDs {
			c.blacklist[id] = struct{}{}
		}
	}
}

// WithClientConfig applies registry tuning from configuration.
func WithClientConfig(cfg config.ReactionConfig, h config.HandlerConfig) ClientOption {
	return func(c *Client) {
		for _, id := range cfg.Blacklist {
			c.blacklist[id] = struct{}{}
		}
		if iv := h.SweepInterval(); iv > 0 {
			c.sweepInterval = iv
		}
	}
}

// NewClient constructs an empty registry. Call Open to subscribe it to a
// gateway event source.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		handlers:      make(map[string]Handler),
		blacklist:     make(map[string]struct{}),
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SeedSelfBlacklist adds the bot's own user to the blacklist so the
// reaction markers a paginator attaches never trigger it.
func (c *Client) SeedSelfBlacklist(ctx context.Context, users discord.UserClient) error {
	self, err := users.User("@me")
	if err != nil {
		return err
	}
	c.BlockUser(self.ID)
	logger.Debug(ctx, "reaction", "client.self_blacklisted",
		slog.String("user_id", self.ID))
	return nil
}

// BlockUser ignores all further reactions from the given user.
func (c *Client) BlockUser(userID string) {
	c.blacklistMu.Lock()
	c.blacklist[userID] = struct{}{}
	c.blacklistMu.Unlock()
}

// UnblockUser lifts a block set by BlockUser or the configured blacklist.
func (c *Client) UnblockUser(userID string) {
	c.blacklistMu.Lock()
	delete(c.blacklist, userID)
	c.blacklistMu.Unlock()
}

func (c *Client) blocked(userID string) bool {
	c.blacklistMu.RLock()
	_, ok := c.blacklist[userID]
	c.blacklistMu.RUnlock()
	return ok
}

// Register opens the handler against its message and tracks it for event
// dispatch. For a handler that is already open (a paginator bound by
// CreateMessage) use Track instead.
func (c *Client) Register(ctx context.Context, message *discordgo.Message, h Handler) error {
	if err := h.Open(ctx, message); err != nil {
		return err
	}
	c.Track(ctx, message.ID, h)
	return nil
}

// Track stores an already-open handler under the message id without calling
// Open on it, replacing and closing any previous entry.
func (c *Client) Track(ctx context.Context, messageID string, h Handler) {
	c.mu.Lock()
	prev, existed := c.handlers[messageID]
	c.handlers[messageID] = h
	c.mu.Unlock()

	if existed {
		if err := prev.Close(ctx); err != nil {
			logger.Warn(ctx, "reaction", "client.replace_close_failed",
				slog.String("message_id", messageID),
				slog.String("err", err.Error()))
		}
	}
}

// RegisterPaginator sends the paginator's first page to the channel and
// tracks the resulting message in one step.
func (c *Client) RegisterPaginator(ctx context.Context, channelID string, p *Paginator) (*discordgo.Message, error) {
	message, err := p.CreateMessage(ctx, channelID)
	if err != nil {
		return nil, err
	}
	c.Track(ctx, message.ID, p)
	return message, nil
}

// Deregister removes and closes the handler bound to the message.
// It reports handler.ErrNotFound when nothing is registered for it.
func (c *Client) Deregister(ctx context.Context, messageID string) error {
	h, ok := c.pop(messageID)
	if !ok {
		return handler.ErrNotFound
	}
	return h.Close(ctx)
}

func (c *Client) pop(messageID string) (Handler, bool) {
	c.mu.Lock()
	h, ok := c.handlers[messageID]
	if ok {
		delete(c.handlers, messageID)
	}
	c.mu.Unlock()
	return h, ok
}

func (c *Client) lookup(messageID string) (Handler, bool) {
	c.mu.Lock()
	h, ok := c.handlers[messageID]
	c.mu.Unlock()
	return h, ok
}

// Len reports how many handlers are currently registered.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Open subscribes the registry to reaction add and remove events and starts
// the expiry sweep. It is not safe to call Open twice without Close.
func (c *Client) Open(ctx context.Context, src discord.EventSource) {
	c.detach = append(c.detach,
		src.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageReactionAdd) {
			c.dispatch(ctx, e.MessageReaction)
		}),
		src.AddHandler(func(_ *discordgo.Session, e *discordgo.MessageReactionRemove) {
			c.dispatch(ctx, e.MessageReaction)
		}),
	)

	sweepCtx, cancel := context.WithCancel(ctx)
	c.cancelSweep = cancel
	c.sweepDone = make(chan struct{})
	go c.sweep(sweepCtx)
}

// Close stops the sweep, detaches the event subscriptions and closes every
// registered handler.
func (c *Client) Close(ctx context.Context) error {
	if c.cancelSweep != nil {
		c.cancelSweep()
		<-c.sweepDone
		c.cancelSweep = nil
	}
	for _, detach := range c.detach {
		detach()
	}
	c.detach = nil

	c.mu.Lock()
	remaining := c.handlers
	c.handlers = make(map[string]Handler)
	c.mu.Unlock()

	var g errgroup.Group
	for _, h := range remaining {
		h := h
		g.Go(func() error {
			return h.Close(ctx)
		})
	}
	return g.Wait()
}

// dispatch routes one reaction event. Events from blacklisted users and
// events for untracked messages are dropped without error.
func (c *Client) dispatch(ctx context.Context, event *discordgo.MessageReaction) {
	if c.blocked(event.UserID) {
		return
	}
	h, ok := c.lookup(event.MessageID)
	if !ok {
		return
	}

	ctx = logger.WithEventMeta(ctx, event.MessageID, event.UserID)
	err := h.OnReactionEvent(ctx, event)
	switch {
	case err == nil:
	case errors.Is(err, handler.ErrClosed):
		// The handler ended itself (stop trigger or expiry race). Remove it
		// and release its resources.
		if popped, ok := c.pop(event.MessageID); ok {
			if cerr := popped.Close(ctx); cerr != nil {
				logger.Warn(ctx, "reaction", "dispatch.close_failed",
					slog.String("err", cerr.Error()))
			}
		}
		logger.Debug(ctx, "reaction", "dispatch.handler_closed")
	default:
		logger.Error(ctx, "reaction", "dispatch.callback_failed",
			slog.String("emoji", discord.ReactionKey(event)),
			slog.String("err", err.Error()))
	}
}

func (c *Client) sweep(ctx context.Context) {
	defer close(c.sweepDone)
	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.collectExpired(ctx)
		}
	}
}

func (c *Client) collectExpired(ctx context.Context) {
	c.mu.Lock()
	var expired []string
	for id, h := range c.handlers {
		if h.Expired() {
			expired = append(expired, id)
		}
	}
	c.mu.Unlock()

	for _, id := range expired {
		h, ok := c.pop(id)
		if !ok {
			continue
		}
		if err := h.Close(ctx); err != nil {
			logger.Warn(ctx, "reaction", "sweep.close_failed",
				slog.String("message_id", id),
				slog.String("err", err.Error()))
			continue
		}
		logger.Debug(ctx, "reaction", "sweep.closed",
			slog.String("message_id", id))
	}
	if len(expired) > 0 {
		logger.Info(ctx, "reaction", "sweep.collected",
			slog.Int("handlers", len(expired)))
	}
}
