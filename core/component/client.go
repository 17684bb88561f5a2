package component

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

// ErrNoResponse reports a synchronously delivered interaction whose
// callback finished without producing an initial response. The HTTP caller
// has nothing to return to Discord, so this is a protocol violation by the
// callback.
var ErrNoResponse = errors.New("component: callback finished without a response")

const defaultSweepInterval = 5 * time.Second

// Client routes component interactions to the handlers registered for their
// messages. Interactions arrive either as gateway events (Open subscribes
// them) or as HTTP requests handed to HandleRequest.
type Client struct {
	rest discord.InteractionClient

	mu       sync.Mutex
	handlers map[string]Handler

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

// WithClientConfig applies registry tuning from configuration.
func WithClientConfig(cfg config.HandlerConfig) ClientOption {
	return func(c *Client) {
		if iv := cfg.SweepInterval(); iv > 0 {
			c.sweepInterval = iv
		}
	}
}

// NewClient constructs an empty registry responding through rest.
func NewClient(rest discord.InteractionClient, opts ...ClientOption) *Client {
	c := &Client{
		rest:          rest,
		handlers:      make(map[string]Handler),
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register opens the handler against its message and tracks it for
// dispatch. Registering over an existing handler closes the old one.
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
			logger.Warn(ctx, "component", "client.replace_close_failed",
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

// Open subscribes the registry to interaction-create events and starts the
// expiry sweep. Not needed when every interaction comes through
// HandleRequest, though the sweep then never runs.
func (c *Client) Open(ctx context.Context, src discord.EventSource) {
	c.detach = append(c.detach,
		src.AddHandler(func(_ *discordgo.Session, e *discordgo.InteractionCreate) {
			c.OnGatewayEvent(ctx, e.Interaction)
		}),
	)

	sweepCtx, cancel := context.WithCancel(ctx)
	c.cancelSweep = cancel
	c.sweepDone = make(chan struct{})
	go c.sweep(sweepCtx)
}

// Close stops the sweep, detaches the event subscription and closes every
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

// OnGatewayEvent dispatches one gateway-delivered interaction. Interactions
// that are not component activations or target untracked messages are
// dropped.
func (c *Client) OnGatewayEvent(ctx context.Context, interaction *discordgo.Interaction) {
	if interaction.Type != discordgo.InteractionMessageComponent || interaction.Message == nil {
		return
	}
	h, ok := c.lookup(interaction.Message.ID)
	if !ok {
		logger.Debug(ctx, "component", "dispatch.not_found",
			slog.String("message_id", interaction.Message.ID))
		return
	}

	ictx := NewContext(c.rest, interaction)
	ctx = logger.WithEventMeta(ctx, interaction.Message.ID, ictx.UserID())
	c.settle(ctx, interaction.Message.ID, ictx, h.OnInteractionEvent(ctx, ictx))
}

// HandleRequest dispatches one HTTP-delivered interaction and returns the
// initial response for the HTTP reply. The callback races a single-use
// response slot: as soon as it resolves the slot the response is returned
// and the callback keeps running in the background for followups. A
// callback that finishes without resolving the slot is reported as
// ErrNoResponse; an untracked message as handler.ErrNotFound.
func (c *Client) HandleRequest(ctx context.Context, interaction *discordgo.Interaction) (*discordgo.InteractionResponse, error) {
	if interaction.Type != discordgo.InteractionMessageComponent || interaction.Message == nil {
		return nil, handler.ErrNotFound
	}
	h, ok := c.lookup(interaction.Message.ID)
	if !ok {
		return nil, handler.ErrNotFound
	}

	slot := newResponseSlot()
	ictx := newSyncContext(c.rest, interaction, slot)
	ctx = logger.WithEventMeta(ctx, interaction.Message.ID, ictx.UserID())

	done := make(chan error, 1)
	go func() {
		done <- h.OnInteractionEvent(ctx, ictx)
	}()

	select {
	case resp := <-slot.ch:
		go func() {
			c.settle(context.WithoutCancel(ctx), interaction.Message.ID, ictx, <-done)
		}()
		return resp, nil

	case err := <-done:
		// The callback may have resolved the slot right before returning.
		select {
		case resp := <-slot.ch:
			c.settle(ctx, interaction.Message.ID, ictx, err)
			return resp, nil
		default:
		}
		c.settle(ctx, interaction.Message.ID, ictx, err)
		if err != nil {
			return nil, err
		}
		return nil, ErrNoResponse

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// settle applies a finished callback's result to the registry: a closed
// handler is removed and released, other failures are logged.
func (c *Client) settle(ctx context.Context, messageID string, ictx *Context, err error) {
	switch {
	case err == nil:
	case errors.Is(err, handler.ErrClosed):
		if popped, ok := c.pop(messageID); ok {
			if cerr := popped.Close(ctx); cerr != nil {
				logger.Warn(ctx, "component", "dispatch.close_failed",
					slog.String("err", cerr.Error()))
			}
		}
		logger.Debug(ctx, "component", "dispatch.handler_closed")
	default:
		logger.Error(ctx, "component", "dispatch.callback_failed",
			slog.String("custom_id", ictx.CustomID()),
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
			logger.Warn(ctx, "component", "sweep.close_failed",
				slog.String("message_id", id),
				slog.String("err", err.Error()))
			continue
		}
		logger.Debug(ctx, "component", "sweep.closed",
			slog.String("message_id", id))
	}
	if len(expired) > 0 {
		logger.Info(ctx, "component", "sweep.collected",
			slog.Int("handlers", len(expired)))
	}
}
