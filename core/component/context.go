// Package component routes message component interactions (buttons, select
// menus) to registered callbacks and paginates messages through component
// action rows. Responses flow through a Context that tracks the single
// initial response Discord allows per interaction.
package component

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/cordial/core/discord"
)

var (
	// ErrAlreadyResponded reports a second initial response or deferral on
	// the same interaction.
	ErrAlreadyResponded = errors.New("component: interaction already responded to")
	// ErrNoPreviousResponse reports an edit, fetch or delete of a response
	// that was never created.
	ErrNoPreviousResponse = errors.New("component: no previous response")
)

// responseSlot hands the initial response to a waiting HTTP request instead
// of sending it over REST. It resolves at most once.
type responseSlot struct {
	once sync.Once
	ch   chan *discordgo.InteractionResponse
}

func newResponseSlot() *responseSlot {
	return &responseSlot{ch: make(chan *discordgo.InteractionResponse, 1)}
}

func (s *responseSlot) resolve(resp *discordgo.InteractionResponse) bool {
	resolved := false
	s.once.Do(func() {
		s.ch <- resp
		resolved = true
	})
	return resolved
}

// Context wraps one component interaction and the response calls available
// on it. All response-state transitions happen under one mutex; a Context is
// safe to share across goroutines but Discord still allows only one initial
// response.
type Context struct {
	rest        discord.InteractionClient
	interaction *discordgo.Interaction
	slot        *responseSlot

	mu           sync.Mutex
	responded    bool
	deferred     bool
	lastResponse string
}

// NewContext builds a gateway-delivered context whose responses go out over
// REST.
func NewContext(rest discord.InteractionClient, interaction *discordgo.Interaction) *Context {
	return &Context{rest: rest, interaction: interaction}
}

func newSyncContext(rest discord.InteractionClient, interaction *discordgo.Interaction, slot *responseSlot) *Context {
	return &Context{rest: rest, interaction: interaction, slot: slot}
}

// Interaction exposes the raw interaction.
func (c *Context) Interaction() *discordgo.Interaction {
	return c.interaction
}

// UserID reports who triggered the interaction.
func (c *Context) UserID() string {
	return discord.InteractionUserID(c.interaction)
}

// CustomID reports the component custom id that was activated.
func (c *Context) CustomID() string {
	return c.interaction.MessageComponentData().CustomID
}

// Deferred reports whether the initial response was a deferral whose
// content is still pending.
func (c *Context) Deferred() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deferred
}

// Responded reports whether an initial response (including a deferral) has
// been issued.
func (c *Context) Responded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responded
}

// sendInitial routes one initial response to the response slot when the
// interaction arrived over HTTP, otherwise over REST. Caller holds c.mu.
func (c *Context) sendInitial(ctx context.Context, resp *discordgo.InteractionResponse) error {
	if c.slot != nil {
		if !c.slot.resolve(resp) {
			return ErrAlreadyResponded
		}
		return nil
	}
	return c.rest.InteractionRespond(c.interaction, resp, discordgo.WithContext(ctx))
}

// Defer acknowledges the interaction with a deferred message update. The
// visible message stays unchanged until EditInitialResponse.
func (c *Context) Defer(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.responded {
		return fmt.Errorf("deferring: %w", ErrAlreadyResponded)
	}
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	if err := c.sendInitial(ctx, resp); err != nil {
		return err
	}
	c.responded = true
	c.deferred = true
	return nil
}

// CreateInitialResponse issues the initial response with an explicit type.
// After a deferral the content must go through EditInitialResponse instead.
func (c *Context) CreateInitialResponse(ctx context.Context, typ discordgo.InteractionResponseType, data *discordgo.InteractionResponseData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deferred {
		return fmt.Errorf("deferred interaction takes content through EditInitialResponse: %w", ErrAlreadyResponded)
	}
	if c.responded {
		return fmt.Errorf("creating initial response: %w", ErrAlreadyResponded)
	}
	resp := &discordgo.InteractionResponse{Type: typ, Data: data}
	if err := c.sendInitial(ctx, resp); err != nil {
		return err
	}
	c.responded = true
	return nil
}

// UpdateMessage issues the initial response as an update of the message the
// component lives on.
func (c *Context) UpdateMessage(ctx context.Context, data *discordgo.InteractionResponseData) error {
	return c.CreateInitialResponse(ctx, discordgo.InteractionResponseUpdateMessage, data)
}

// Respond routes data to whichever response call the interaction state
// allows: the initial response first, the pending deferral's edit second,
// followups after that. The returned message is nil on the initial response
// path unless ensureResult is set, which fetches it.
func (c *Context) Respond(ctx context.Context, data *discordgo.InteractionResponseData, ensureResult bool) (*discordgo.Message, error) {
	c.mu.Lock()

	switch {
	case c.responded && !c.deferred:
		c.mu.Unlock()
		return c.CreateFollowup(ctx, &discordgo.WebhookParams{
			Content:    data.Content,
			Embeds:     data.Embeds,
			Components: data.Components,
			Flags:      data.Flags,
		})

	case c.deferred:
		c.deferred = false
		c.mu.Unlock()
		return c.rest.InteractionResponseEdit(c.interaction, webhookEdit(data), discordgo.WithContext(ctx))

	default:
		resp := &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		}
		err := c.sendInitial(ctx, resp)
		if err == nil {
			c.responded = true
		}
		c.mu.Unlock()
		if err != nil || !ensureResult {
			return nil, err
		}
		return c.FetchInitialResponse(ctx)
	}
}

// CreateFollowup sends a followup message. Discord rejects followups before
// the initial response, so they are rejected here too.
func (c *Context) CreateFollowup(ctx context.Context, params *discordgo.WebhookParams) (*discordgo.Message, error) {
	c.mu.Lock()
	responded := c.responded
	c.mu.Unlock()
	if !responded {
		return nil, fmt.Errorf("followup before initial response: %w", ErrNoPreviousResponse)
	}

	msg, err := c.rest.FollowupMessageCreate(c.interaction, true, params, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.lastResponse = msg.ID
	c.mu.Unlock()
	return msg, nil
}

// EditInitialResponse edits the initial response, or supplies the content
// of a pending deferral.
func (c *Context) EditInitialResponse(ctx context.Context, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	msg, err := c.rest.InteractionResponseEdit(c.interaction, edit, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.responded = true
	c.deferred = false
	c.mu.Unlock()
	return msg, nil
}

// FetchInitialResponse fetches the message created by the initial response.
func (c *Context) FetchInitialResponse(ctx context.Context) (*discordgo.Message, error) {
	return c.rest.InteractionResponse(c.interaction, discordgo.WithContext(ctx))
}

// DeleteInitialResponse deletes the initial response. For a message-update
// response this removes the message the component was attached to.
func (c *Context) DeleteInitialResponse(ctx context.Context) error {
	return c.rest.InteractionResponseDelete(c.interaction, discordgo.WithContext(ctx))
}

// EditLastResponse edits the most recent followup, falling back to the
// initial response when no followup was sent.
func (c *Context) EditLastResponse(ctx context.Context, edit *discordgo.WebhookEdit) (*discordgo.Message, error) {
	c.mu.Lock()
	last := c.lastResponse
	responded := c.responded
	c.mu.Unlock()

	if last != "" {
		return c.rest.FollowupMessageEdit(c.interaction, last, edit, discordgo.WithContext(ctx))
	}
	if responded {
		return c.EditInitialResponse(ctx, edit)
	}
	return nil, ErrNoPreviousResponse
}

// FetchLastResponse fetches the most recent followup, falling back to the
// initial response.
func (c *Context) FetchLastResponse(ctx context.Context) (*discordgo.Message, error) {
	c.mu.Lock()
	last := c.lastResponse
	responded := c.responded
	c.mu.Unlock()

	if last != "" {
		return c.rest.WebhookMessage(c.interaction.AppID, c.interaction.Token, last, discordgo.WithContext(ctx))
	}
	if responded {
		return c.FetchInitialResponse(ctx)
	}
	return nil, ErrNoPreviousResponse
}

// DeleteLastResponse deletes the most recent followup, falling back to the
// initial response.
func (c *Context) DeleteLastResponse(ctx context.Context) error {
	c.mu.Lock()
	last := c.lastResponse
	responded := c.responded
	c.mu.Unlock()

	if last != "" {
		return c.rest.FollowupMessageDelete(c.interaction, last, discordgo.WithContext(ctx))
	}
	if responded {
		return c.DeleteInitialResponse(ctx)
	}
	return ErrNoPreviousResponse
}

func webhookEdit(data *discordgo.InteractionResponseData) *discordgo.WebhookEdit {
	edit := &discordgo.WebhookEdit{Content: &data.Content}
	if data.Embeds != nil {
		edit.Embeds = &data.Embeds
	}
	if data.Components != nil {
		edit.Components = &data.Components
	}
	return edit
}
