package component

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/m3rciful/cordial/core/discord"
	"github.com/m3rciful/cordial/core/handler"
	"github.com/m3rciful/cordial/core/paginate"
)

// Navigation button custom ids. Fixed so a restarted process can reattach
// executors to messages it sent before.
const (
	IDFirst    = "cordial:first"
	IDPrevious = "cordial:previous"
	IDStop     = "cordial:stop"
	IDNext     = "cordial:next"
	IDLast     = "cordial:last"
)

// DefaultTriggers is the navigation subset used when none is configured.
func DefaultTriggers() []string {
	return []string{IDPrevious, IDStop, IDNext}
}

var triggerEmoji = map[string]string{
	IDFirst:    "⏮️",
	IDPrevious: "◀️",
	IDStop:     "⏹️",
	IDNext:     "▶️",
	IDLast:     "⏭️",
}

// Paginator walks a lazy page source through an action row of navigation
// buttons, re-rendering the bound message with interaction updates.
type Paginator struct {
	*Executor

	messages discord.MessageClient
	walker   *paginate.Walker
	triggers []string
	row      *Row
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*paginatorSettings)

type paginatorSettings struct {
	triggers []string
	exec     []ExecutorOption
}

// WithTriggers selects which navigation buttons the paginator renders.
func WithTriggers(ids ...string) PaginatorOption {
	return func(s *paginatorSettings) {
		s.triggers = ids
	}
}

// WithPaginatorAuthors restricts who may navigate.
func WithPaginatorAuthors(userIDs ...string) PaginatorOption {
	return func(s *paginatorSettings) {
		s.exec = append(s.exec, WithAuthors(userIDs...))
	}
}

// WithPaginatorTimeout overrides the default expiry timeout.
func WithPaginatorTimeout(d time.Duration) PaginatorOption {
	return func(s *paginatorSettings) {
		s.exec = append(s.exec, WithTimeout(d))
	}
}

// NewPaginator constructs a paginator over a lazy page source. The
// navigation row carries one button per configured trigger.
func NewPaginator(messages discord.MessageClient, source paginate.Source, opts ...PaginatorOption) *Paginator {
	settings := paginatorSettings{triggers: DefaultTriggers()}
	for _, opt := range opts {
		opt(&settings)
	}

	p := &Paginator{
		Executor: NewExecutor(settings.exec...),
		messages: messages,
		walker:   paginate.NewWalker(source),
		triggers: settings.triggers,
	}

	row := NewRow()
	for _, id := range settings.triggers {
		var cb Callback
		switch id {
		case IDFirst:
			cb = p.onFirst
		case IDPrevious:
			cb = p.onPrevious
		case IDStop:
			cb = p.onStop
		case IDNext:
			cb = p.onNext
		case IDLast:
			cb = p.onLast
		default:
			continue
		}
		row.AddEmojiButton(triggerEmoji[id], discordgo.SecondaryButton, id, cb)
	}
	p.row = row
	row.BindTo(p.Executor)
	return p
}

// Row exposes the navigation row so callers embedding the paginator in a
// larger payload can place it themselves.
func (p *Paginator) Row() *Row {
	return p.row
}

// CreateMessage pulls the first page, sends it with the navigation row and
// opens the paginator on the resulting message. An empty source is a
// synchronous error.
func (p *Paginator) CreateMessage(ctx context.Context, channelID string) (*discordgo.Message, error) {
	if p.Bound() {
		return nil, handler.ErrAlreadyOpen
	}

	page, ok, err := p.walker.Next()
	if err != nil {
		return nil, fmt.Errorf("pulling first page: %w", err)
	}
	if !ok {
		return nil, paginate.ErrNoPages
	}

	send := &discordgo.MessageSend{
		Content:    page.Content,
		Components: p.row.Components(),
	}
	if page.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{page.Embed}
	}

	message, err := p.messages.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("sending first page: %w", err)
	}
	if err := p.Bind(message); err != nil {
		return nil, err
	}
	return message, nil
}

func (p *Paginator) onFirst(ctx context.Context, ictx *Context) error {
	page, ok := p.walker.First()
	return p.render(ctx, ictx, page, ok)
}

func (p *Paginator) onPrevious(ctx context.Context, ictx *Context) error {
	page, ok := p.walker.Previous()
	return p.render(ctx, ictx, page, ok)
}

func (p *Paginator) onNext(ctx context.Context, ictx *Context) error {
	page, ok, err := p.walker.Next()
	if err != nil {
		return fmt.Errorf("pulling next page: %w", err)
	}
	return p.render(ctx, ictx, page, ok)
}

func (p *Paginator) onLast(ctx context.Context, ictx *Context) error {
	page, ok, err := p.walker.Last()
	if err != nil {
		return fmt.Errorf("draining page source: %w", err)
	}
	return p.render(ctx, ictx, page, ok)
}

// onStop acknowledges the activation, removes the paginated message and
// reports the executor closed.
func (p *Paginator) onStop(ctx context.Context, ictx *Context) error {
	p.Unbind()
	if err := ictx.Defer(ctx); err != nil {
		return err
	}
	if err := ictx.DeleteInitialResponse(ctx); err != nil && !discord.IsNotFound(err) {
		return fmt.Errorf("%w: deleting paginated message: %v", handler.ErrClosed, err)
	}
	return handler.ErrClosed
}

// render answers the activation with the page, or with a bare deferral when
// the cursor did not move. An unacknowledged interaction would show as a
// failure to the user.
func (p *Paginator) render(ctx context.Context, ictx *Context, page paginate.Page, ok bool) error {
	if !ok {
		return ictx.Defer(ctx)
	}
	data := &discordgo.InteractionResponseData{
		Content:    page.Content,
		Components: p.row.Components(),
	}
	if page.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{page.Embed}
	}
	return ictx.UpdateMessage(ctx, data)
}
