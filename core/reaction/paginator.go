package reaction

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"log/slog"

	"github.com/m3rciful/cordial/core/backoff"
	"github.com/m3rciful/cordial/core/config"
	"github.com/m3rciful/cordial/core/discord"
	"github.com/m3rciful/cordial/core/handler"
	"github.com/m3rciful/cordial/core/logger"
	"github.com/m3rciful/cordial/core/paginate"
)

// Navigation trigger emoji. The names carry the variation selector so they
// match what Discord reports in reaction events.
const (
	EmojiFirst    = "⏮️" // skip to first page
	EmojiPrevious = "◀️" // one page back
	EmojiStop     = "⏹️" // close the paginator
	EmojiNext     = "▶️" // one page forward
	EmojiLast     = "⏭️" // drain to the final page
)

// DefaultTriggers is the trigger subset used when none is configured.
func DefaultTriggers() []string {
	return []string{EmojiPrevious, EmojiStop, EmojiNext}
}

// Paginator walks a lazy page source in response to reaction triggers on
// its bound message.
type Paginator struct {
	*Router

	rest     discord.PaginatorClient
	walker   *paginate.Walker
	triggers []string

	retryBase     time.Duration
	retryMaxDelay time.Duration
	retryMax      int
	removeOnClose bool
}

type paginatorSettings struct {
	triggers      []string
	router        []RouterOption
	retryBase     time.Duration
	retryMaxDelay time.Duration
	retryMax      int
	removeOnClose bool
}

// PaginatorOption configures a Paginator.
type PaginatorOption func(*paginatorSettings)

// WithTriggers selects which navigation emoji the paginator reacts to.
func WithTriggers(triggers ...string) PaginatorOption {
	return func(s *paginatorSettings) {
		s.triggers = triggers
	}
}

// WithRemoveReactionsOnClose removes the trigger markers when the paginator
// closes.
func WithRemoveReactionsOnClose() PaginatorOption {
	return func(s *paginatorSettings) {
		s.removeOnClose = true
	}
}

// WithPaginatorConfig applies paginator behavior from configuration.
func WithPaginatorConfig(cfg config.ReactionConfig) PaginatorOption {
	return func(s *paginatorSettings) {
		if cfg.RemoveReactionsOnClose {
			s.removeOnClose = true
		}
	}
}

// WithBackoff applies retry tuning from configuration.
func WithBackoff(cfg config.BackoffConfig) PaginatorOption {
	return func(s *paginatorSettings) {
		if cfg.Base() > 0 {
			s.retryBase = cfg.Base()
		}
		if cfg.MaxDelay() > 0 {
			s.retryMaxDelay = cfg.MaxDelay()
		}
		if cfg.MaxRetries > 0 {
			s.retryMax = cfg.MaxRetries
		}
	}
}

// WithPaginatorAuthors restricts who may navigate.
func WithPaginatorAuthors(userIDs ...string) PaginatorOption {
	return func(s *paginatorSettings) {
		s.router = append(s.router, WithAuthors(userIDs...))
	}
}

// WithPaginatorTimeout overrides the default expiry timeout.
func WithPaginatorTimeout(d time.Duration) PaginatorOption {
	return func(s *paginatorSettings) {
		s.router = append(s.router, WithTimeout(d))
	}
}

const (
	defaultRetryBase     = 500 * time.Millisecond
	defaultRetryMaxDelay = 2 * time.Second
	defaultRetryMax      = 5
)

// NewPaginator constructs a paginator over a lazy page source. The
// navigation callbacks for the configured triggers are registered
// immediately; the paginator stays unbound until Open or CreateMessage.
func NewPaginator(rest discord.PaginatorClient, source paginate.Source, opts ...PaginatorOption) *Paginator {
	settings := paginatorSettings{
		triggers:      DefaultTriggers(),
		retryBase:     defaultRetryBase,
		retryMaxDelay: defaultRetryMaxDelay,
		retryMax:      defaultRetryMax,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	p := &Paginator{
		Router:        NewRouter(settings.router...),
		rest:          rest,
		walker:        paginate.NewWalker(source),
		triggers:      settings.triggers,
		retryBase:     settings.retryBase,
		retryMaxDelay: settings.retryMaxDelay,
		retryMax:      settings.retryMax,
		removeOnClose: settings.removeOnClose,
	}

	for _, trigger := range p.triggers {
		switch trigger {
		case EmojiFirst:
			p.AddCallback(EmojiFirst, p.onFirst)
		case EmojiPrevious:
			p.AddCallback(EmojiPrevious, p.onPrevious)
		case EmojiStop:
			p.AddCallback(EmojiStop, p.onStop)
		case EmojiNext:
			p.AddCallback(EmojiNext, p.onNext)
		case EmojiLast:
			p.AddCallback(EmojiLast, p.onLast)
		}
	}
	return p
}

func (p *Paginator) newBackoff() *backoff.Backoff {
	return backoff.New(
		backoff.WithBase(p.retryBase),
		backoff.WithMaxDelay(p.retryMaxDelay),
		backoff.WithMaxRetries(p.retryMax),
	)
}

// CreateMessage pulls the first page, sends it to the channel and opens the
// paginator on the resulting message. A source that yields nothing is a
// configuration error reported synchronously.
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

	send := &discordgo.MessageSend{Content: page.Content}
	if page.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{page.Embed}
	}

	retry := p.newBackoff()
	var message *discordgo.Message
	for {
		message, err = p.rest.ChannelMessageSendComplex(channelID, send)
		if err == nil {
			break
		}
		if wait, limited := discord.RetryAfter(err); limited {
			if wait > retry.MaxDelay() {
				return nil, fmt.Errorf("rate limited beyond retry ceiling: %w", err)
			}
			retry.SetNext(wait)
		} else if !discord.IsTransient(err) {
			return nil, fmt.Errorf("sending first page: %w", err)
		}
		if !retry.Wait(ctx) {
			return nil, fmt.Errorf("sending first page: %w", err)
		}
	}

	if err := p.Open(ctx, message); err != nil {
		return nil, err
	}
	return message, nil
}

// Open binds the paginator and attaches one reaction marker per configured
// trigger. A missing target aborts the open and unbinds; missing reaction
// permission leaves the paginator usable without its markers.
func (p *Paginator) Open(ctx context.Context, message *discordgo.Message) error {
	if err := p.Bind(message); err != nil {
		return err
	}

	retry := p.newBackoff()
	for _, trigger := range p.triggers {
		retry.Reset()
		for {
			err := p.rest.MessageReactionAdd(message.ChannelID, message.ID, trigger)
			if err == nil {
				break
			}
			if discord.IsNotFound(err) {
				p.Unbind()
				return fmt.Errorf("attaching reaction markers: %w", err)
			}
			if discord.IsForbidden(err) {
				// No reaction permission in this channel. Pagination still
				// works for anyone reacting manually.
				logger.Warn(ctx, "reaction", "paginator.markers.forbidden",
					slog.String("message_id", message.ID))
				return nil
			}
			if wait, limited := discord.RetryAfter(err); limited {
				if wait > retry.MaxDelay() {
					return fmt.Errorf("attaching reaction markers: %w", err)
				}
				retry.SetNext(wait)
			} else if !discord.IsTransient(err) {
				return fmt.Errorf("attaching reaction markers: %w", err)
			}
			if !retry.Wait(ctx) {
				return fmt.Errorf("attaching reaction markers: %w", err)
			}
		}
	}
	return nil
}

// Close unbinds the paginator and, when configured, removes the trigger
// markers from the previously bound message.
func (p *Paginator) Close(ctx context.Context) error {
	message := p.Unbind()
	if message == nil || !p.removeOnClose {
		return nil
	}

	retry := p.newBackoff()
	for _, trigger := range p.triggers {
		retry.Reset()
		for {
			err := p.rest.MessageReactionRemove(message.ChannelID, message.ID, trigger, "@me")
			if err == nil {
				break
			}
			if discord.IsNotFound(err) || discord.IsForbidden(err) {
				return nil
			}
			if wait, limited := discord.RetryAfter(err); limited {
				retry.SetNext(wait)
			} else if !discord.IsTransient(err) {
				logger.Warn(ctx, "reaction", "paginator.markers.remove_failed",
					slog.String("message_id", message.ID),
					slog.String("err", err.Error()))
				return nil
			}
			if !retry.Wait(ctx) {
				logger.Warn(ctx, "reaction", "paginator.markers.remove_failed",
					slog.String("message_id", message.ID),
					slog.String("err", err.Error()))
				return nil
			}
		}
	}
	return nil
}

func (p *Paginator) onFirst(ctx context.Context, _ *discordgo.MessageReaction) error {
	if page, ok := p.walker.First(); ok {
		return p.editMessage(ctx, page)
	}
	return nil
}

func (p *Paginator) onPrevious(ctx context.Context, _ *discordgo.MessageReaction) error {
	if page, ok := p.walker.Previous(); ok {
		return p.editMessage(ctx, page)
	}
	return nil
}

func (p *Paginator) onNext(ctx context.Context, _ *discordgo.MessageReaction) error {
	page, ok, err := p.walker.Next()
	if err != nil {
		return fmt.Errorf("pulling next page: %w", err)
	}
	if !ok {
		return nil
	}
	return p.editMessage(ctx, page)
}

func (p *Paginator) onLast(ctx context.Context, _ *discordgo.MessageReaction) error {
	page, ok, err := p.walker.Last()
	if err != nil {
		return fmt.Errorf("draining page source: %w", err)
	}
	if !ok {
		return nil
	}
	return p.editMessage(ctx, page)
}

// onStop unbinds immediately so the handler counts as ended, then deletes
// the message in the background as a best-effort side effect.
func (p *Paginator) onStop(ctx context.Context, _ *discordgo.MessageReaction) error {
	if message := p.Unbind(); message != nil {
		go p.deleteMessage(context.WithoutCancel(ctx), message)
	}
	return handler.ErrClosed
}

func (p *Paginator) editMessage(ctx context.Context, page paginate.Page) error {
	message := p.Message()
	if message == nil {
		return nil
	}

	edit := discordgo.NewMessageEdit(message.ChannelID, message.ID)
	edit.SetContent(page.Content)
	if page.Embed != nil {
		edit.SetEmbeds([]*discordgo.MessageEmbed{page.Embed})
	} else {
		edit.SetEmbeds([]*discordgo.MessageEmbed{})
	}

	retry := p.newBackoff()
	for {
		_, err := p.rest.ChannelMessageEditComplex(edit)
		if err == nil {
			return nil
		}
		if discord.IsNotFound(err) || discord.IsForbidden(err) {
			return fmt.Errorf("%w: editing page: %v", handler.ErrClosed, err)
		}
		if wait, limited := discord.RetryAfter(err); limited {
			if wait > retry.MaxDelay() {
				return fmt.Errorf("rate limited beyond retry ceiling: %w", err)
			}
			retry.SetNext(wait)
		} else if !discord.IsTransient(err) {
			return fmt.Errorf("editing page: %w", err)
		}
		if !retry.Wait(ctx) {
			return fmt.Errorf("editing page: %w", err)
		}
	}
}

func (p *Paginator) deleteMessage(ctx context.Context, message *discordgo.Message) {
	retry := p.newBackoff()
	for {
		err := p.rest.ChannelMessageDelete(message.ChannelID, message.ID)
		if err == nil {
			return
		}
		if discord.IsNotFound(err) || discord.IsForbidden(err) {
			return
		}
		if wait, limited := discord.RetryAfter(err); limited {
			retry.SetNext(wait)
		} else if !discord.IsTransient(err) {
			logger.Warn(ctx, "reaction", "paginator.delete_failed",
				slog.String("message_id", message.ID),
				slog.String("err", err.Error()))
			return
		}
		if !retry.Wait(ctx) {
			logger.Warn(ctx, "reaction", "paginator.delete_failed",
				slog.String("message_id", message.ID),
				slog.String("err", err.Error()))
			return
		}
	}
}
