package component

import (
	"github.com/bwmarrin/discordgo"
)

// Row pairs the components of one action row with their callbacks so the
// message payload and the dispatch table are built from a single source.
type Row struct {
	components []discordgo.MessageComponent
	callbacks  map[string]Callback
}

// NewRow starts an empty action row.
func NewRow() *Row {
	return &Row{callbacks: make(map[string]Callback)}
}

// AddButton appends an interactive button bound to cb.
func (r *Row) AddButton(label string, style discordgo.ButtonStyle, customID string, cb Callback) *Row {
	r.components = append(r.components, discordgo.Button{
		Label:    label,
		Style:    style,
		CustomID: customID,
	})
	r.callbacks[customID] = cb
	return r
}

// AddEmojiButton appends an interactive button showing only an emoji.
func (r *Row) AddEmojiButton(emoji string, style discordgo.ButtonStyle, customID string, cb Callback) *Row {
	r.components = append(r.components, discordgo.Button{
		Emoji:    &discordgo.ComponentEmoji{Name: emoji},
		Style:    style,
		CustomID: customID,
	})
	r.callbacks[customID] = cb
	return r
}

// AddLinkButton appends a URL button. Link buttons never produce
// interactions so no callback is taken.
func (r *Row) AddLinkButton(label, url string) *Row {
	r.components = append(r.components, discordgo.Button{
		Label: label,
		Style: discordgo.LinkButton,
		URL:   url,
	})
	return r
}

// AddSelectMenu appends a select menu bound to cb. Discord gives a select
// menu the whole row, so it should not share one with buttons.
func (r *Row) AddSelectMenu(customID string, options []discordgo.SelectMenuOption, cb Callback) *Row {
	r.components = append(r.components, discordgo.SelectMenu{
		CustomID: customID,
		Options:  options,
	})
	r.callbacks[customID] = cb
	return r
}

// ActionsRow builds the payload component for the message being sent.
func (r *Row) ActionsRow() discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: append([]discordgo.MessageComponent(nil), r.components...)}
}

// Components returns the row wrapped for a message payload's component list.
func (r *Row) Components() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{r.ActionsRow()}
}

// BindTo registers every callback in the row on the executor.
func (r *Row) BindTo(e *Executor) *Executor {
	for id, cb := range r.callbacks {
		e.AddCallback(id, cb)
	}
	return e
}

// Executor builds a fresh executor preloaded with the row's callbacks.
func (r *Row) Executor(opts ...ExecutorOption) *Executor {
	return r.BindTo(NewExecutor(opts...))
}
