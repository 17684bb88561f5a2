// Package paginate provides lazy page sources and the buffer/cursor walker
// shared by the reaction and component paginators.
package paginate

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// ErrNoPages reports a source that yielded nothing at all; a paginator
// cannot open over it.
var ErrNoPages = errors.New("paginate: source yielded no pages")

// Page is one entry of a paginated message: plain content, a rich embed, or
// both.
type Page struct {
	Content string
	Embed   *discordgo.MessageEmbed
}

// Source is a pull-based sequence of pages. Next returns ok=false once the
// sequence is exhausted; implementations are consumed forward exactly once
// and are never restarted.
type Source interface {
	Next() (Page, bool, error)
}
