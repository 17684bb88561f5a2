package discord

import (
	"github.com/bwmarrin/discordgo"
)

// EmojiKey returns the trigger key for an emoji: the snowflake ID for custom
// emoji, the unicode name otherwise.
func EmojiKey(e *discordgo.Emoji) string {
	if e == nil {
		return ""
	}
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}

// ReactionKey resolves the trigger key carried by a reaction event.
func ReactionKey(r *discordgo.MessageReaction) string {
	if r == nil {
		return ""
	}
	return EmojiKey(&r.Emoji)
}

// InteractionUserID returns the ID of the user who triggered an interaction,
// regardless of whether it arrived from a guild or a DM.
func InteractionUserID(i *discordgo.Interaction) string {
	if i == nil {
		return ""
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
