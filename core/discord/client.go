package discord

import (
	"github.com/bwmarrin/discordgo"
)

// MessageClient covers the message create/edit/delete/fetch calls used by
// paginators and handlers.
type MessageClient interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ReactionEditor covers reaction marker management on a message.
type ReactionEditor interface {
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
}

// InteractionClient covers interaction response and followup calls.
type InteractionClient interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(interaction *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageEdit(interaction *discordgo.Interaction, messageID string, data *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageDelete(interaction *discordgo.Interaction, messageID string, options ...discordgo.RequestOption) error
	WebhookMessage(webhookID, token, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// UserClient fetches user identities. Used to seed the self blacklist.
type UserClient interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// EventSource subscribes typed gateway event handlers. The returned function
// removes the subscription.
type EventSource interface {
	AddHandler(handler interface{}) func()
}

// PaginatorClient is the full capability set a reaction paginator needs.
type PaginatorClient interface {
	MessageClient
	ReactionEditor
}
