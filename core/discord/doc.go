// Package discord declares the narrow client capabilities this library
// consumes from a Discord session. *discordgo.Session satisfies every
// interface here implicitly.
package discord
