package discord

import (
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
	colorInfo    = 0xF8F8FF
)

// respondError sends an ephemeral error embed.
func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}

// respondUsecaseError reports a use case error to the invoking user.
// Remote and persistence failures are logged and reported by their class;
// every other error is a precondition whose message is shown as-is.
func respondUsecaseError(r bot.Responder, action string, err error) error {
	switch {
	case errors.Is(err, usecases.ErrRemoteFailure):
		slog.Error("failed to complete action on discord", "action", action, "error", err)
		return respondError(r, usecases.ErrRemoteFailure.Error())
	case errors.Is(err, usecases.ErrPersistence):
		slog.Error("failed to persist action", "action", action, "error", err)
		return respondError(r, usecases.ErrPersistence.Error())
	default:
		return respondError(r, err.Error())
	}
}

// respondSuccess sends an ephemeral success embed.
func respondSuccess(r bot.Responder, description string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// respondComponents sends an ephemeral follow-up menu.
func respondComponents(r bot.Responder, content string, components ...discordgo.MessageComponent) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:      discordgo.MessageFlagsEphemeral,
			Content:    content,
			Components: []discordgo.MessageComponent{discordgo.ActionsRow{Components: components}},
		},
	})
}
