package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// adminPermissions hides the admin commands from members who cannot manage the server.
var adminPermissions int64 = discordgo.PermissionManageGuild

// Commands returns all slash commands for the voice rooms module.
func Commands() []*discordgo.ApplicationCommand {
	privacyChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(domain.Privacies))
	for _, p := range domain.Privacies {
		privacyChoices = append(privacyChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  p.Label(),
			Value: p.String(),
		})
	}

	categoryOption := &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionChannel,
		Name:         "category",
		Description:  "A voice category managed by the bot",
		Required:     true,
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:                     "create",
			Description:              "Create voice room infrastructure",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "voice-category",
					Description: "Create a voice category with a join channel",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Name of the category",
							Required:    true,
							MaxLength:   domain.MaxChannelNameLength,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "join-channel",
					Description: "Recreate the join channel of a voice category",
					Options:     []*discordgo.ApplicationCommandOption{categoryOption},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "panel-message",
					Description: "Post the control panel in this voice channel if it is missing",
				},
			},
		},
		{
			Name:                     "remove-category",
			Description:              "Delete a voice category with its join channel and rooms",
			DefaultMemberPermissions: &adminPermissions,
			Options:                  []*discordgo.ApplicationCommandOption{categoryOption},
		},
		{
			Name:                     "settings",
			Description:              "Configure voice rooms for this server",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "permanence",
					Description: "Keep empty voice rooms instead of deleting them",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "enabled",
							Description: "Whether empty rooms are kept",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "privacy",
					Description: "Set the privacy of newly created rooms",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "mode",
							Description: "Privacy mode",
							Required:    true,
							Choices:     privacyChoices,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Show the current voice room settings",
				},
			},
		},
	}
}
