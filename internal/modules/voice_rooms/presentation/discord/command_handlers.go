package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// adminBits are the permissions required to use the admin commands.
const adminBits = discordgo.PermissionAdministrator | discordgo.PermissionManageGuild

var errInvalidGuild = errors.New("Invalid guild")

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	categories *usecases.CategoryService
	settings   *usecases.GuildSettingsService
	lifecycle  *usecases.LifecycleService
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	categories *usecases.CategoryService,
	settings *usecases.GuildSettingsService,
	lifecycle *usecases.LifecycleService,
) *CommandHandlers {
	return &CommandHandlers{
		categories: categories,
		settings:   settings,
		lifecycle:  lifecycle,
	}
}

// HandleCreate handles the /create command.
func (h *CommandHandlers) HandleCreate(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := adminGuild(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	sub, ok := subcommand(i)
	if !ok {
		return respondError(r, "Missing subcommand")
	}

	// Every subcommand creates or checks Discord resources.
	if r, err = bot.Defer(r); err != nil {
		return err
	}

	switch sub.Name {
	case "voice-category":
		name, _ := stringOption(sub.Options, "name")
		output, err := h.categories.ProvisionCategory(ctx, guildID, name)
		if err != nil {
			return respondUsecaseError(r, "create voice category", err)
		}
		return respondSuccess(r, fmt.Sprintf(
			"Created <#%d> with the join channel <#%d>.",
			output.CategoryID,
			output.JoinChannelID,
		))

	case "join-channel":
		categoryID, err := idOption(sub.Options, "category")
		if err != nil {
			return respondError(r, "Invalid category")
		}
		joinChannelID, err := h.categories.ProvisionJoinChannel(ctx, guildID, categoryID)
		if err != nil {
			return respondUsecaseError(r, "create join channel", err)
		}
		return respondSuccess(r, fmt.Sprintf("Created the join channel <#%d>.", joinChannelID))

	case "panel-message":
		channelID, err := snowflake.Parse(i.ChannelID)
		if err != nil {
			return respondError(r, "Invalid channel")
		}
		output, err := h.lifecycle.EnsurePanelMessage(ctx, guildID, channelID)
		if err != nil {
			return respondUsecaseError(r, "create panel message", err)
		}
		if !output.Created {
			return respondSuccess(r, "The panel message is already in place.")
		}
		return respondSuccess(r, "Posted the panel message.")
	}

	return respondError(r, "Unknown subcommand")
}

// HandleRemoveCategory handles the /remove-category command.
func (h *CommandHandlers) HandleRemoveCategory(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := adminGuild(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	categoryID, err := idOption(i.ApplicationCommandData().Options, "category")
	if err != nil {
		return respondError(r, "Invalid category")
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}

	output, err := h.categories.RemoveCategory(ctx, guildID, categoryID)
	if err != nil {
		return respondUsecaseError(r, "remove category", err)
	}

	return respondSuccess(r, fmt.Sprintf("Deleting %d channels.", output.ScheduledDeletes))
}

// HandleSettings handles the /settings command.
func (h *CommandHandlers) HandleSettings(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := adminGuild(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	sub, ok := subcommand(i)
	if !ok {
		return respondError(r, "Missing subcommand")
	}

	switch sub.Name {
	case "permanence":
		enabled, _ := boolOption(sub.Options, "enabled")
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		output, err := h.settings.SetPermanence(ctx, guildID, enabled)
		if err != nil {
			return respondUsecaseError(r, "set permanence", err)
		}
		if output.Permanence {
			return respondSuccess(r, "Empty voice channels will be kept.")
		}
		msg := "Empty voice channels will be deleted."
		if output.ScheduledDeletes > 0 {
			msg += fmt.Sprintf(" Deleting %d empty channels now.", output.ScheduledDeletes)
		}
		return respondSuccess(r, msg)

	case "privacy":
		mode, _ := stringOption(sub.Options, "mode")
		privacy, err := domain.ParsePrivacy(mode)
		if err != nil {
			return respondError(r, "Unknown privacy mode")
		}
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		if err := h.settings.SetPrivacy(ctx, guildID, privacy); err != nil {
			return respondUsecaseError(r, "set privacy", err)
		}
		return respondSuccess(r, fmt.Sprintf("New voice channels will be %s.", privacy))

	case "show":
		output, err := h.settings.Settings(ctx, guildID)
		if err != nil {
			return respondUsecaseError(r, "show settings", err)
		}
		return respondEmbed(r, settingsEmbed(output))
	}

	return respondError(r, "Unknown subcommand")
}

func settingsEmbed(output *usecases.SettingsOutput) *discordgo.MessageEmbed {
	permanence := "Off"
	if output.Permanence {
		permanence = "On"
	}

	var categories strings.Builder
	for _, c := range output.Categories {
		fmt.Fprintf(&categories, "<#%d>", c.ID)
		if c.JoinChannelID != 0 {
			fmt.Fprintf(&categories, " joined through <#%d>", c.JoinChannelID)
		} else {
			categories.WriteString(" has no join channel")
		}
		fmt.Fprintf(&categories, ", %d rooms\n", c.RoomCount)
	}
	if categories.Len() == 0 {
		categories.WriteString("None")
	}

	return &discordgo.MessageEmbed{
		Title: "Voice room settings",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Permanence", Value: permanence, Inline: true},
			{Name: "Privacy", Value: output.Privacy.Label(), Inline: true},
			{Name: "Categories", Value: strings.TrimSpace(categories.String())},
		},
	}
}

// adminGuild returns the guild of an interaction invoked by an administrator.
func adminGuild(i *discordgo.InteractionCreate) (snowflake.ID, error) {
	if i.Member == nil || i.Member.Permissions&adminBits == 0 {
		return 0, usecases.ErrNotOwner
	}
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return 0, errInvalidGuild
	}
	return guildID, nil
}

func subcommand(i *discordgo.InteractionCreate) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 || options[0].Type != discordgo.ApplicationCommandOptionSubCommand {
		return nil, false
	}
	return options[0], true
}

func findOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
	name string,
) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Name == name {
			return opt
		}
	}
	return nil
}

func stringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	opt := findOption(options, name)
	if opt == nil {
		return "", false
	}
	return opt.StringValue(), true
}

func boolOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (bool, bool) {
	opt := findOption(options, name)
	if opt == nil {
		return false, false
	}
	return opt.BoolValue(), true
}

// idOption parses a channel, user or role option without resolving it.
func idOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) (snowflake.ID, error) {
	opt := findOption(options, name)
	if opt == nil {
		return 0, fmt.Errorf("missing option %q", name)
	}
	value, ok := opt.Value.(string)
	if !ok {
		return 0, fmt.Errorf("option %q is not an id", name)
	}
	return snowflake.Parse(value)
}
