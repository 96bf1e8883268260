package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// PanelSelectID is the custom ID of the control panel's action menu.
const PanelSelectID = "edit-channel-select"

// Embed colors.
const (
	colorGhostWhite = 0xF8F8FF
)

// Ensure DiscordPanelMessenger implements ports.PanelMessenger.
var _ ports.PanelMessenger = (*DiscordPanelMessenger)(nil)

// DiscordPanelMessenger posts control panels into voice channel text chats.
type DiscordPanelMessenger struct {
	session *discordgo.Session
}

// NewDiscordPanelMessenger creates a new DiscordPanelMessenger.
func NewDiscordPanelMessenger(session *discordgo.Session) *DiscordPanelMessenger {
	return &DiscordPanelMessenger{session: session}
}

// SendPanel posts the control panel and returns its message ID.
func (m *DiscordPanelMessenger) SendPanel(ctx context.Context, channelID snowflake.ID) (snowflake.ID, error) {
	message, err := m.session.ChannelMessageSendComplex(
		channelID.String(),
		PanelMessage(),
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to send panel message: %w", err)
	}
	return snowflake.Parse(message.ID)
}

// PanelExists reports whether the panel message is still present.
func (m *DiscordPanelMessenger) PanelExists(
	ctx context.Context,
	channelID, messageID snowflake.ID,
) (bool, error) {
	_, err := m.session.ChannelMessage(channelID.String(), messageID.String(), discordgo.WithContext(ctx))
	if err == nil {
		return true, nil
	}
	if isUnknownMessage(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to fetch panel message: %w", err)
}

// ResetPanel rewrites the panel components so the menu shows its placeholder again.
func (m *DiscordPanelMessenger) ResetPanel(ctx context.Context, channelID, messageID snowflake.ID) error {
	components := PanelMessage().Components
	_, err := m.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         messageID.String(),
		Channel:    channelID.String(),
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to reset panel message: %w", err)
	}
	return nil
}

func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMessage {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// PanelMessage builds the control panel: a short embed and the action menu.
func PanelMessage() *discordgo.MessageSend {
	options := make([]discordgo.SelectMenuOption, 0, len(domain.PanelOptions))
	for _, option := range domain.PanelOptions {
		options = append(options, discordgo.SelectMenuOption{
			Label:       option.Label,
			Value:       string(option.Action),
			Description: option.Description,
			Emoji:       &discordgo.ComponentEmoji{Name: option.Emoji},
		})
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "Make the channel your own!",
			Description: "Pick an action below to change this channel's settings.",
			Color:       colorGhostWhite,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    PanelSelectID,
						Placeholder: "Edit channel",
						Options:     options,
					},
				},
			},
		},
	}
}
