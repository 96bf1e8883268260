package infrastructure

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// Ensure DiscordChannelManager implements ports.ChannelManager.
var _ ports.ChannelManager = (*DiscordChannelManager)(nil)

// DiscordChannelManager implements ports.ChannelManager using a Discord session.
type DiscordChannelManager struct {
	session *discordgo.Session
}

// NewDiscordChannelManager creates a new DiscordChannelManager.
func NewDiscordChannelManager(session *discordgo.Session) *DiscordChannelManager {
	return &DiscordChannelManager{session: session}
}

func (m *DiscordChannelManager) CreateCategory(ctx context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	return m.create(ctx, spec, discordgo.ChannelTypeGuildCategory)
}

func (m *DiscordChannelManager) CreateVoiceChannel(ctx context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	return m.create(ctx, spec, discordgo.ChannelTypeGuildVoice)
}

func (m *DiscordChannelManager) create(
	ctx context.Context,
	spec ports.ChannelSpec,
	channelType discordgo.ChannelType,
) (snowflake.ID, error) {
	data := discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 channelType,
		Position:             spec.Position,
		PermissionOverwrites: ToDiscordOverwrites(spec.Overwrites),
	}
	if spec.ParentID != 0 {
		data.ParentID = spec.ParentID.String()
	}

	channel, err := m.session.GuildChannelCreateComplex(
		spec.GuildID.String(),
		data,
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create channel %q: %w", spec.Name, err)
	}

	return snowflake.Parse(channel.ID)
}

func (m *DiscordChannelManager) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	if _, err := m.session.ChannelDelete(channelID.String(), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	return nil
}

// EditChannel patches the channel directly: discordgo.ChannelEdit omits zero
// user limits and has no video quality field.
func (m *DiscordChannelManager) EditChannel(
	ctx context.Context,
	channelID snowflake.ID,
	edit ports.ChannelEdit,
) error {
	body := map[string]any{}
	if edit.Name != nil {
		body["name"] = *edit.Name
	}
	if edit.Bitrate != nil {
		body["bitrate"] = *edit.Bitrate
	}
	if edit.UserLimit != nil {
		body["user_limit"] = *edit.UserLimit
	}
	if edit.Slowmode != nil {
		body["rate_limit_per_user"] = *edit.Slowmode
	}
	if edit.VideoQuality != nil {
		body["video_quality_mode"] = int(*edit.VideoQuality)
	}
	if len(body) == 0 {
		return nil
	}

	if err := m.patch(ctx, channelID, body); err != nil {
		return fmt.Errorf("failed to edit channel: %w", err)
	}
	return nil
}

func (m *DiscordChannelManager) SetOverwrites(
	ctx context.Context,
	channelID snowflake.ID,
	overwrites []domain.Overwrite,
) error {
	body := map[string]any{"permission_overwrites": ToDiscordOverwrites(overwrites)}
	if err := m.patch(ctx, channelID, body); err != nil {
		return fmt.Errorf("failed to set permission overwrites: %w", err)
	}
	return nil
}

func (m *DiscordChannelManager) SetOverwrite(
	ctx context.Context,
	channelID snowflake.ID,
	overwrite domain.Overwrite,
) error {
	converted := toDiscordOverwrite(overwrite)
	if err := m.session.ChannelPermissionSet(
		channelID.String(),
		converted.ID,
		converted.Type,
		converted.Allow,
		converted.Deny,
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to set permission overwrite: %w", err)
	}
	return nil
}

func (m *DiscordChannelManager) DeleteOverwrite(ctx context.Context, channelID, targetID snowflake.ID) error {
	if err := m.session.ChannelPermissionDelete(
		channelID.String(),
		targetID.String(),
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to delete permission overwrite: %w", err)
	}
	return nil
}

func (m *DiscordChannelManager) patch(ctx context.Context, channelID snowflake.ID, body map[string]any) error {
	endpoint := discordgo.EndpointChannel(channelID.String())
	_, err := m.session.RequestWithBucketID(http.MethodPatch, endpoint, body, endpoint, discordgo.WithContext(ctx))
	return err
}
