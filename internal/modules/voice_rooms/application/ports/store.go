package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// GuildSettings is the persisted configuration of a guild.
type GuildSettings struct {
	Permanence bool
	Privacy    domain.Privacy
}

// CategoryRecord is a persisted category row.
type CategoryRecord struct {
	ID            snowflake.ID
	GuildID       snowflake.ID
	JoinChannelID snowflake.ID // 0 when unset
}

// VoiceChannelRecord is a persisted room row.
type VoiceChannelRecord struct {
	ID             snowflake.ID
	GuildID        snowflake.ID
	ParentID       snowflake.ID
	OwnerID        snowflake.ID // 0 when unowned
	PanelMessageID snowflake.ID // 0 when unset
}

// Store defines the durable source of truth for guilds, categories and rooms.
// Deleting a guild cascades to its categories, and deleting a category cascades
// to its rooms.
type Store interface {
	// EnsureGuild inserts the guild with default settings if it is missing and
	// returns its settings.
	EnsureGuild(ctx context.Context, guildID snowflake.ID) (GuildSettings, error)
	SetGuildPermanence(ctx context.Context, guildID snowflake.ID, permanence bool) error
	SetGuildPrivacy(ctx context.Context, guildID snowflake.ID, privacy domain.Privacy) error
	DeleteGuild(ctx context.Context, guildID snowflake.ID) error

	Categories(ctx context.Context, guildID snowflake.ID) ([]CategoryRecord, error)
	InsertCategory(ctx context.Context, record CategoryRecord) error
	SetCategoryJoinChannel(ctx context.Context, categoryID, joinChannelID snowflake.ID) error
	DeleteCategory(ctx context.Context, categoryID snowflake.ID) error

	VoiceChannels(ctx context.Context, guildID snowflake.ID) ([]VoiceChannelRecord, error)
	InsertVoiceChannel(ctx context.Context, record VoiceChannelRecord) error
	SetVoiceChannelOwner(ctx context.Context, channelID, ownerID snowflake.ID) error
	SetVoiceChannelParent(ctx context.Context, channelID, parentID snowflake.ID) error
	// ClearOwner clears ownership of every room the user owns in the guild.
	ClearOwner(ctx context.Context, guildID, userID snowflake.ID) error
	SetPanelMessage(ctx context.Context, channelID, messageID snowflake.ID) error
	// ClearPanelMessage clears the panel ID of the room whose panel is messageID.
	ClearPanelMessage(ctx context.Context, messageID snowflake.ID) error
	DeleteVoiceChannel(ctx context.Context, channelID snowflake.ID) error

	// RetainChannels deletes every category and room row of the guild whose ID is
	// not in keep.
	RetainChannels(ctx context.Context, guildID snowflake.ID, keep []snowflake.ID) error
}
