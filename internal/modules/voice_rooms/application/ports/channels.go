package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// ChannelSpec describes a channel to create.
type ChannelSpec struct {
	GuildID    snowflake.ID
	ParentID   snowflake.ID // 0 for top-level channels
	Name       string
	Position   int
	Overwrites []domain.Overwrite
}

// ChannelEdit describes changes to a channel's settings. Nil fields are left unchanged.
type ChannelEdit struct {
	Name         *string
	Bitrate      *int // bits per second
	UserLimit    *int
	Slowmode     *int // seconds
	VideoQuality *domain.VideoQuality
}

// ChannelManager defines the interface for creating, editing and deleting channels.
type ChannelManager interface {
	// CreateCategory creates a category channel and returns its ID.
	CreateCategory(ctx context.Context, spec ChannelSpec) (snowflake.ID, error)

	// CreateVoiceChannel creates a voice channel and returns its ID.
	CreateVoiceChannel(ctx context.Context, spec ChannelSpec) (snowflake.ID, error)

	// DeleteChannel deletes a channel.
	DeleteChannel(ctx context.Context, channelID snowflake.ID) error

	// EditChannel applies the given settings to a channel.
	EditChannel(ctx context.Context, channelID snowflake.ID, edit ChannelEdit) error

	// SetOverwrites replaces the full overwrite list of a channel.
	SetOverwrites(ctx context.Context, channelID snowflake.ID, overwrites []domain.Overwrite) error

	// SetOverwrite creates or replaces a single overwrite.
	SetOverwrite(ctx context.Context, channelID snowflake.ID, overwrite domain.Overwrite) error

	// DeleteOverwrite deletes the overwrite for a single target.
	DeleteOverwrite(ctx context.Context, channelID, targetID snowflake.ID) error
}
