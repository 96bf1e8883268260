package usecases

import (
	"context"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// maxListedMembers is how many allowed members Info lists by name.
const maxListedMembers = 5

// InfoOutput contains the result of the Info use case.
type InfoOutput struct {
	OwnerID          snowflake.ID
	Privacy          Privacy
	AllowedMemberIDs []snowflake.ID
	// MoreAllowed is the number of allowed members not listed.
	MoreAllowed    int
	ConnectedCount int
}

// ChannelSettingsService edits a room's name, audio, video and chat settings.
type ChannelSettingsService struct {
	cache    domain.Cache
	channels ports.ChannelManager
	identity ports.BotIdentity
}

// NewChannelSettingsService creates a new ChannelSettingsService.
func NewChannelSettingsService(
	cache domain.Cache,
	channels ports.ChannelManager,
	identity ports.BotIdentity,
) *ChannelSettingsService {
	return &ChannelSettingsService{
		cache:    cache,
		channels: channels,
		identity: identity,
	}
}

// Rename renames the room.
func (s *ChannelSettingsService) Rename(ctx context.Context, ref RoomRef, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > domain.MaxChannelNameLength {
		return "", ErrInvalidName
	}
	return name, s.edit(ctx, ref, ports.ChannelEdit{Name: &name})
}

// SetBitrate sets the room's bitrate in kbps.
func (s *ChannelSettingsService) SetBitrate(ctx context.Context, ref RoomRef, kbps int) error {
	if kbps < domain.MinBitrateKbps || kbps > domain.MaxBitrateKbps {
		return ErrInvalidBitrate
	}
	bitrate := kbps * 1000
	return s.edit(ctx, ref, ports.ChannelEdit{Bitrate: &bitrate})
}

// SetUserLimit caps how many members may join. 0 removes the cap.
func (s *ChannelSettingsService) SetUserLimit(ctx context.Context, ref RoomRef, limit int) error {
	if limit < 0 || limit > domain.MaxUserLimit {
		return ErrInvalidUserLimit
	}
	return s.edit(ctx, ref, ports.ChannelEdit{UserLimit: &limit})
}

// SetSlowmode sets the room's text chat slowmode.
func (s *ChannelSettingsService) SetSlowmode(ctx context.Context, ref RoomRef, seconds int) error {
	if !domain.IsValidSlowmode(seconds) {
		return ErrInvalidSlowmode
	}
	return s.edit(ctx, ref, ports.ChannelEdit{Slowmode: &seconds})
}

// SetVideoQuality sets the room's camera quality.
func (s *ChannelSettingsService) SetVideoQuality(ctx context.Context, ref RoomRef, quality VideoQuality) error {
	if !quality.IsValid() {
		return ErrInvalidVideoQuality
	}
	return s.edit(ctx, ref, ports.ChannelEdit{VideoQuality: &quality})
}

func (s *ChannelSettingsService) edit(ctx context.Context, ref RoomRef, edit ports.ChannelEdit) error {
	if _, _, err := lookupOwnedRoom(s.cache, ref); err != nil {
		return err
	}
	if err := s.channels.EditChannel(ctx, ref.ChannelID, edit); err != nil {
		return remoteError("edit voice channel", err)
	}
	return nil
}

// Info describes the room's owner, privacy and allowed members.
func (s *ChannelSettingsService) Info(_ context.Context, guildID, channelID snowflake.ID) (*InfoOutput, error) {
	guild, room, err := lookupRoom(s.cache, guildID, channelID)
	if err != nil {
		return nil, err
	}

	snapshot := room.Snapshot()
	allowed := domain.AllowedMembers(snapshot.Overwrites, snapshot.OwnerID, s.identity.BotUserID())

	output := &InfoOutput{
		OwnerID:        snapshot.OwnerID,
		Privacy:        domain.PrivacyOf(snapshot.Overwrites, guild.ID),
		ConnectedCount: len(snapshot.ConnectedUserIDs),
	}
	if len(allowed) > maxListedMembers {
		output.MoreAllowed = len(allowed) - maxListedMembers
		allowed = allowed[:maxListedMembers]
	}
	output.AllowedMemberIDs = allowed

	return output, nil
}
