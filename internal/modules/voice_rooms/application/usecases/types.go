package usecases

import (
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// Re-export domain types for presentation layer use.

// Privacy is an alias for domain.Privacy.
type Privacy = domain.Privacy

// OverwriteKind is an alias for domain.OverwriteKind.
type OverwriteKind = domain.OverwriteKind

// VideoQuality is an alias for domain.VideoQuality.
type VideoQuality = domain.VideoQuality

// PlatformEvent is an alias for domain.PlatformEvent.
type PlatformEvent = domain.PlatformEvent

// Cache is an alias for domain.Cache.
type Cache = domain.Cache

// RoomRef identifies a voice room and the member acting on it.
type RoomRef struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	UserID    snowflake.ID
}

func lookupGuild(cache domain.Cache, guildID snowflake.ID) (*domain.Guild, error) {
	guild := cache.Guild(guildID)
	if guild == nil {
		if cache.IsUnavailable(guildID) {
			return nil, ErrGuildUnavailable
		}
		return nil, ErrUnknownGuild
	}
	return guild, nil
}

func lookupRoom(cache domain.Cache, guildID, channelID snowflake.ID) (*domain.Guild, *domain.VoiceChannel, error) {
	guild, err := lookupGuild(cache, guildID)
	if err != nil {
		return nil, nil, err
	}
	room := cache.VoiceChannel(channelID)
	if room == nil || room.GuildID != guildID {
		return nil, nil, ErrUnknownChannel
	}
	return guild, room, nil
}

// lookupOwnedRoom is lookupRoom restricted to the room's owner.
func lookupOwnedRoom(cache domain.Cache, ref RoomRef) (*domain.Guild, *domain.VoiceChannel, error) {
	guild, room, err := lookupRoom(cache, ref.GuildID, ref.ChannelID)
	if err != nil {
		return nil, nil, err
	}
	if room.OwnerID() != ref.UserID {
		return nil, nil, ErrNotOwner
	}
	return guild, room, nil
}

func overwriteSlots(guild *domain.Guild, botUserID, ownerID snowflake.ID) domain.OverwriteSlots {
	return domain.OverwriteSlots{
		EveryoneID: guild.ID,
		BotRoleID:  guild.BotRoleID(),
		BotUserID:  botUserID,
		OwnerID:    ownerID,
	}
}
