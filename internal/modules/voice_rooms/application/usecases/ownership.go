package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// TransferInput contains the input for the Transfer use case.
type TransferInput struct {
	RoomRef
	TargetID    snowflake.ID
	TargetIsBot bool
}

// OwnershipService handles claiming, transferring and clearing room ownership.
type OwnershipService struct {
	cache    domain.Cache
	store    ports.Store
	channels ports.ChannelManager
	identity ports.BotIdentity
}

// NewOwnershipService creates a new OwnershipService.
func NewOwnershipService(
	cache domain.Cache,
	store ports.Store,
	channels ports.ChannelManager,
	identity ports.BotIdentity,
) *OwnershipService {
	return &OwnershipService{
		cache:    cache,
		store:    store,
		channels: channels,
		identity: identity,
	}
}

// Claim makes the invoking member the owner of an unowned room.
func (s *OwnershipService) Claim(ctx context.Context, ref RoomRef) error {
	guild, room, err := lookupRoom(s.cache, ref.GuildID, ref.ChannelID)
	if err != nil {
		return err
	}

	switch owner := room.OwnerID(); {
	case owner == ref.UserID:
		return ErrAlreadyOwner
	case owner != 0:
		return ErrChannelOwned
	}
	if _, owns := s.cache.OwnedChannel(ref.GuildID, ref.UserID); owns {
		return ErrAlreadyOwnsChannel
	}

	return s.setOwner(ctx, guild, room, ref.UserID)
}

// Transfer hands ownership of the invoking owner's room to another member.
func (s *OwnershipService) Transfer(ctx context.Context, input TransferInput) error {
	guild, room, err := lookupOwnedRoom(s.cache, input.RoomRef)
	if err != nil {
		return err
	}

	switch {
	case input.TargetID == input.UserID:
		return ErrAlreadyOwner
	case input.TargetIsBot || input.TargetID == s.identity.BotUserID():
		return ErrTargetIsBot
	}
	if _, owns := s.cache.OwnedChannel(input.GuildID, input.TargetID); owns {
		return ErrTargetOwnsChannel
	}

	return s.setOwner(ctx, guild, room, input.TargetID)
}

// setOwner rewrites the owner slot remotely, then persists, then caches.
func (s *OwnershipService) setOwner(
	ctx context.Context,
	guild *domain.Guild,
	room *domain.VoiceChannel,
	ownerID snowflake.ID,
) error {
	overwrites := domain.ComputeOverwrites(
		room.Overwrites(),
		overwriteSlots(guild, s.identity.BotUserID(), ownerID),
		domain.PrivacyOf(room.Overwrites(), guild.ID),
	)

	if err := s.channels.SetOverwrites(ctx, room.ID, overwrites); err != nil {
		return remoteError("update channel permissions", err)
	}

	if err := s.store.SetVoiceChannelOwner(ctx, room.ID, ownerID); err != nil {
		return persistenceError("set voice channel owner", err)
	}

	s.cache.UpdateVoiceChannelOwner(room.ID, ownerID)
	s.cache.UpdateVoiceChannelOverwrites(room.ID, overwrites)

	return nil
}

// ClearMember clears ownership of any room owned by a member who left the guild.
// The room itself is kept.
func (s *OwnershipService) ClearMember(ctx context.Context, guildID, userID snowflake.ID) error {
	if err := s.store.ClearOwner(ctx, guildID, userID); err != nil {
		return persistenceError("clear voice channel owner", err)
	}

	if channelID, ok := s.cache.OwnedChannel(guildID, userID); ok {
		s.cache.UpdateVoiceChannelOwner(channelID, 0)
	}

	return nil
}
