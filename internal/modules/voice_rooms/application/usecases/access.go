package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// AccessInput contains the input for the Grant and Revoke use cases.
type AccessInput struct {
	RoomRef
	TargetID snowflake.ID
	Kind     OverwriteKind
	// TargetManaged is true for roles managed by an integration.
	TargetManaged bool
}

// KickInput contains the input for the Kick use case.
type KickInput struct {
	RoomRef
	TargetID snowflake.ID
}

// PrivacyInput contains the input for the SetChannelPrivacy use case.
type PrivacyInput struct {
	RoomRef
	Privacy Privacy
}

// AccessService manages who may view and join a room.
type AccessService struct {
	cache    domain.Cache
	channels ports.ChannelManager
	members  ports.MemberManager
	identity ports.BotIdentity
}

// NewAccessService creates a new AccessService.
func NewAccessService(
	cache domain.Cache,
	channels ports.ChannelManager,
	members ports.MemberManager,
	identity ports.BotIdentity,
) *AccessService {
	return &AccessService{
		cache:    cache,
		channels: channels,
		members:  members,
		identity: identity,
	}
}

// Grant allows the target to view and join the room.
func (s *AccessService) Grant(ctx context.Context, input AccessInput) error {
	guild, room, err := lookupOwnedRoom(s.cache, input.RoomRef)
	if err != nil {
		return err
	}
	if err := s.checkTarget(guild, room, input); err != nil {
		return err
	}

	change := domain.GrantAccess(room.Overwrites(), input.TargetID, input.Kind)
	if err := s.channels.SetOverwrite(ctx, room.ID, change.Entry); err != nil {
		return remoteError("update channel permission", err)
	}
	s.cache.UpdateVoiceChannelOverwrites(room.ID, change.Overwrites)

	return nil
}

// Revoke takes away the target's view and join permissions in the room.
func (s *AccessService) Revoke(ctx context.Context, input AccessInput) error {
	guild, room, err := lookupOwnedRoom(s.cache, input.RoomRef)
	if err != nil {
		return err
	}
	if err := s.checkTarget(guild, room, input); err != nil {
		return err
	}

	change, ok := domain.RevokeAccess(room.Overwrites(), input.TargetID, input.Kind)
	if !ok {
		return ErrNoAccessToRemove
	}

	if change.Removed {
		err = s.channels.DeleteOverwrite(ctx, room.ID, input.TargetID)
	} else {
		err = s.channels.SetOverwrite(ctx, room.ID, change.Entry)
	}
	if err != nil {
		return remoteError("update channel permission", err)
	}
	s.cache.UpdateVoiceChannelOverwrites(room.ID, change.Overwrites)

	return nil
}

// checkTarget rejects targets whose overwrites are managed by the room itself.
func (s *AccessService) checkTarget(guild *domain.Guild, room *domain.VoiceChannel, input AccessInput) error {
	if input.Kind == domain.OverwriteMember {
		if input.TargetID == room.OwnerID() || input.TargetID == s.identity.BotUserID() {
			return ErrProtectedMember
		}
		return nil
	}

	if input.TargetManaged || input.TargetID == guild.ID || input.TargetID == guild.BotRoleID() {
		return ErrProtectedRole
	}
	return nil
}

// Kick disconnects a member from the room.
func (s *AccessService) Kick(ctx context.Context, input KickInput) error {
	_, room, err := lookupOwnedRoom(s.cache, input.RoomRef)
	if err != nil {
		return err
	}

	switch input.TargetID {
	case s.identity.BotUserID(), room.OwnerID(), input.UserID:
		return ErrCannotKick
	}
	if !room.IsConnected(input.TargetID) {
		return ErrNotConnected
	}

	if err := s.members.MoveMember(ctx, input.GuildID, input.TargetID, 0); err != nil {
		return remoteError("disconnect member", err)
	}
	return nil
}

// Lock stops everyone except allowed members from joining the room.
func (s *AccessService) Lock(ctx context.Context, ref RoomRef) error {
	guild, room, err := lookupOwnedRoom(s.cache, ref)
	if err != nil {
		return err
	}
	if domain.PrivacyOf(room.Overwrites(), guild.ID) != domain.PrivacyUnlocked {
		return ErrAlreadyLocked
	}
	return s.applyPrivacy(ctx, guild, room, domain.PrivacyLocked)
}

// Unlock lets everyone view and join the room.
func (s *AccessService) Unlock(ctx context.Context, ref RoomRef) error {
	guild, room, err := lookupOwnedRoom(s.cache, ref)
	if err != nil {
		return err
	}
	if domain.PrivacyOf(room.Overwrites(), guild.ID) == domain.PrivacyUnlocked {
		return ErrAlreadyUnlocked
	}
	return s.applyPrivacy(ctx, guild, room, domain.PrivacyUnlocked)
}

// SetChannelPrivacy switches the room to the given privacy mode.
func (s *AccessService) SetChannelPrivacy(ctx context.Context, input PrivacyInput) error {
	guild, room, err := lookupOwnedRoom(s.cache, input.RoomRef)
	if err != nil {
		return err
	}
	if domain.PrivacyOf(room.Overwrites(), guild.ID) == input.Privacy {
		return ErrPrivacyUnchanged
	}
	return s.applyPrivacy(ctx, guild, room, input.Privacy)
}

func (s *AccessService) applyPrivacy(
	ctx context.Context,
	guild *domain.Guild,
	room *domain.VoiceChannel,
	privacy domain.Privacy,
) error {
	overwrites := domain.ComputeOverwrites(
		room.Overwrites(),
		overwriteSlots(guild, s.identity.BotUserID(), room.OwnerID()),
		privacy,
	)

	if err := s.channels.SetOverwrites(ctx, room.ID, overwrites); err != nil {
		return remoteError("update channel permissions", err)
	}
	s.cache.UpdateVoiceChannelOverwrites(room.ID, overwrites)

	return nil
}
