package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// VoiceStateChangeInput contains the input for handling a voice presence change.
type VoiceStateChangeInput struct {
	GuildID     snowflake.ID
	UserID      snowflake.ID
	ChannelID   snowflake.ID // 0 means disconnected
	DisplayName string
	IsBot       bool
}

// VoiceStateChangeOutput reports what the change caused.
type VoiceStateChangeOutput struct {
	// ProvisionedChannelID is the room created for the user, or 0.
	ProvisionedChannelID snowflake.ID
	// CleanupRequested is true when the user's previous room was empty and its
	// deletion was requested.
	CleanupRequested bool
}

// EnsurePanelOutput contains the result of EnsurePanelMessage.
type EnsurePanelOutput struct {
	MessageID snowflake.ID
	Created   bool
}

// LifecycleService provisions rooms on join-channel joins, requests their
// deletion once empty and keeps their control panels in place.
type LifecycleService struct {
	cache    domain.Cache
	store    ports.Store
	channels ports.ChannelManager
	panels   ports.PanelMessenger
	members  ports.MemberManager
	identity ports.BotIdentity
	tasks    ports.TaskScheduler

	provisioning provisioningGuard
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	cache domain.Cache,
	store ports.Store,
	channels ports.ChannelManager,
	panels ports.PanelMessenger,
	members ports.MemberManager,
	identity ports.BotIdentity,
	tasks ports.TaskScheduler,
) *LifecycleService {
	return &LifecycleService{
		cache:    cache,
		store:    store,
		channels: channels,
		panels:   panels,
		members:  members,
		identity: identity,
		tasks:    tasks,
	}
}

// HandleVoiceStateChange updates presence, requests deletion of the room the
// user left if it is now empty, and provisions a room if the user joined a
// join channel.
func (s *LifecycleService) HandleVoiceStateChange(
	ctx context.Context,
	input VoiceStateChangeInput,
) (*VoiceStateChangeOutput, error) {
	output := &VoiceStateChangeOutput{}

	guild := s.cache.Guild(input.GuildID)
	if guild == nil {
		return output, nil
	}

	var previous snowflake.ID
	if input.ChannelID == 0 {
		previous = s.cache.RemoveVoiceState(input.GuildID, input.UserID)
	} else {
		previous = s.cache.InsertVoiceState(input.GuildID, input.UserID, input.ChannelID)
	}

	if previous == input.ChannelID {
		// Mute, deafen and similar updates.
		return output, nil
	}

	if previous != 0 {
		output.CleanupRequested = s.cleanup(ctx, guild, previous)
	}

	if input.ChannelID == 0 {
		return output, nil
	}

	channelID, err := s.provision(ctx, guild, input)
	if err != nil {
		return output, err
	}
	output.ProvisionedChannelID = channelID

	return output, nil
}

// cleanup requests deletion of an empty room. The cache entry stays until the
// platform confirms the deletion with a ChannelDeleted event.
func (s *LifecycleService) cleanup(ctx context.Context, guild *domain.Guild, channelID snowflake.ID) bool {
	room := s.cache.VoiceChannel(channelID)
	if room == nil || room.ConnectedCount() > 0 || guild.Permanence() {
		return false
	}

	if err := s.channels.DeleteChannel(ctx, channelID); err != nil {
		slog.Warn("failed to delete empty voice channel",
			"guild_id", guild.ID,
			"channel_id", channelID,
			"error", err,
		)
		return false
	}

	slog.Debug("requested deletion of empty voice channel",
		"guild_id", guild.ID,
		"channel_id", channelID,
	)
	return true
}

func (s *LifecycleService) provision(
	ctx context.Context,
	guild *domain.Guild,
	input VoiceStateChangeInput,
) (snowflake.ID, error) {
	if input.IsBot {
		return 0, nil
	}
	if _, owns := s.cache.OwnedChannel(input.GuildID, input.UserID); owns {
		return 0, nil
	}

	category := s.cache.CategoryByJoinChannel(input.GuildID, input.ChannelID)
	if category == nil {
		return 0, nil
	}

	if !s.provisioning.acquire(input.GuildID, input.UserID) {
		return 0, nil
	}
	defer s.provisioning.release(input.GuildID, input.UserID)
	if _, owns := s.cache.OwnedChannel(input.GuildID, input.UserID); owns {
		return 0, nil
	}

	displayName := input.DisplayName
	if displayName == "" {
		member, err := s.members.Member(ctx, input.GuildID, input.UserID)
		if err != nil {
			return 0, remoteError("fetch member", err)
		}
		displayName = member.DisplayName
	}

	overwrites := domain.ComputeOverwrites(
		category.Overwrites(),
		overwriteSlots(guild, s.identity.BotUserID(), input.UserID),
		guild.Privacy(),
	)

	channelID, err := s.channels.CreateVoiceChannel(ctx, ports.ChannelSpec{
		GuildID:    input.GuildID,
		ParentID:   category.ID,
		Name:       domain.RoomName(displayName),
		Overwrites: overwrites,
	})
	if err != nil {
		return 0, remoteError("create voice channel", err)
	}

	messageID, err := s.panels.SendPanel(ctx, channelID)
	if err != nil {
		s.abandon(ctx, channelID)
		return 0, remoteError("send panel message", err)
	}

	if err := s.members.MoveMember(ctx, input.GuildID, input.UserID, channelID); err != nil {
		s.abandon(ctx, channelID)
		return 0, remoteError("move member", err)
	}

	record := ports.VoiceChannelRecord{
		ID:             channelID,
		GuildID:        input.GuildID,
		ParentID:       category.ID,
		OwnerID:        input.UserID,
		PanelMessageID: messageID,
	}
	if err := s.store.InsertVoiceChannel(ctx, record); err != nil {
		s.abandon(ctx, channelID)
		return 0, persistenceError("insert voice channel", err)
	}

	s.cache.InsertVoiceChannel(domain.NewVoiceChannel(
		channelID,
		input.GuildID,
		category.ID,
		input.UserID,
		messageID,
		overwrites,
	))

	slog.Info("provisioned voice channel",
		"guild_id", input.GuildID,
		"channel_id", channelID,
		"owner_id", input.UserID,
	)

	return channelID, nil
}

// abandon deletes a channel whose provisioning failed part way.
func (s *LifecycleService) abandon(ctx context.Context, channelID snowflake.ID) {
	if err := s.channels.DeleteChannel(ctx, channelID); err != nil {
		slog.Warn("failed to delete abandoned voice channel", "channel_id", channelID, "error", err)
	}
}

// EnsurePanelMessage posts a control panel into the room unless the recorded
// one still exists.
func (s *LifecycleService) EnsurePanelMessage(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (*EnsurePanelOutput, error) {
	_, room, err := lookupRoom(s.cache, guildID, channelID)
	if err != nil {
		return nil, err
	}

	if existing := room.PanelMessageID(); existing != 0 {
		ok, err := s.panels.PanelExists(ctx, channelID, existing)
		if err != nil {
			return nil, remoteError("fetch panel message", err)
		}
		if ok {
			return &EnsurePanelOutput{MessageID: existing}, nil
		}
	}

	messageID, err := s.panels.SendPanel(ctx, channelID)
	if err != nil {
		return nil, remoteError("send panel message", err)
	}

	if err := s.store.SetPanelMessage(ctx, channelID, messageID); err != nil {
		return nil, persistenceError("set panel message", err)
	}
	s.cache.UpdateVoiceChannelPanelMessage(channelID, messageID)

	return &EnsurePanelOutput{MessageID: messageID, Created: true}, nil
}

// ResetPanelSelection schedules restoring the panel menu so the last pick does
// not stay selected.
func (s *LifecycleService) ResetPanelSelection(channelID, messageID snowflake.ID) bool {
	return s.tasks.Schedule(fmt.Sprintf("reset panel %d", messageID), func(ctx context.Context) error {
		return s.panels.ResetPanel(ctx, channelID, messageID)
	})
}

// RemoveChannel deletes a room on its owner's request.
func (s *LifecycleService) RemoveChannel(ctx context.Context, ref RoomRef) error {
	if _, _, err := lookupOwnedRoom(s.cache, ref); err != nil {
		return err
	}

	if err := s.channels.DeleteChannel(ctx, ref.ChannelID); err != nil {
		return remoteError("delete voice channel", err)
	}
	return nil
}

// provisioningGuard serializes provisioning per member so overlapping joins of
// the same member create at most one room.
type provisioningGuard struct {
	mu     sync.Mutex
	active map[memberKey]struct{}
}

type memberKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

func (g *provisioningGuard) acquire(guildID, userID snowflake.ID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active == nil {
		g.active = make(map[memberKey]struct{})
	}
	key := memberKey{guildID, userID}
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *provisioningGuard) release(guildID, userID snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, memberKey{guildID, userID})
}
