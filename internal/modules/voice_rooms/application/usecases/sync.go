package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// SyncService applies gateway events to the cache and the store.
type SyncService struct {
	cache     domain.Cache
	store     ports.Store
	channels  ports.ChannelManager
	tasks     ports.TaskScheduler
	lifecycle *LifecycleService
	ownership *OwnershipService
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	cache domain.Cache,
	store ports.Store,
	channels ports.ChannelManager,
	tasks ports.TaskScheduler,
	lifecycle *LifecycleService,
	ownership *OwnershipService,
) *SyncService {
	return &SyncService{
		cache:     cache,
		store:     store,
		channels:  channels,
		tasks:     tasks,
		lifecycle: lifecycle,
		ownership: ownership,
	}
}

// Handle applies a single platform event.
func (s *SyncService) Handle(ctx context.Context, event PlatformEvent) error {
	switch e := event.(type) {
	case domain.GuildAvailable:
		return s.guildAvailable(ctx, e)
	case domain.GuildUnavailable:
		// The next GuildAvailable resync rebuilds the tree from the store.
		s.cache.RemoveGuild(e.GuildID)
		s.cache.SetUnavailable(e.GuildID, true)
		return nil
	case domain.Ready:
		for _, guildID := range e.GuildIDs {
			s.cache.SetUnavailable(guildID, true)
		}
		return nil
	case domain.GuildRemoved:
		return s.guildRemoved(ctx, e)
	case domain.ChannelDeleted:
		return s.channelDeleted(ctx, e)
	case domain.ChannelUpdated:
		s.channelUpdated(e)
		return nil
	case domain.MemberRemoved:
		return s.ownership.ClearMember(ctx, e.GuildID, e.UserID)
	case domain.MessageDeleted:
		return s.messageDeleted(ctx, e)
	case domain.VoicePresenceChanged:
		_, err := s.lifecycle.HandleVoiceStateChange(ctx, VoiceStateChangeInput{
			GuildID:     e.GuildID,
			UserID:      e.UserID,
			ChannelID:   e.ChannelID,
			DisplayName: e.DisplayName,
			IsBot:       e.IsBot,
		})
		return err
	default:
		return fmt.Errorf("unsupported platform event %T", event)
	}
}

// guildAvailable rebuilds the guild's cache from the store and the live
// snapshot, after pruning store rows for channels that no longer exist.
func (s *SyncService) guildAvailable(ctx context.Context, e domain.GuildAvailable) error {
	s.cache.SetUnavailable(e.GuildID, false)

	if e.BotRoleID == 0 {
		slog.Warn("skipped guild without a bot role", "guild_id", e.GuildID)
		return nil
	}

	settings, err := s.store.EnsureGuild(ctx, e.GuildID)
	if err != nil {
		return persistenceError("ensure guild", err)
	}

	live := make(map[snowflake.ID]domain.LiveChannel, len(e.Channels))
	liveIDs := make([]snowflake.ID, 0, len(e.Channels))
	for _, channel := range e.Channels {
		live[channel.ID] = channel
		liveIDs = append(liveIDs, channel.ID)
	}

	if err := s.store.RetainChannels(ctx, e.GuildID, liveIDs); err != nil {
		return persistenceError("prune channels", err)
	}

	categories, err := s.store.Categories(ctx, e.GuildID)
	if err != nil {
		return persistenceError("load categories", err)
	}
	rooms, err := s.store.VoiceChannels(ctx, e.GuildID)
	if err != nil {
		return persistenceError("load voice channels", err)
	}

	s.cache.RemoveGuild(e.GuildID)
	guild := domain.NewGuild(e.GuildID, e.BotRoleID, settings.Privacy, settings.Permanence)
	s.cache.InsertGuild(guild)

	for _, record := range categories {
		joinChannelID := record.JoinChannelID
		if _, ok := live[joinChannelID]; joinChannelID != 0 && !ok {
			if err := s.store.SetCategoryJoinChannel(ctx, record.ID, 0); err != nil {
				return persistenceError("clear join channel", err)
			}
			joinChannelID = 0
		}

		s.cache.InsertCategory(domain.NewCategoryChannel(
			record.ID,
			e.GuildID,
			joinChannelID,
			live[record.ID].Overwrites,
		))
	}

	for _, record := range rooms {
		channel := live[record.ID]
		parentID := record.ParentID
		if channel.ParentID != parentID && s.cache.Category(channel.ParentID) != nil {
			if err := s.store.SetVoiceChannelParent(ctx, record.ID, channel.ParentID); err != nil {
				return persistenceError("update voice channel parent", err)
			}
			parentID = channel.ParentID
		}

		s.cache.InsertVoiceChannel(domain.NewVoiceChannel(
			record.ID,
			e.GuildID,
			parentID,
			record.OwnerID,
			record.PanelMessageID,
			channel.Overwrites,
		))
	}

	for _, presence := range e.VoiceStates {
		s.cache.InsertVoiceState(e.GuildID, presence.UserID, presence.ChannelID)
	}

	scheduled := 0
	if !settings.Permanence {
		scheduled = scheduleEmptyRoomDeletes(s.cache, s.channels, s.tasks, guild)
	}

	slog.Info("synchronized guild",
		"guild_id", e.GuildID,
		"categories", len(categories),
		"voice_channels", len(rooms),
		"voice_states", len(e.VoiceStates),
		"scheduled_deletes", scheduled,
	)

	return nil
}

func (s *SyncService) guildRemoved(ctx context.Context, e domain.GuildRemoved) error {
	s.cache.RemoveGuild(e.GuildID)
	s.cache.SetUnavailable(e.GuildID, false)

	if err := s.store.DeleteGuild(ctx, e.GuildID); err != nil {
		return persistenceError("delete guild", err)
	}
	return nil
}

func (s *SyncService) channelDeleted(ctx context.Context, e domain.ChannelDeleted) error {
	if category := s.cache.Category(e.ChannelID); category != nil {
		if err := s.store.DeleteCategory(ctx, e.ChannelID); err != nil {
			return persistenceError("delete category", err)
		}
		s.cache.RemoveCategory(e.ChannelID)
		return nil
	}

	if e.Kind != domain.ChannelKindVoice {
		return nil
	}

	if category := s.cache.CategoryByJoinChannel(e.GuildID, e.ChannelID); category != nil {
		if err := s.store.SetCategoryJoinChannel(ctx, category.ID, 0); err != nil {
			return persistenceError("clear join channel", err)
		}
		s.cache.UpdateCategoryJoinChannel(category.ID, 0)
		return nil
	}

	if s.cache.VoiceChannel(e.ChannelID) == nil {
		return nil
	}
	if err := s.store.DeleteVoiceChannel(ctx, e.ChannelID); err != nil {
		return persistenceError("delete voice channel", err)
	}
	s.cache.RemoveVoiceChannel(e.ChannelID)

	return nil
}

func (s *SyncService) channelUpdated(e domain.ChannelUpdated) {
	if s.cache.Category(e.ChannelID) != nil {
		s.cache.UpdateCategoryOverwrites(e.ChannelID, e.Overwrites)
		return
	}
	if s.cache.VoiceChannel(e.ChannelID) != nil {
		s.cache.UpdateVoiceChannelOverwrites(e.ChannelID, e.Overwrites)
	}
}

func (s *SyncService) messageDeleted(ctx context.Context, e domain.MessageDeleted) error {
	room := s.cache.VoiceChannel(e.ChannelID)
	if room == nil || room.PanelMessageID() != e.MessageID {
		return nil
	}

	if err := s.store.ClearPanelMessage(ctx, e.MessageID); err != nil {
		return persistenceError("clear panel message", err)
	}
	s.cache.UpdateVoiceChannelPanelMessage(e.ChannelID, 0)

	return nil
}
