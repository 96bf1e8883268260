package usecases

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// SetPermanenceOutput contains the result of the SetPermanence use case.
type SetPermanenceOutput struct {
	Permanence bool
	// ScheduledDeletes is the number of empty rooms queued for deletion.
	ScheduledDeletes int
}

// CategorySummary describes a managed category for the settings view.
type CategorySummary struct {
	ID            snowflake.ID
	JoinChannelID snowflake.ID
	RoomCount     int
}

// SettingsOutput contains the result of the Settings use case.
type SettingsOutput struct {
	Categories []CategorySummary
	Permanence bool
	Privacy    Privacy
}

// GuildSettingsService manages guild-wide room defaults.
type GuildSettingsService struct {
	cache    domain.Cache
	store    ports.Store
	channels ports.ChannelManager
	tasks    ports.TaskScheduler
}

// NewGuildSettingsService creates a new GuildSettingsService.
func NewGuildSettingsService(
	cache domain.Cache,
	store ports.Store,
	channels ports.ChannelManager,
	tasks ports.TaskScheduler,
) *GuildSettingsService {
	return &GuildSettingsService{
		cache:    cache,
		store:    store,
		channels: channels,
		tasks:    tasks,
	}
}

// SetPermanence sets whether empty rooms are kept. Turning it off queues the
// deletion of rooms that are already empty.
func (s *GuildSettingsService) SetPermanence(
	ctx context.Context,
	guildID snowflake.ID,
	permanence bool,
) (*SetPermanenceOutput, error) {
	guild, err := lookupGuild(s.cache, guildID)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetGuildPermanence(ctx, guildID, permanence); err != nil {
		return nil, persistenceError("set guild permanence", err)
	}
	guild.SetPermanence(permanence)

	output := &SetPermanenceOutput{Permanence: permanence}
	if !permanence {
		output.ScheduledDeletes = scheduleEmptyRoomDeletes(s.cache, s.channels, s.tasks, guild)
	}

	return output, nil
}

// SetPrivacy sets the default privacy of new rooms and applies the matching
// visibility to every category and join channel.
func (s *GuildSettingsService) SetPrivacy(
	ctx context.Context,
	guildID snowflake.ID,
	privacy Privacy,
) error {
	guild, err := lookupGuild(s.cache, guildID)
	if err != nil {
		return err
	}

	if err := s.store.SetGuildPrivacy(ctx, guildID, privacy); err != nil {
		return persistenceError("set guild privacy", err)
	}
	guild.SetPrivacy(privacy)

	for _, categoryID := range guild.CategoryIDs() {
		category := s.cache.Category(categoryID)
		if category == nil {
			continue
		}

		everyone := categoryEveryone(category.Overwrites(), guildID, privacy)
		s.tasks.Schedule("apply category privacy", func(ctx context.Context) error {
			if err := s.applyEveryone(ctx, categoryID, everyone); err != nil {
				return err
			}
			s.cache.UpdateCategoryOverwrites(categoryID, replaceEveryone(category.Overwrites(), everyone))
			return nil
		})

		if joinID := category.JoinChannelID(); joinID != 0 {
			joinEveryone := categoryEveryone(nil, guildID, privacy)
			s.tasks.Schedule("apply join channel privacy", func(ctx context.Context) error {
				return s.applyEveryone(ctx, joinID, joinEveryone)
			})
		}
	}

	return nil
}

func (s *GuildSettingsService) applyEveryone(
	ctx context.Context,
	channelID snowflake.ID,
	everyone domain.Overwrite,
) error {
	if everyone.IsEmpty() {
		return s.channels.DeleteOverwrite(ctx, channelID, everyone.ID)
	}
	return s.channels.SetOverwrite(ctx, channelID, everyone)
}

// Settings returns the guild's configuration.
func (s *GuildSettingsService) Settings(_ context.Context, guildID snowflake.ID) (*SettingsOutput, error) {
	guild, err := lookupGuild(s.cache, guildID)
	if err != nil {
		return nil, err
	}

	snapshot := guild.Snapshot()
	output := &SettingsOutput{
		Permanence: snapshot.Permanence,
		Privacy:    snapshot.Privacy,
	}
	for _, categoryID := range snapshot.CategoryIDs {
		category := s.cache.Category(categoryID)
		if category == nil {
			continue
		}
		c := category.Snapshot()
		output.Categories = append(output.Categories, CategorySummary{
			ID:            c.ID,
			JoinChannelID: c.JoinChannelID,
			RoomCount:     len(c.VoiceChannelIDs),
		})
	}

	return output, nil
}

// categoryEveryone returns the everyone entry of a category or join channel:
// only invisibility applies there, since a locked join channel could not be joined.
func categoryEveryone(overwrites []domain.Overwrite, everyoneID snowflake.ID, privacy domain.Privacy) domain.Overwrite {
	everyone, _ := domain.FindOverwrite(overwrites, everyoneID, domain.OverwriteRole)
	everyone.ID = everyoneID
	everyone.Kind = domain.OverwriteRole
	everyone.Deny &^= domain.PermissionViewChannel
	if privacy == domain.PrivacyInvisible {
		everyone.Allow &^= domain.PermissionViewChannel
		everyone.Deny |= domain.PermissionViewChannel
	}
	return everyone
}

func replaceEveryone(overwrites []domain.Overwrite, everyone domain.Overwrite) []domain.Overwrite {
	out := make([]domain.Overwrite, 0, len(overwrites)+1)
	for _, o := range overwrites {
		if o.ID == everyone.ID && o.Kind == everyone.Kind {
			continue
		}
		out = append(out, o)
	}
	if !everyone.IsEmpty() {
		out = append(out, everyone)
	}
	return out
}

// scheduleEmptyRoomDeletes queues deletion of every cached room in the guild
// that nobody is connected to.
func scheduleEmptyRoomDeletes(
	cache domain.Cache,
	channels ports.ChannelManager,
	tasks ports.TaskScheduler,
	guild *domain.Guild,
) int {
	scheduled := 0
	for _, categoryID := range guild.CategoryIDs() {
		category := cache.Category(categoryID)
		if category == nil {
			continue
		}
		for _, channelID := range category.VoiceChannelIDs() {
			room := cache.VoiceChannel(channelID)
			if room == nil || room.ConnectedCount() > 0 {
				continue
			}
			if tasks.Schedule(fmt.Sprintf("delete empty voice channel %d", channelID), deleteChannelTask(channels, channelID)) {
				scheduled++
			}
		}
	}
	return scheduled
}

func deleteChannelTask(channels ports.ChannelManager, channelID snowflake.ID) ports.Task {
	return func(ctx context.Context) error {
		return channels.DeleteChannel(ctx, channelID)
	}
}
