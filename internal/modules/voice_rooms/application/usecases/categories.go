package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// DefaultMaxCategories is the number of voice categories a guild may have.
const DefaultMaxCategories = 3

// JoinChannelName is the name given to new join channels.
const JoinChannelName = "Join to create"

// ProvisionCategoryOutput contains the result of the ProvisionCategory use case.
type ProvisionCategoryOutput struct {
	CategoryID    snowflake.ID
	JoinChannelID snowflake.ID
}

// RemoveCategoryOutput contains the result of the RemoveCategory use case.
type RemoveCategoryOutput struct {
	// ScheduledDeletes is the number of channels queued for deletion.
	ScheduledDeletes int
}

// CategoryService creates and removes managed voice categories.
type CategoryService struct {
	cache         domain.Cache
	store         ports.Store
	channels      ports.ChannelManager
	tasks         ports.TaskScheduler
	identity      ports.BotIdentity
	maxCategories int
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(
	cache domain.Cache,
	store ports.Store,
	channels ports.ChannelManager,
	tasks ports.TaskScheduler,
	identity ports.BotIdentity,
	maxCategories int,
) *CategoryService {
	if maxCategories <= 0 {
		maxCategories = DefaultMaxCategories
	}
	return &CategoryService{
		cache:         cache,
		store:         store,
		channels:      channels,
		tasks:         tasks,
		identity:      identity,
		maxCategories: maxCategories,
	}
}

// ProvisionCategory creates a voice category with its join channel.
func (s *CategoryService) ProvisionCategory(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
) (*ProvisionCategoryOutput, error) {
	guild, err := lookupGuild(s.cache, guildID)
	if err != nil {
		return nil, err
	}

	if len(guild.CategoryIDs()) >= s.maxCategories {
		return nil, ErrMaximumCategories
	}

	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > domain.MaxChannelNameLength {
		return nil, ErrInvalidName
	}

	template := s.categoryTemplate(guild)
	categoryID, err := s.channels.CreateCategory(ctx, ports.ChannelSpec{
		GuildID:    guildID,
		Name:       name,
		Overwrites: template,
	})
	if err != nil {
		return nil, remoteError("create category", err)
	}

	joinChannelID, err := s.createJoinChannel(ctx, guild, categoryID, template)
	if err != nil {
		s.abandon(ctx, categoryID)
		return nil, err
	}

	record := ports.CategoryRecord{ID: categoryID, GuildID: guildID, JoinChannelID: joinChannelID}
	if err := s.store.InsertCategory(ctx, record); err != nil {
		s.abandon(ctx, joinChannelID)
		s.abandon(ctx, categoryID)
		return nil, persistenceError("insert category", err)
	}

	s.cache.InsertCategory(domain.NewCategoryChannel(categoryID, guildID, joinChannelID, template))

	slog.Info("provisioned voice category",
		"guild_id", guildID,
		"category_id", categoryID,
		"join_channel_id", joinChannelID,
	)

	return &ProvisionCategoryOutput{CategoryID: categoryID, JoinChannelID: joinChannelID}, nil
}

// ProvisionJoinChannel creates a join channel for a category that has none.
func (s *CategoryService) ProvisionJoinChannel(
	ctx context.Context,
	guildID, categoryID snowflake.ID,
) (snowflake.ID, error) {
	guild, err := lookupGuild(s.cache, guildID)
	if err != nil {
		return 0, err
	}

	category := s.cache.Category(categoryID)
	if category == nil || category.GuildID != guildID {
		return 0, ErrUnknownCategory
	}
	if category.JoinChannelID() != 0 {
		return 0, ErrJoinChannelExists
	}

	joinChannelID, err := s.createJoinChannel(ctx, guild, categoryID, category.Overwrites())
	if err != nil {
		return 0, err
	}

	if err := s.store.SetCategoryJoinChannel(ctx, categoryID, joinChannelID); err != nil {
		s.abandon(ctx, joinChannelID)
		return 0, persistenceError("set join channel", err)
	}
	s.cache.UpdateCategoryJoinChannel(categoryID, joinChannelID)

	return joinChannelID, nil
}

// RemoveCategory queues the deletion of a category's rooms, its join channel
// and the category itself. Cache and store entries are removed when the
// deletions are confirmed by ChannelDeleted events.
func (s *CategoryService) RemoveCategory(
	_ context.Context,
	guildID, categoryID snowflake.ID,
) (*RemoveCategoryOutput, error) {
	category := s.cache.Category(categoryID)
	if category == nil || category.GuildID != guildID {
		return nil, ErrUnknownCategory
	}

	snapshot := category.Snapshot()
	channelIDs := append([]snowflake.ID{}, snapshot.VoiceChannelIDs...)
	if snapshot.JoinChannelID != 0 {
		channelIDs = append(channelIDs, snapshot.JoinChannelID)
	}
	channelIDs = append(channelIDs, categoryID)

	output := &RemoveCategoryOutput{}
	for _, channelID := range channelIDs {
		if s.tasks.Schedule(fmt.Sprintf("delete channel %d", channelID), deleteChannelTask(s.channels, channelID)) {
			output.ScheduledDeletes++
		}
	}

	return output, nil
}

// categoryTemplate returns the overwrites of a new category: the bot may
// always view it, and everyone is denied view while the guild is invisible.
func (s *CategoryService) categoryTemplate(guild *domain.Guild) []domain.Overwrite {
	var template []domain.Overwrite
	if guild.Privacy() == domain.PrivacyInvisible {
		template = append(template, domain.RoleOverwrite(guild.ID, 0, domain.PermissionViewChannel))
	}
	if botRoleID := guild.BotRoleID(); botRoleID != 0 {
		template = append(template, domain.RoleOverwrite(botRoleID, domain.PermissionViewChannel, 0))
	} else {
		template = append(template, domain.MemberOverwrite(s.identity.BotUserID(), domain.PermissionViewChannel, 0))
	}
	return template
}

func (s *CategoryService) createJoinChannel(
	ctx context.Context,
	guild *domain.Guild,
	categoryID snowflake.ID,
	template []domain.Overwrite,
) (snowflake.ID, error) {
	overwrites := domain.CloneOverwrites(template)
	if botRoleID := guild.BotRoleID(); botRoleID != 0 {
		overwrites = domain.GrantAccess(overwrites, botRoleID, domain.OverwriteRole).Overwrites
	} else {
		overwrites = domain.GrantAccess(overwrites, s.identity.BotUserID(), domain.OverwriteMember).Overwrites
	}

	joinChannelID, err := s.channels.CreateVoiceChannel(ctx, ports.ChannelSpec{
		GuildID:    guild.ID,
		ParentID:   categoryID,
		Name:       JoinChannelName,
		Position:   0,
		Overwrites: overwrites,
	})
	if err != nil {
		return 0, remoteError("create join channel", err)
	}
	return joinChannelID, nil
}

func (s *CategoryService) abandon(ctx context.Context, channelID snowflake.ID) {
	if err := s.channels.DeleteChannel(ctx, channelID); err != nil {
		slog.Warn("failed to delete abandoned channel", "channel_id", channelID, "error", err)
	}
}
