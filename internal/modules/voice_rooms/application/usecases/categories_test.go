package usecases

import (
	"context"
	"strings"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_ProvisionCategory(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)

	output, err := f.categories.ProvisionCategory(context.Background(), testGuildID, "  Gaming ")
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(1001), output.CategoryID)
	assert.Equal(t, snowflake.ID(1002), output.JoinChannelID)
	assert.Equal(t, []string{"create category", "create voice channel", "store category"}, f.log.list())

	require.Len(t, f.channels.created, 2)
	category, join := f.channels.created[0], f.channels.created[1]
	assert.Equal(t, "Gaming", category.Name)
	assert.Equal(t, []domain.Overwrite{domain.RoleOverwrite(testBotRoleID, domain.PermissionViewChannel, 0)}, category.Overwrites)
	assert.Equal(t, JoinChannelName, join.Name)
	assert.Equal(t, output.CategoryID, join.ParentID)
	bot, ok := domain.FindOverwrite(join.Overwrites, testBotRoleID, domain.OverwriteRole)
	require.True(t, ok)
	assert.True(t, bot.Allow.Has(domain.PermissionConnect))

	assert.Equal(t, ports.CategoryRecord{
		ID: output.CategoryID, GuildID: testGuildID, JoinChannelID: output.JoinChannelID,
	}, f.store.categories[output.CategoryID])
	cached := f.cache.Category(output.CategoryID)
	require.NotNil(t, cached)
	assert.Equal(t, output.JoinChannelID, cached.JoinChannelID())
	assert.Len(t, f.cache.Guild(testGuildID).CategoryIDs(), 2)
}

func TestCategoryService_ProvisionCategoryInvisibleGuild(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyInvisible, false)

	output, err := f.categories.ProvisionCategory(context.Background(), testGuildID, "Hidden")
	require.NoError(t, err)

	overwrites := f.cache.Category(output.CategoryID).Overwrites()
	assert.Equal(t, domain.PrivacyInvisible, domain.PrivacyOf(overwrites, testGuildID))
	bot, ok := domain.FindOverwrite(overwrites, testBotRoleID, domain.OverwriteRole)
	require.True(t, ok)
	assert.True(t, bot.Allow.Has(domain.PermissionViewChannel))
}

func TestCategoryService_ProvisionCategoryLimit(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	ctx := context.Background()

	for range DefaultMaxCategories - 1 {
		_, err := f.categories.ProvisionCategory(ctx, testGuildID, "More")
		require.NoError(t, err)
	}

	_, err := f.categories.ProvisionCategory(ctx, testGuildID, "One too many")
	assert.ErrorIs(t, err, ErrMaximumCategories)
	assert.Len(t, f.channels.created, 2*(DefaultMaxCategories-1))
}

func TestCategoryService_ProvisionCategoryRejects(t *testing.T) {
	tests := []struct {
		name    string
		guildID snowflake.ID
		input   string
		wantErr error
	}{
		{name: "blank name", guildID: testGuildID, input: "   ", wantErr: ErrInvalidName},
		{name: "overlong name", guildID: testGuildID, input: strings.Repeat("a", domain.MaxChannelNameLength+1), wantErr: ErrInvalidName},
		{name: "unknown guild", guildID: 999, input: "Gaming", wantErr: ErrUnknownGuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture().withGuild(domain.PrivacyUnlocked, false)

			_, err := f.categories.ProvisionCategory(context.Background(), tt.guildID, tt.input)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.channels.created)
		})
	}
}

func TestCategoryService_ProvisionCategoryJoinChannelFailure(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.channels.createVoiceErr = errBoom

	_, err := f.categories.ProvisionCategory(context.Background(), testGuildID, "Gaming")

	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, []snowflake.ID{1001}, f.channels.deleted)
	assert.Nil(t, f.cache.Category(1001))
	assert.Len(t, f.store.categories, 1)
}

func TestCategoryService_ProvisionCategoryPersistenceFailure(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.store.err = errBoom

	_, err := f.categories.ProvisionCategory(context.Background(), testGuildID, "Gaming")

	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, []snowflake.ID{1002, 1001}, f.channels.deleted)
	assert.Nil(t, f.cache.Category(1001))
}

func TestCategoryService_ProvisionJoinChannel(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	const bareID snowflake.ID = 30
	f.cache.InsertCategory(domain.NewCategoryChannel(bareID, testGuildID, 0, nil))
	f.store.categories[bareID] = ports.CategoryRecord{ID: bareID, GuildID: testGuildID}
	ctx := context.Background()

	joinID, err := f.categories.ProvisionJoinChannel(ctx, testGuildID, bareID)
	require.NoError(t, err)

	assert.Equal(t, snowflake.ID(1001), joinID)
	assert.Equal(t, joinID, f.cache.Category(bareID).JoinChannelID())
	assert.Equal(t, joinID, f.store.categories[bareID].JoinChannelID)

	_, err = f.categories.ProvisionJoinChannel(ctx, testGuildID, bareID)
	assert.ErrorIs(t, err, ErrJoinChannelExists)

	_, err = f.categories.ProvisionJoinChannel(ctx, testGuildID, 999)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryService_ProvisionJoinChannelOtherGuild(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.cache.InsertGuild(domain.NewGuild(2, 0, domain.PrivacyUnlocked, false))
	f.cache.InsertCategory(domain.NewCategoryChannel(30, 2, 0, nil))

	_, err := f.categories.ProvisionJoinChannel(context.Background(), testGuildID, 30)

	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Empty(t, f.channels.created)
}

func TestCategoryService_RemoveCategory(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)
	ctx := context.Background()

	output, err := f.categories.RemoveCategory(ctx, testGuildID, testCategoryID)
	require.NoError(t, err)
	assert.Equal(t, 3, output.ScheduledDeletes)

	assert.Empty(t, f.tasks.runAll(ctx))
	assert.Equal(t, []snowflake.ID{testRoomID, testJoinID, testCategoryID}, f.channels.deleted)

	// Entries stay until the deletions are confirmed.
	assert.NotNil(t, f.cache.Category(testCategoryID))
	assert.Contains(t, f.store.categories, testCategoryID)
}

func TestCategoryService_RemoveCategoryQueueFull(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.tasks.reject = true

	output, err := f.categories.RemoveCategory(context.Background(), testGuildID, testCategoryID)
	require.NoError(t, err)

	assert.Zero(t, output.ScheduledDeletes)
}

func TestCategoryService_RemoveUnknownCategory(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)

	_, err := f.categories.RemoveCategory(context.Background(), testGuildID, 999)

	assert.ErrorIs(t, err, ErrUnknownCategory)
}
