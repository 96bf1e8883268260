package usecases

import (
	"context"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinInput(userID snowflake.ID, displayName string) VoiceStateChangeInput {
	return VoiceStateChangeInput{
		GuildID:     testGuildID,
		UserID:      userID,
		ChannelID:   testJoinID,
		DisplayName: displayName,
	}
}

func TestLifecycleService_ProvisionsRoomOnJoin(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	ctx := context.Background()

	output, err := f.lifecycle.HandleVoiceStateChange(ctx, joinInput(testMemberID, "Alex"))
	require.NoError(t, err)

	channelID := output.ProvisionedChannelID
	require.NotZero(t, channelID)
	assert.Equal(t, []string{
		"create voice channel",
		"send panel",
		"move member",
		"store voice channel",
	}, f.log.list())

	require.Len(t, f.channels.created, 1)
	spec := f.channels.created[0]
	assert.Equal(t, "Alex's voice", spec.Name)
	assert.Equal(t, testCategoryID, spec.ParentID)

	// Nothing is denied in an unlocked room, so the owner needs no entry.
	_, ok := domain.FindOverwrite(spec.Overwrites, testMemberID, domain.OverwriteMember)
	assert.False(t, ok)
	bot, ok := domain.FindOverwrite(spec.Overwrites, testBotRoleID, domain.OverwriteRole)
	require.True(t, ok)
	assert.True(t, bot.Allow.Has(domain.PermissionAccess))

	assert.Equal(t, []moveCall{{UserID: testMemberID, ChannelID: channelID}}, f.members.moves)

	room := f.cache.VoiceChannel(channelID)
	require.NotNil(t, room)
	assert.Equal(t, testMemberID, room.OwnerID())
	assert.NotZero(t, room.PanelMessageID())
	owned, ok := f.cache.OwnedChannel(testGuildID, testMemberID)
	assert.True(t, ok)
	assert.Equal(t, channelID, owned)
	assert.Equal(t, testMemberID, f.store.rooms[channelID].OwnerID)
}

func TestLifecycleService_ProvisionFollowsGuildPrivacy(t *testing.T) {
	tests := []struct {
		name    string
		privacy domain.Privacy
		denied  domain.Permissions
	}{
		{"unlocked", domain.PrivacyUnlocked, 0},
		{"locked", domain.PrivacyLocked, domain.PermissionConnect},
		{"invisible", domain.PrivacyInvisible, domain.PermissionViewChannel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture().withGuild(tt.privacy, false)

			_, err := f.lifecycle.HandleVoiceStateChange(context.Background(), joinInput(testMemberID, "Alex"))
			require.NoError(t, err)

			require.Len(t, f.channels.created, 1)
			overwrites := f.channels.created[0].Overwrites
			assert.Equal(t, tt.privacy, domain.PrivacyOf(overwrites, testGuildID))

			everyone, _ := domain.FindOverwrite(overwrites, testGuildID, domain.OverwriteRole)
			assert.Equal(t, tt.denied, everyone.Deny)
		})
	}
}

func TestLifecycleService_ProvisionFetchesMissingDisplayName(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.members.members[testMemberID] = ports.MemberInfo{DisplayName: "Chris"}

	_, err := f.lifecycle.HandleVoiceStateChange(context.Background(), joinInput(testMemberID, ""))
	require.NoError(t, err)

	require.Len(t, f.channels.created, 1)
	assert.Equal(t, "Chris' voice", f.channels.created[0].Name)
}

func TestLifecycleService_ProvisionSkips(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fixture) VoiceStateChangeInput
	}{
		{
			name: "unknown guild",
			setup: func(*fixture) VoiceStateChangeInput {
				return joinInput(testMemberID, "Alex")
			},
		},
		{
			name: "bot member",
			setup: func(f *fixture) VoiceStateChangeInput {
				f.withGuild(domain.PrivacyUnlocked, false)
				input := joinInput(testMemberID, "Helper")
				input.IsBot = true
				return input
			},
		},
		{
			name: "not a join channel",
			setup: func(f *fixture) VoiceStateChangeInput {
				f.withGuild(domain.PrivacyUnlocked, false)
				input := joinInput(testMemberID, "Alex")
				input.ChannelID = 999
				return input
			},
		},
		{
			name: "member already owns a room",
			setup: func(f *fixture) VoiceStateChangeInput {
				f.withGuild(domain.PrivacyUnlocked, true)
				f.withRoom(testMemberID, domain.PrivacyUnlocked)
				return joinInput(testMemberID, "Alex")
			},
		},
		{
			name: "provisioning already in progress",
			setup: func(f *fixture) VoiceStateChangeInput {
				f.withGuild(domain.PrivacyUnlocked, false)
				f.lifecycle.provisioning.acquire(testGuildID, testMemberID)
				return joinInput(testMemberID, "Alex")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			input := tt.setup(f)

			output, err := f.lifecycle.HandleVoiceStateChange(context.Background(), input)
			require.NoError(t, err)
			assert.Zero(t, output.ProvisionedChannelID)
			assert.Empty(t, f.channels.created)
		})
	}
}

func TestLifecycleService_ProvisionFailureLeavesNoRoom(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*fixture)
		wantClass   error
		wantDeleted bool
	}{
		{
			name:      "create fails",
			setup:     func(f *fixture) { f.channels.createVoiceErr = errBoom },
			wantClass: ErrRemoteFailure,
		},
		{
			name:        "panel fails",
			setup:       func(f *fixture) { f.panels.sendErr = errBoom },
			wantClass:   ErrRemoteFailure,
			wantDeleted: true,
		},
		{
			name:        "move fails",
			setup:       func(f *fixture) { f.members.moveErr = errBoom },
			wantClass:   ErrRemoteFailure,
			wantDeleted: true,
		},
		{
			name:        "store fails",
			setup:       func(f *fixture) { f.store.err = errBoom },
			wantClass:   ErrPersistence,
			wantDeleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture().withGuild(domain.PrivacyUnlocked, false)
			tt.setup(f)

			_, err := f.lifecycle.HandleVoiceStateChange(context.Background(), joinInput(testMemberID, "Alex"))
			assert.ErrorIs(t, err, tt.wantClass)
			assert.ErrorIs(t, err, errBoom)

			_, owns := f.cache.OwnedChannel(testGuildID, testMemberID)
			assert.False(t, owns)
			if tt.wantDeleted {
				assert.Len(t, f.channels.deleted, 1)
			} else {
				assert.Empty(t, f.channels.deleted)
			}

			// The guard is released, so a retry can provision.
			assert.True(t, f.lifecycle.provisioning.acquire(testGuildID, testMemberID))
		})
	}
}

func TestLifecycleService_CleanupEmptyRoom(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)
	ctx := context.Background()

	output, err := f.lifecycle.HandleVoiceStateChange(ctx, VoiceStateChangeInput{
		GuildID: testGuildID,
		UserID:  testOwnerID,
	})
	require.NoError(t, err)

	assert.True(t, output.CleanupRequested)
	assert.Equal(t, []snowflake.ID{testRoomID}, f.channels.deleted)
	// The room stays cached until the platform confirms the deletion.
	assert.NotNil(t, f.cache.VoiceChannel(testRoomID))

	require.NoError(t, f.sync.Handle(ctx, domain.ChannelDeleted{
		GuildID:   testGuildID,
		ChannelID: testRoomID,
		Kind:      domain.ChannelKindVoice,
	}))
	assert.Nil(t, f.cache.VoiceChannel(testRoomID))
	assert.NotContains(t, f.store.rooms, testRoomID)
	_, owns := f.cache.OwnedChannel(testGuildID, testOwnerID)
	assert.False(t, owns)
}

func TestLifecycleService_CleanupKeepsRoom(t *testing.T) {
	tests := []struct {
		name       string
		permanence bool
		stayer     bool
	}{
		{name: "permanence enabled", permanence: true},
		{name: "room still occupied", stayer: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture().withGuild(domain.PrivacyUnlocked, tt.permanence)
			f.withRoom(testOwnerID, domain.PrivacyUnlocked)
			if tt.stayer {
				f.cache.InsertVoiceState(testGuildID, testMemberID, testRoomID)
			}

			output, err := f.lifecycle.HandleVoiceStateChange(context.Background(), VoiceStateChangeInput{
				GuildID: testGuildID,
				UserID:  testOwnerID,
			})
			require.NoError(t, err)

			assert.False(t, output.CleanupRequested)
			assert.Empty(t, f.channels.deleted)
		})
	}
}

func TestLifecycleService_OwnerMovingToJoinChannelDoesNotProvision(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)

	output, err := f.lifecycle.HandleVoiceStateChange(context.Background(), joinInput(testOwnerID, "Owner"))
	require.NoError(t, err)

	assert.True(t, output.CleanupRequested)
	assert.Zero(t, output.ProvisionedChannelID)
	assert.Empty(t, f.channels.created)
}

func TestLifecycleService_SameChannelUpdateIsIgnored(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)

	output, err := f.lifecycle.HandleVoiceStateChange(context.Background(), VoiceStateChangeInput{
		GuildID:   testGuildID,
		UserID:    testOwnerID,
		ChannelID: testRoomID,
	})
	require.NoError(t, err)

	assert.Equal(t, &VoiceStateChangeOutput{}, output)
	assert.Empty(t, f.log.list())
}

func TestLifecycleService_EnsurePanelMessageIsIdempotent(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)
	ctx := context.Background()

	first, err := f.lifecycle.EnsurePanelMessage(ctx, testGuildID, testRoomID)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := f.lifecycle.EnsurePanelMessage(ctx, testGuildID, testRoomID)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.MessageID, second.MessageID)

	assert.Len(t, f.panels.sent, 1)
	assert.Equal(t, first.MessageID, f.cache.VoiceChannel(testRoomID).PanelMessageID())
	assert.Equal(t, first.MessageID, f.store.rooms[testRoomID].PanelMessageID)
}

func TestLifecycleService_EnsurePanelMessageUnknownChannel(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, false)

	_, err := f.lifecycle.EnsurePanelMessage(context.Background(), testGuildID, testRoomID)
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestLifecycleService_RemoveChannel(t *testing.T) {
	f := newFixture().withGuild(domain.PrivacyUnlocked, true)
	f.withRoom(testOwnerID, domain.PrivacyUnlocked)
	ctx := context.Background()

	assert.ErrorIs(t, f.lifecycle.RemoveChannel(ctx, ownerRef(testMemberID)), ErrNotOwner)
	assert.Empty(t, f.channels.deleted)

	require.NoError(t, f.lifecycle.RemoveChannel(ctx, ownerRef(testOwnerID)))
	assert.Equal(t, []snowflake.ID{testRoomID}, f.channels.deleted)
}

func TestLifecycleService_ResetPanelSelection(t *testing.T) {
	f := newFixture()
	messageID := snowflake.ID(7000)

	require.True(t, f.lifecycle.ResetPanelSelection(testRoomID, messageID))
	assert.Empty(t, f.panels.resets)

	assert.Empty(t, f.tasks.runAll(context.Background()))
	assert.Equal(t, []snowflake.ID{messageID}, f.panels.resets)

	f.tasks.reject = true
	assert.False(t, f.lifecycle.ResetPanelSelection(testRoomID, messageID))
}

func TestProvisioningGuard(t *testing.T) {
	var guard provisioningGuard

	assert.True(t, guard.acquire(testGuildID, testMemberID))
	assert.False(t, guard.acquire(testGuildID, testMemberID))
	assert.True(t, guard.acquire(testGuildID, testOtherID))

	guard.release(testGuildID, testMemberID)
	assert.True(t, guard.acquire(testGuildID, testMemberID))
}
