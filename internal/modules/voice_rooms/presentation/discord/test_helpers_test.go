package discord

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/infrastructure"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID   = "1"
	testBotRoleID = "2"
	testBotUserID = "3"
	testOwnerID   = "100"
	testMemberID  = "101"
	testRoleID    = "200"
)

// fakeChannels records channel calls and hands out sequential IDs.
type fakeChannels struct {
	mu         sync.Mutex
	nextID     snowflake.ID
	deleted    []snowflake.ID
	edits      map[snowflake.ID][]ports.ChannelEdit
	overwrites map[snowflake.ID][]domain.Overwrite
}

func newFakeChannels() *fakeChannels {
	return &fakeChannels{
		nextID:     1000,
		edits:      make(map[snowflake.ID][]ports.ChannelEdit),
		overwrites: make(map[snowflake.ID][]domain.Overwrite),
	}
}

func (f *fakeChannels) create(spec ports.ChannelSpec) snowflake.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.overwrites[id] = spec.Overwrites
	return id
}

func (f *fakeChannels) CreateCategory(_ context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	return f.create(spec), nil
}

func (f *fakeChannels) CreateVoiceChannel(_ context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	return f.create(spec), nil
}

func (f *fakeChannels) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakeChannels) EditChannel(_ context.Context, channelID snowflake.ID, edit ports.ChannelEdit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits[channelID] = append(f.edits[channelID], edit)
	return nil
}

func (f *fakeChannels) SetOverwrites(_ context.Context, channelID snowflake.ID, overwrites []domain.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overwrites[channelID] = overwrites
	return nil
}

func (f *fakeChannels) SetOverwrite(_ context.Context, channelID snowflake.ID, overwrite domain.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make([]domain.Overwrite, 0, len(f.overwrites[channelID])+1)
	for _, o := range f.overwrites[channelID] {
		if o.ID != overwrite.ID {
			kept = append(kept, o)
		}
	}
	f.overwrites[channelID] = append(kept, overwrite)
	return nil
}

func (f *fakeChannels) DeleteOverwrite(_ context.Context, channelID, targetID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.overwrites[channelID][:0:0]
	for _, o := range f.overwrites[channelID] {
		if o.ID != targetID {
			kept = append(kept, o)
		}
	}
	f.overwrites[channelID] = kept
	return nil
}

type fakePanels struct {
	mu     sync.Mutex
	nextID snowflake.ID
	sent   []snowflake.ID
	resets []snowflake.ID
}

func (f *fakePanels) SendPanel(_ context.Context, channelID snowflake.ID) (snowflake.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, channelID)
	return 5000 + f.nextID, nil
}

func (f *fakePanels) PanelExists(context.Context, snowflake.ID, snowflake.ID) (bool, error) {
	return true, nil
}

func (f *fakePanels) ResetPanel(_ context.Context, _, messageID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, messageID)
	return nil
}

type fakeMembers struct {
	mu    sync.Mutex
	moves map[snowflake.ID]snowflake.ID
}

func (f *fakeMembers) Member(context.Context, snowflake.ID, snowflake.ID) (*ports.MemberInfo, error) {
	return &ports.MemberInfo{DisplayName: "Member"}, nil
}

func (f *fakeMembers) MoveMember(_ context.Context, _, userID, channelID snowflake.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves[userID] = channelID
	return nil
}

type fakeIdentity struct{}

func (fakeIdentity) BotUserID() snowflake.ID { return snowflake.MustParse(testBotUserID) }

// inlineTasks runs scheduled tasks immediately.
type inlineTasks struct{}

func (inlineTasks) Schedule(_ string, task ports.Task) bool {
	_ = task(context.Background())
	return true
}

type fakeRoleFetcher struct {
	roles []string
	calls int
}

func (f *fakeRoleFetcher) MemberRoleIDs(context.Context, snowflake.ID, snowflake.ID) ([]string, error) {
	f.calls++
	return f.roles, nil
}

type harness struct {
	cache    *infrastructure.MemoryCache
	store    *infrastructure.SQLiteStore
	channels *fakeChannels
	panels   *fakePanels
	members  *fakeMembers

	commands *CommandHandlers
	panel    *PanelHandlers
	events   *EventHandlers
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := infrastructure.NewSQLiteStore(filepath.Join(t.TempDir(), "voice_rooms.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		cache:    infrastructure.NewMemoryCache(),
		store:    store,
		channels: newFakeChannels(),
		panels:   &fakePanels{},
		members:  &fakeMembers{moves: make(map[snowflake.ID]snowflake.ID)},
	}
	identity := fakeIdentity{}
	tasks := inlineTasks{}

	lifecycle := usecases.NewLifecycleService(h.cache, store, h.channels, h.panels, h.members, identity, tasks)
	ownership := usecases.NewOwnershipService(h.cache, store, h.channels, identity)
	access := usecases.NewAccessService(h.cache, h.channels, h.members, identity)
	settings := usecases.NewGuildSettingsService(h.cache, store, h.channels, tasks)
	categories := usecases.NewCategoryService(h.cache, store, h.channels, tasks, identity, usecases.DefaultMaxCategories)
	channelSettings := usecases.NewChannelSettingsService(h.cache, h.channels, identity)
	syncService := usecases.NewSyncService(h.cache, store, h.channels, tasks, lifecycle, ownership)

	h.commands = NewCommandHandlers(categories, settings, lifecycle)
	h.panel = NewPanelHandlers(lifecycle, ownership, access, channelSettings)
	h.events = NewEventHandlers(syncService, identity, &fakeRoleFetcher{})

	return h
}

// withGuild makes the guild available with the bot holding its managed role.
func (h *harness) withGuild(t *testing.T) *harness {
	t.Helper()
	h.events.HandleGuildCreate(nil, &discordgo.GuildCreate{Guild: &discordgo.Guild{
		ID:      testGuildID,
		Roles:   []*discordgo.Role{{ID: testBotRoleID, Managed: true}},
		Members: []*discordgo.Member{{User: &discordgo.User{ID: testBotUserID, Bot: true}, Roles: []string{testBotRoleID}}},
	}})
	require.NotNil(t, h.cache.Guild(snowflake.MustParse(testGuildID)))
	return h
}

// withRoom creates a category and lets the owner join its join channel.
// It returns the provisioned room's ID.
func (h *harness) withRoom(t *testing.T) snowflake.ID {
	t.Helper()
	r := &bot.MockResponder{}
	require.NoError(t, h.commands.HandleCreate(nil, commandInteraction("create", adminBits, "",
		subcommandOption("voice-category", stringValue("name", "Voice")),
	), r))
	categoryID := snowflake.ID(1000)
	joinID := h.cache.Category(categoryID).JoinChannelID()

	h.joinVoice(testOwnerID, "Alex", joinID)
	roomID := h.members.moves[snowflake.MustParse(testOwnerID)]
	require.NotZero(t, roomID)
	h.joinVoice(testOwnerID, "Alex", roomID)
	return roomID
}

func (h *harness) joinVoice(userID, name string, channelID snowflake.ID) {
	channel := ""
	if channelID != 0 {
		channel = channelID.String()
	}
	h.events.HandleVoiceStateUpdate(nil, &discordgo.VoiceStateUpdate{VoiceState: &discordgo.VoiceState{
		GuildID:   testGuildID,
		UserID:    userID,
		ChannelID: channel,
		Member:    &discordgo.Member{Nick: name, User: &discordgo.User{ID: userID}},
	}})
}

func member(userID string, permissions int64) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: userID}, Permissions: permissions}
}

func commandInteraction(
	name string,
	permissions int64,
	channelID string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   testGuildID,
		ChannelID: channelID,
		Member:    member(testOwnerID, permissions),
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}}
}

func subcommandOption(
	name string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:    name,
		Type:    discordgo.ApplicationCommandOptionSubCommand,
		Options: options,
	}
}

func stringValue(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func boolValue(name string, value bool) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionBoolean,
		Value: value,
	}
}

func channelValue(name string, id snowflake.ID) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: id.String(),
	}
}

func componentInteraction(
	customID, userID string,
	roomID snowflake.ID,
	values ...string,
) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuildID,
		ChannelID: roomID.String(),
		Member:    member(userID, 0),
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.SelectMenuComponent,
			Values:        values,
		},
	}}
}

// panelInteraction is a selection on the panel message itself.
func panelInteraction(userID string, roomID, messageID snowflake.ID, action domain.PanelAction) *discordgo.InteractionCreate {
	i := componentInteraction(PanelSelectID, userID, roomID, string(action))
	i.Message = &discordgo.Message{ID: messageID.String(), ChannelID: roomID.String()}
	return i
}

func modalInteraction(customID, userID string, roomID snowflake.ID, value string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionModalSubmit,
		GuildID:   testGuildID,
		ChannelID: roomID.String(),
		Member:    member(userID, 0),
		Data: discordgo.ModalSubmitInteractionData{
			CustomID: customID,
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: modalInputID, Value: value},
				}},
			},
		},
	}}
}

// embed returns the single embed of the last response.
// embed returns the embed shown to the user, reading the edit when the
// response was deferred.
func embed(t *testing.T, r *bot.MockResponder) *discordgo.MessageEmbed {
	t.Helper()
	if r.Deferred() {
		require.NotNil(t, r.LastEdit)
		require.NotNil(t, r.LastEdit.Embeds)
		require.Len(t, *r.LastEdit.Embeds, 1)
		return (*r.LastEdit.Embeds)[0]
	}
	require.NotNil(t, r.LastResponse)
	require.NotNil(t, r.LastResponse.Data)
	require.Len(t, r.LastResponse.Data.Embeds, 1)
	return r.LastResponse.Data.Embeds[0]
}
