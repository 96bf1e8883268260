package usecases

import (
	"context"
	"errors"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/infrastructure"
)

const (
	testGuildID    snowflake.ID = 1
	testBotRoleID  snowflake.ID = 2
	testBotUserID  snowflake.ID = 3
	testCategoryID snowflake.ID = 10
	testJoinID     snowflake.ID = 11
	testRoomID     snowflake.ID = 20
	testOwnerID    snowflake.ID = 100
	testMemberID   snowflake.ID = 101
	testOtherID    snowflake.ID = 102
	testRoleID     snowflake.ID = 200
)

var errBoom = errors.New("boom")

// callLog records the order of remote and store calls across mocks.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type mockChannels struct {
	log    *callLog
	nextID snowflake.ID

	created       []ports.ChannelSpec
	deleted       []snowflake.ID
	edits         map[snowflake.ID]ports.ChannelEdit
	overwrites    map[snowflake.ID][]domain.Overwrite
	setOne        []domain.Overwrite
	deletedTarget []snowflake.ID

	createErr        error
	createVoiceErr   error
	deleteErr        error
	editErr          error
	setOverwritesErr error
	setOverwriteErr  error
}

func newMockChannels(log *callLog) *mockChannels {
	return &mockChannels{
		log:        log,
		nextID:     1000,
		edits:      make(map[snowflake.ID]ports.ChannelEdit),
		overwrites: make(map[snowflake.ID][]domain.Overwrite),
	}
}

func (m *mockChannels) CreateCategory(_ context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	m.log.add("create category")
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.created = append(m.created, spec)
	m.nextID++
	return m.nextID, nil
}

func (m *mockChannels) CreateVoiceChannel(_ context.Context, spec ports.ChannelSpec) (snowflake.ID, error) {
	m.log.add("create voice channel")
	if m.createVoiceErr != nil {
		return 0, m.createVoiceErr
	}
	m.created = append(m.created, spec)
	m.nextID++
	return m.nextID, nil
}

func (m *mockChannels) DeleteChannel(_ context.Context, channelID snowflake.ID) error {
	m.log.add("delete channel")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, channelID)
	return nil
}

func (m *mockChannels) EditChannel(_ context.Context, channelID snowflake.ID, edit ports.ChannelEdit) error {
	m.log.add("edit channel")
	if m.editErr != nil {
		return m.editErr
	}
	m.edits[channelID] = edit
	return nil
}

func (m *mockChannels) SetOverwrites(_ context.Context, channelID snowflake.ID, overwrites []domain.Overwrite) error {
	m.log.add("set overwrites")
	if m.setOverwritesErr != nil {
		return m.setOverwritesErr
	}
	m.overwrites[channelID] = overwrites
	return nil
}

func (m *mockChannels) SetOverwrite(_ context.Context, _ snowflake.ID, overwrite domain.Overwrite) error {
	m.log.add("set overwrite")
	if m.setOverwriteErr != nil {
		return m.setOverwriteErr
	}
	m.setOne = append(m.setOne, overwrite)
	return nil
}

func (m *mockChannels) DeleteOverwrite(_ context.Context, _ snowflake.ID, targetID snowflake.ID) error {
	m.log.add("delete overwrite")
	m.deletedTarget = append(m.deletedTarget, targetID)
	return nil
}

type mockPanels struct {
	log       *callLog
	nextID    snowflake.ID
	sent      []snowflake.ID
	existing  map[snowflake.ID]bool
	sendErr   error
	existsErr error
	resets    []snowflake.ID
}

func newMockPanels(log *callLog) *mockPanels {
	return &mockPanels{log: log, nextID: 5000, existing: make(map[snowflake.ID]bool)}
}

func (m *mockPanels) SendPanel(_ context.Context, channelID snowflake.ID) (snowflake.ID, error) {
	m.log.add("send panel")
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, channelID)
	m.existing[m.nextID] = true
	return m.nextID, nil
}

func (m *mockPanels) PanelExists(_ context.Context, _, messageID snowflake.ID) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	return m.existing[messageID], nil
}

func (m *mockPanels) ResetPanel(_ context.Context, _, messageID snowflake.ID) error {
	m.log.add("reset panel")
	m.resets = append(m.resets, messageID)
	return nil
}

type moveCall struct {
	UserID    snowflake.ID
	ChannelID snowflake.ID
}

type mockMembers struct {
	log     *callLog
	members map[snowflake.ID]ports.MemberInfo
	moves   []moveCall
	moveErr error
}

func newMockMembers(log *callLog) *mockMembers {
	return &mockMembers{log: log, members: make(map[snowflake.ID]ports.MemberInfo)}
}

func (m *mockMembers) Member(_ context.Context, _, userID snowflake.ID) (*ports.MemberInfo, error) {
	info, ok := m.members[userID]
	if !ok {
		return nil, errBoom
	}
	return &info, nil
}

func (m *mockMembers) MoveMember(_ context.Context, _, userID, channelID snowflake.ID) error {
	m.log.add("move member")
	if m.moveErr != nil {
		return m.moveErr
	}
	m.moves = append(m.moves, moveCall{UserID: userID, ChannelID: channelID})
	return nil
}

type mockIdentity struct{}

func (mockIdentity) BotUserID() snowflake.ID { return testBotUserID }

type scheduledTask struct {
	name string
	task ports.Task
}

type mockTasks struct {
	mu      sync.Mutex
	pending []scheduledTask
	reject  bool
}

func (m *mockTasks) Schedule(name string, task ports.Task) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reject {
		return false
	}
	m.pending = append(m.pending, scheduledTask{name: name, task: task})
	return true
}

// runAll runs and clears every pending task, returning the errors they produced.
func (m *mockTasks) runAll(ctx context.Context) []error {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	var errs []error
	for _, p := range pending {
		if err := p.task(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type mockStore struct {
	log *callLog

	guilds     map[snowflake.ID]ports.GuildSettings
	categories map[snowflake.ID]ports.CategoryRecord
	rooms      map[snowflake.ID]ports.VoiceChannelRecord
	retained   []snowflake.ID

	err error
}

func newMockStore(log *callLog) *mockStore {
	return &mockStore{
		log:        log,
		guilds:     make(map[snowflake.ID]ports.GuildSettings),
		categories: make(map[snowflake.ID]ports.CategoryRecord),
		rooms:      make(map[snowflake.ID]ports.VoiceChannelRecord),
	}
}

func (m *mockStore) EnsureGuild(_ context.Context, guildID snowflake.ID) (ports.GuildSettings, error) {
	if m.err != nil {
		return ports.GuildSettings{}, m.err
	}
	settings, ok := m.guilds[guildID]
	if !ok {
		m.guilds[guildID] = settings
	}
	return settings, nil
}

func (m *mockStore) SetGuildPermanence(_ context.Context, guildID snowflake.ID, permanence bool) error {
	if m.err != nil {
		return m.err
	}
	settings := m.guilds[guildID]
	settings.Permanence = permanence
	m.guilds[guildID] = settings
	return nil
}

func (m *mockStore) SetGuildPrivacy(_ context.Context, guildID snowflake.ID, privacy domain.Privacy) error {
	if m.err != nil {
		return m.err
	}
	settings := m.guilds[guildID]
	settings.Privacy = privacy
	m.guilds[guildID] = settings
	return nil
}

func (m *mockStore) DeleteGuild(_ context.Context, guildID snowflake.ID) error {
	delete(m.guilds, guildID)
	for id, c := range m.categories {
		if c.GuildID == guildID {
			delete(m.categories, id)
		}
	}
	for id, r := range m.rooms {
		if r.GuildID == guildID {
			delete(m.rooms, id)
		}
	}
	return m.err
}

func (m *mockStore) Categories(_ context.Context, guildID snowflake.ID) ([]ports.CategoryRecord, error) {
	var out []ports.CategoryRecord
	for _, c := range m.categories {
		if c.GuildID == guildID {
			out = append(out, c)
		}
	}
	return out, m.err
}

func (m *mockStore) InsertCategory(_ context.Context, record ports.CategoryRecord) error {
	m.log.add("store category")
	if m.err != nil {
		return m.err
	}
	m.categories[record.ID] = record
	return nil
}

func (m *mockStore) SetCategoryJoinChannel(_ context.Context, categoryID, joinChannelID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	c := m.categories[categoryID]
	c.JoinChannelID = joinChannelID
	m.categories[categoryID] = c
	return nil
}

func (m *mockStore) DeleteCategory(_ context.Context, categoryID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	delete(m.categories, categoryID)
	for id, r := range m.rooms {
		if r.ParentID == categoryID {
			delete(m.rooms, id)
		}
	}
	return nil
}

func (m *mockStore) VoiceChannels(_ context.Context, guildID snowflake.ID) ([]ports.VoiceChannelRecord, error) {
	var out []ports.VoiceChannelRecord
	for _, r := range m.rooms {
		if r.GuildID == guildID {
			out = append(out, r)
		}
	}
	return out, m.err
}

func (m *mockStore) InsertVoiceChannel(_ context.Context, record ports.VoiceChannelRecord) error {
	m.log.add("store voice channel")
	if m.err != nil {
		return m.err
	}
	m.rooms[record.ID] = record
	return nil
}

func (m *mockStore) SetVoiceChannelOwner(_ context.Context, channelID, ownerID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	r := m.rooms[channelID]
	r.OwnerID = ownerID
	m.rooms[channelID] = r
	return nil
}

func (m *mockStore) SetVoiceChannelParent(_ context.Context, channelID, parentID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	r := m.rooms[channelID]
	r.ParentID = parentID
	m.rooms[channelID] = r
	return nil
}

func (m *mockStore) ClearOwner(_ context.Context, guildID, userID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	for id, r := range m.rooms {
		if r.GuildID == guildID && r.OwnerID == userID {
			r.OwnerID = 0
			m.rooms[id] = r
		}
	}
	return nil
}

func (m *mockStore) SetPanelMessage(_ context.Context, channelID, messageID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	r := m.rooms[channelID]
	r.PanelMessageID = messageID
	m.rooms[channelID] = r
	return nil
}

func (m *mockStore) ClearPanelMessage(_ context.Context, messageID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	for id, r := range m.rooms {
		if r.PanelMessageID == messageID {
			r.PanelMessageID = 0
			m.rooms[id] = r
		}
	}
	return nil
}

func (m *mockStore) DeleteVoiceChannel(_ context.Context, channelID snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	delete(m.rooms, channelID)
	return nil
}

func (m *mockStore) RetainChannels(_ context.Context, guildID snowflake.ID, keep []snowflake.ID) error {
	if m.err != nil {
		return m.err
	}
	m.retained = keep
	live := make(map[snowflake.ID]bool, len(keep))
	for _, id := range keep {
		live[id] = true
	}
	for id, r := range m.rooms {
		if r.GuildID == guildID && !live[id] {
			delete(m.rooms, id)
		}
	}
	for id, c := range m.categories {
		if c.GuildID == guildID && !live[id] {
			delete(m.categories, id)
		}
	}
	return nil
}

// fixture wires every service against mocks and a real in-memory cache.
type fixture struct {
	log      *callLog
	cache    *infrastructure.MemoryCache
	store    *mockStore
	channels *mockChannels
	panels   *mockPanels
	members  *mockMembers
	tasks    *mockTasks

	lifecycle  *LifecycleService
	ownership  *OwnershipService
	access     *AccessService
	settings   *GuildSettingsService
	categories *CategoryService
	channel    *ChannelSettingsService
	sync       *SyncService
}

func newFixture() *fixture {
	log := &callLog{}
	f := &fixture{
		log:      log,
		cache:    infrastructure.NewMemoryCache(),
		store:    newMockStore(log),
		channels: newMockChannels(log),
		panels:   newMockPanels(log),
		members:  newMockMembers(log),
		tasks:    &mockTasks{},
	}
	identity := mockIdentity{}

	f.lifecycle = NewLifecycleService(f.cache, f.store, f.channels, f.panels, f.members, identity, f.tasks)
	f.ownership = NewOwnershipService(f.cache, f.store, f.channels, identity)
	f.access = NewAccessService(f.cache, f.channels, f.members, identity)
	f.settings = NewGuildSettingsService(f.cache, f.store, f.channels, f.tasks)
	f.categories = NewCategoryService(f.cache, f.store, f.channels, f.tasks, identity, DefaultMaxCategories)
	f.channel = NewChannelSettingsService(f.cache, f.channels, identity)
	f.sync = NewSyncService(f.cache, f.store, f.channels, f.tasks, f.lifecycle, f.ownership)

	return f
}

// withGuild caches a guild with one category and its join channel.
func (f *fixture) withGuild(privacy domain.Privacy, permanence bool) *fixture {
	f.cache.InsertGuild(domain.NewGuild(testGuildID, testBotRoleID, privacy, permanence))
	f.cache.InsertCategory(domain.NewCategoryChannel(testCategoryID, testGuildID, testJoinID, nil))
	f.store.guilds[testGuildID] = ports.GuildSettings{Permanence: permanence, Privacy: privacy}
	f.store.categories[testCategoryID] = ports.CategoryRecord{
		ID: testCategoryID, GuildID: testGuildID, JoinChannelID: testJoinID,
	}
	return f
}

// withRoom caches a room owned by ownerID with the owner connected.
func (f *fixture) withRoom(ownerID snowflake.ID, privacy domain.Privacy) *domain.VoiceChannel {
	guild := f.cache.Guild(testGuildID)
	overwrites := domain.ComputeOverwrites(nil, overwriteSlots(guild, testBotUserID, ownerID), privacy)
	f.cache.InsertVoiceChannel(domain.NewVoiceChannel(testRoomID, testGuildID, testCategoryID, ownerID, 4000, overwrites))
	f.store.rooms[testRoomID] = ports.VoiceChannelRecord{
		ID: testRoomID, GuildID: testGuildID, ParentID: testCategoryID, OwnerID: ownerID, PanelMessageID: 4000,
	}
	if ownerID != 0 {
		f.cache.InsertVoiceState(testGuildID, ownerID, testRoomID)
	}
	return f.cache.VoiceChannel(testRoomID)
}

func ownerRef(userID snowflake.ID) RoomRef {
	return RoomRef{GuildID: testGuildID, ChannelID: testRoomID, UserID: userID}
}
