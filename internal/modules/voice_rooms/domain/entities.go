package domain

import (
	"maps"
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// Guild is the cached state of a guild. Its mutable fields are guarded by a
// per-entity lock so readers of one guild never contend with writers of another.
type Guild struct {
	ID snowflake.ID

	mu          sync.RWMutex
	botRoleID   snowflake.ID
	privacy     Privacy
	permanence  bool
	categoryIDs map[snowflake.ID]struct{}
}

// GuildSnapshot is a consistent copy of a Guild's fields.
type GuildSnapshot struct {
	ID          snowflake.ID
	BotRoleID   snowflake.ID
	Privacy     Privacy
	Permanence  bool
	CategoryIDs []snowflake.ID
}

// NewGuild creates a new Guild.
func NewGuild(id, botRoleID snowflake.ID, privacy Privacy, permanence bool) *Guild {
	return &Guild{
		ID:          id,
		botRoleID:   botRoleID,
		privacy:     privacy,
		permanence:  permanence,
		categoryIDs: make(map[snowflake.ID]struct{}),
	}
}

// Snapshot returns a consistent copy of the guild.
func (g *Guild) Snapshot() GuildSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GuildSnapshot{
		ID:          g.ID,
		BotRoleID:   g.botRoleID,
		Privacy:     g.privacy,
		Permanence:  g.permanence,
		CategoryIDs: sortedIDs(g.categoryIDs),
	}
}

// BotRoleID returns the ID of the bot's managed role.
func (g *Guild) BotRoleID() snowflake.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.botRoleID
}

// Privacy returns the guild's default privacy.
func (g *Guild) Privacy() Privacy {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.privacy
}

// SetPrivacy sets the guild's default privacy.
func (g *Guild) SetPrivacy(p Privacy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.privacy = p
}

// Permanence reports whether empty rooms are kept.
func (g *Guild) Permanence() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.permanence
}

// SetPermanence sets the permanence flag.
func (g *Guild) SetPermanence(permanence bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.permanence = permanence
}

// CategoryIDs returns the IDs of the guild's categories.
func (g *Guild) CategoryIDs() []snowflake.ID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return sortedIDs(g.categoryIDs)
}

// AddCategory records a category as belonging to the guild.
func (g *Guild) AddCategory(id snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.categoryIDs[id] = struct{}{}
}

// RemoveCategory detaches a category from the guild.
func (g *Guild) RemoveCategory(id snowflake.ID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.categoryIDs, id)
}

// CategoryChannel is the cached state of a managed category.
type CategoryChannel struct {
	ID      snowflake.ID
	GuildID snowflake.ID

	mu              sync.RWMutex
	joinChannelID   snowflake.ID
	overwrites      []Overwrite
	voiceChannelIDs map[snowflake.ID]struct{}
}

// CategorySnapshot is a consistent copy of a CategoryChannel's fields.
type CategorySnapshot struct {
	ID              snowflake.ID
	GuildID         snowflake.ID
	JoinChannelID   snowflake.ID
	Overwrites      []Overwrite
	VoiceChannelIDs []snowflake.ID
}

// NewCategoryChannel creates a new CategoryChannel. joinChannelID is 0 when the
// category has no join channel.
func NewCategoryChannel(
	id, guildID, joinChannelID snowflake.ID,
	overwrites []Overwrite,
) *CategoryChannel {
	return &CategoryChannel{
		ID:              id,
		GuildID:         guildID,
		joinChannelID:   joinChannelID,
		overwrites:      CloneOverwrites(overwrites),
		voiceChannelIDs: make(map[snowflake.ID]struct{}),
	}
}

// Snapshot returns a consistent copy of the category.
func (c *CategoryChannel) Snapshot() CategorySnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CategorySnapshot{
		ID:              c.ID,
		GuildID:         c.GuildID,
		JoinChannelID:   c.joinChannelID,
		Overwrites:      CloneOverwrites(c.overwrites),
		VoiceChannelIDs: sortedIDs(c.voiceChannelIDs),
	}
}

// JoinChannelID returns the join channel ID, or 0 if there is none.
func (c *CategoryChannel) JoinChannelID() snowflake.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joinChannelID
}

// SetJoinChannelID sets the join channel ID. 0 clears it.
func (c *CategoryChannel) SetJoinChannelID(id snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joinChannelID = id
}

// Overwrites returns a copy of the category's overwrite template.
func (c *CategoryChannel) Overwrites() []Overwrite {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CloneOverwrites(c.overwrites)
}

// SetOverwrites replaces the overwrite template.
func (c *CategoryChannel) SetOverwrites(overwrites []Overwrite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overwrites = CloneOverwrites(overwrites)
}

// VoiceChannelIDs returns the IDs of the rooms spawned under the category.
func (c *CategoryChannel) VoiceChannelIDs() []snowflake.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedIDs(c.voiceChannelIDs)
}

// AddVoiceChannel records a room as a child of the category.
func (c *CategoryChannel) AddVoiceChannel(id snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voiceChannelIDs[id] = struct{}{}
}

// RemoveVoiceChannel detaches a room from the category.
func (c *CategoryChannel) RemoveVoiceChannel(id snowflake.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.voiceChannelIDs, id)
}

// HasVoiceChannel reports whether the room is a child of the category.
func (c *CategoryChannel) HasVoiceChannel(id snowflake.ID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.voiceChannelIDs[id]
	return ok
}

// VoiceChannel is the cached state of a temporary voice room.
type VoiceChannel struct {
	ID       snowflake.ID
	GuildID  snowflake.ID
	ParentID snowflake.ID

	mu               sync.RWMutex
	ownerID          snowflake.ID
	panelMessageID   snowflake.ID
	connectedUserIDs map[snowflake.ID]struct{}
	overwrites       []Overwrite
}

// VoiceChannelSnapshot is a consistent copy of a VoiceChannel's fields.
type VoiceChannelSnapshot struct {
	ID               snowflake.ID
	GuildID          snowflake.ID
	ParentID         snowflake.ID
	OwnerID          snowflake.ID
	PanelMessageID   snowflake.ID
	ConnectedUserIDs []snowflake.ID
	Overwrites       []Overwrite
}

// NewVoiceChannel creates a new VoiceChannel. ownerID and panelMessageID are 0
// when absent.
func NewVoiceChannel(
	id, guildID, parentID, ownerID, panelMessageID snowflake.ID,
	overwrites []Overwrite,
) *VoiceChannel {
	return &VoiceChannel{
		ID:               id,
		GuildID:          guildID,
		ParentID:         parentID,
		ownerID:          ownerID,
		panelMessageID:   panelMessageID,
		connectedUserIDs: make(map[snowflake.ID]struct{}),
		overwrites:       CloneOverwrites(overwrites),
	}
}

// Snapshot returns a consistent copy of the room.
func (v *VoiceChannel) Snapshot() VoiceChannelSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return VoiceChannelSnapshot{
		ID:               v.ID,
		GuildID:          v.GuildID,
		ParentID:         v.ParentID,
		OwnerID:          v.ownerID,
		PanelMessageID:   v.panelMessageID,
		ConnectedUserIDs: sortedIDs(v.connectedUserIDs),
		Overwrites:       CloneOverwrites(v.overwrites),
	}
}

// OwnerID returns the owner's ID, or 0 if the room is unowned.
func (v *VoiceChannel) OwnerID() snowflake.ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.ownerID
}

// SwapOwner sets the owner and returns the previous one.
func (v *VoiceChannel) SwapOwner(ownerID snowflake.ID) snowflake.ID {
	v.mu.Lock()
	defer v.mu.Unlock()
	previous := v.ownerID
	v.ownerID = ownerID
	return previous
}

// PanelMessageID returns the panel message ID, or 0 if none is recorded.
func (v *VoiceChannel) PanelMessageID() snowflake.ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.panelMessageID
}

// SetPanelMessageID records the panel message ID.
func (v *VoiceChannel) SetPanelMessageID(id snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panelMessageID = id
}

// Overwrites returns a copy of the room's overwrites.
func (v *VoiceChannel) Overwrites() []Overwrite {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return CloneOverwrites(v.overwrites)
}

// SetOverwrites replaces the room's overwrites.
func (v *VoiceChannel) SetOverwrites(overwrites []Overwrite) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overwrites = CloneOverwrites(overwrites)
}

// ConnectedUserIDs returns the users currently in the room.
func (v *VoiceChannel) ConnectedUserIDs() []snowflake.ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return sortedIDs(v.connectedUserIDs)
}

// ConnectedCount returns the number of users in the room.
func (v *VoiceChannel) ConnectedCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.connectedUserIDs)
}

// IsConnected reports whether the user is in the room.
func (v *VoiceChannel) IsConnected(userID snowflake.ID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.connectedUserIDs[userID]
	return ok
}

// AddConnectedUser records a user as connected.
func (v *VoiceChannel) AddConnectedUser(userID snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connectedUserIDs[userID] = struct{}{}
}

// RemoveConnectedUser records a user as disconnected.
func (v *VoiceChannel) RemoveConnectedUser(userID snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.connectedUserIDs, userID)
}

func sortedIDs(set map[snowflake.ID]struct{}) []snowflake.ID {
	return slices.Sorted(maps.Keys(set))
}
