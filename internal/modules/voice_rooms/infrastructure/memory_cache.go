package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// Ensure MemoryCache implements domain.Cache.
var _ domain.Cache = (*MemoryCache)(nil)

type memberKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// MemoryCache is an in-memory implementation of domain.Cache.
//
// Every map has its own lock, and no two map locks are ever held at once.
// Entity fields are guarded by the entities' own locks.
type MemoryCache struct {
	guildsMu sync.RWMutex
	guilds   map[snowflake.ID]*domain.Guild

	categoriesMu sync.RWMutex
	categories   map[snowflake.ID]*domain.CategoryChannel

	channelsMu sync.RWMutex
	channels   map[snowflake.ID]*domain.VoiceChannel

	voiceStatesMu sync.RWMutex
	voiceStates   map[memberKey]snowflake.ID

	ownersMu sync.RWMutex
	owners   map[memberKey]snowflake.ID

	unavailableMu sync.RWMutex
	unavailable   map[snowflake.ID]struct{}
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		guilds:      make(map[snowflake.ID]*domain.Guild),
		categories:  make(map[snowflake.ID]*domain.CategoryChannel),
		channels:    make(map[snowflake.ID]*domain.VoiceChannel),
		voiceStates: make(map[memberKey]snowflake.ID),
		owners:      make(map[memberKey]snowflake.ID),
		unavailable: make(map[snowflake.ID]struct{}),
	}
}

// InsertGuild caches a guild, replacing any previous entry.
func (c *MemoryCache) InsertGuild(guild *domain.Guild) {
	c.guildsMu.Lock()
	defer c.guildsMu.Unlock()
	c.guilds[guild.ID] = guild
}

// Guild returns the cached guild, or nil.
func (c *MemoryCache) Guild(guildID snowflake.ID) *domain.Guild {
	c.guildsMu.RLock()
	defer c.guildsMu.RUnlock()
	return c.guilds[guildID]
}

// RemoveGuild removes a guild and everything cached under it.
func (c *MemoryCache) RemoveGuild(guildID snowflake.ID) {
	c.guildsMu.Lock()
	guild, ok := c.guilds[guildID]
	delete(c.guilds, guildID)
	c.guildsMu.Unlock()

	if ok {
		for _, categoryID := range guild.CategoryIDs() {
			c.RemoveCategory(categoryID)
		}
	}

	// Rooms whose category was never cached.
	c.channelsMu.RLock()
	var orphans []snowflake.ID
	for id, channel := range c.channels {
		if channel.GuildID == guildID {
			orphans = append(orphans, id)
		}
	}
	c.channelsMu.RUnlock()
	for _, id := range orphans {
		c.RemoveVoiceChannel(id)
	}

	c.voiceStatesMu.Lock()
	for key := range c.voiceStates {
		if key.guildID == guildID {
			delete(c.voiceStates, key)
		}
	}
	c.voiceStatesMu.Unlock()

	c.ownersMu.Lock()
	for key := range c.owners {
		if key.guildID == guildID {
			delete(c.owners, key)
		}
	}
	c.ownersMu.Unlock()
}

// InsertCategory caches a category and attaches it to its guild.
func (c *MemoryCache) InsertCategory(category *domain.CategoryChannel) {
	c.categoriesMu.Lock()
	c.categories[category.ID] = category
	c.categoriesMu.Unlock()

	if guild := c.Guild(category.GuildID); guild != nil {
		guild.AddCategory(category.ID)
	}
}

// Category returns the cached category, or nil.
func (c *MemoryCache) Category(categoryID snowflake.ID) *domain.CategoryChannel {
	c.categoriesMu.RLock()
	defer c.categoriesMu.RUnlock()
	return c.categories[categoryID]
}

// CategoryByJoinChannel returns the guild's category whose join channel is channelID, or nil.
func (c *MemoryCache) CategoryByJoinChannel(guildID, channelID snowflake.ID) *domain.CategoryChannel {
	if channelID == 0 {
		return nil
	}
	guild := c.Guild(guildID)
	if guild == nil {
		return nil
	}
	for _, categoryID := range guild.CategoryIDs() {
		category := c.Category(categoryID)
		if category != nil && category.JoinChannelID() == channelID {
			return category
		}
	}
	return nil
}

// UpdateCategoryJoinChannel sets a category's join channel.
func (c *MemoryCache) UpdateCategoryJoinChannel(categoryID, joinChannelID snowflake.ID) {
	if category := c.Category(categoryID); category != nil {
		category.SetJoinChannelID(joinChannelID)
	}
}

// UpdateCategoryOverwrites replaces a category's overwrite template.
func (c *MemoryCache) UpdateCategoryOverwrites(categoryID snowflake.ID, overwrites []domain.Overwrite) {
	if category := c.Category(categoryID); category != nil {
		category.SetOverwrites(overwrites)
	}
}

// RemoveCategory removes a category after removing its rooms.
func (c *MemoryCache) RemoveCategory(categoryID snowflake.ID) {
	category := c.Category(categoryID)
	if category == nil {
		return
	}

	for _, channelID := range category.VoiceChannelIDs() {
		c.RemoveVoiceChannel(channelID)
	}

	c.categoriesMu.Lock()
	delete(c.categories, categoryID)
	c.categoriesMu.Unlock()

	if guild := c.Guild(category.GuildID); guild != nil {
		guild.RemoveCategory(categoryID)
	}
}

// InsertVoiceChannel caches a room. Join channels are never cached as rooms.
func (c *MemoryCache) InsertVoiceChannel(channel *domain.VoiceChannel) {
	category := c.Category(channel.ParentID)
	if category != nil && category.JoinChannelID() == channel.ID {
		return
	}

	c.channelsMu.Lock()
	c.channels[channel.ID] = channel
	c.channelsMu.Unlock()

	if category != nil {
		category.AddVoiceChannel(channel.ID)
	}

	if ownerID := channel.OwnerID(); ownerID != 0 {
		c.indexOwner(channel.GuildID, ownerID, channel.ID)
	}

	// Members whose presence arrived before the room was cached.
	c.voiceStatesMu.RLock()
	var present []snowflake.ID
	for key, channelID := range c.voiceStates {
		if key.guildID == channel.GuildID && channelID == channel.ID {
			present = append(present, key.userID)
		}
	}
	c.voiceStatesMu.RUnlock()
	for _, userID := range present {
		channel.AddConnectedUser(userID)
	}
}

// VoiceChannel returns the cached room, or nil.
func (c *MemoryCache) VoiceChannel(channelID snowflake.ID) *domain.VoiceChannel {
	c.channelsMu.RLock()
	defer c.channelsMu.RUnlock()
	return c.channels[channelID]
}

// UpdateVoiceChannelOwner sets a room's owner and retargets the ownership index.
func (c *MemoryCache) UpdateVoiceChannelOwner(channelID, ownerID snowflake.ID) {
	channel := c.VoiceChannel(channelID)
	if channel == nil {
		return
	}

	previous := channel.SwapOwner(ownerID)

	c.ownersMu.Lock()
	if previous != 0 {
		key := memberKey{channel.GuildID, previous}
		if c.owners[key] == channelID {
			delete(c.owners, key)
		}
	}
	c.ownersMu.Unlock()

	if ownerID != 0 {
		c.indexOwner(channel.GuildID, ownerID, channelID)
	}
}

// indexOwner points the member's ownership entry at channelID. A room the
// member owned before loses its owner, keeping one owned room per member.
func (c *MemoryCache) indexOwner(guildID, ownerID, channelID snowflake.ID) {
	key := memberKey{guildID, ownerID}

	c.ownersMu.Lock()
	displaced, ok := c.owners[key]
	c.owners[key] = channelID
	c.ownersMu.Unlock()

	if ok && displaced != channelID {
		if room := c.VoiceChannel(displaced); room != nil && room.OwnerID() == ownerID {
			room.SwapOwner(0)
		}
	}
}

// UpdateVoiceChannelPanelMessage records a room's panel message.
func (c *MemoryCache) UpdateVoiceChannelPanelMessage(channelID, messageID snowflake.ID) {
	if channel := c.VoiceChannel(channelID); channel != nil {
		channel.SetPanelMessageID(messageID)
	}
}

// UpdateVoiceChannelOverwrites replaces a room's overwrites.
func (c *MemoryCache) UpdateVoiceChannelOverwrites(channelID snowflake.ID, overwrites []domain.Overwrite) {
	if channel := c.VoiceChannel(channelID); channel != nil {
		channel.SetOverwrites(overwrites)
	}
}

// RemoveVoiceChannel removes a room, detaches it from its category and clears
// the presence and ownership entries that point at it.
func (c *MemoryCache) RemoveVoiceChannel(channelID snowflake.ID) {
	c.channelsMu.Lock()
	channel, ok := c.channels[channelID]
	delete(c.channels, channelID)
	c.channelsMu.Unlock()
	if !ok {
		return
	}

	if category := c.Category(channel.ParentID); category != nil {
		category.RemoveVoiceChannel(channelID)
	}

	// A member may have moved on since the snapshot; only entries that still
	// point at this room are dropped.
	connected := channel.ConnectedUserIDs()
	c.voiceStatesMu.Lock()
	for _, userID := range connected {
		key := memberKey{channel.GuildID, userID}
		if c.voiceStates[key] == channelID {
			delete(c.voiceStates, key)
		}
	}
	c.voiceStatesMu.Unlock()

	if ownerID := channel.OwnerID(); ownerID != 0 {
		key := memberKey{channel.GuildID, ownerID}
		c.ownersMu.Lock()
		if c.owners[key] == channelID {
			delete(c.owners, key)
		}
		c.ownersMu.Unlock()
	}
}

// InsertVoiceState records the member's presence and moves their membership
// from the previous room to the new one.
func (c *MemoryCache) InsertVoiceState(guildID, userID, channelID snowflake.ID) snowflake.ID {
	key := memberKey{guildID, userID}

	c.voiceStatesMu.Lock()
	previous := c.voiceStates[key]
	c.voiceStates[key] = channelID
	c.voiceStatesMu.Unlock()

	if previous != 0 && previous != channelID {
		if channel := c.VoiceChannel(previous); channel != nil {
			channel.RemoveConnectedUser(userID)
		}
	}
	if channel := c.VoiceChannel(channelID); channel != nil {
		channel.AddConnectedUser(userID)
	}

	return previous
}

// RemoveVoiceState forgets the member's presence and membership.
func (c *MemoryCache) RemoveVoiceState(guildID, userID snowflake.ID) snowflake.ID {
	key := memberKey{guildID, userID}

	c.voiceStatesMu.Lock()
	previous, ok := c.voiceStates[key]
	delete(c.voiceStates, key)
	c.voiceStatesMu.Unlock()

	if !ok {
		return 0
	}
	if channel := c.VoiceChannel(previous); channel != nil {
		channel.RemoveConnectedUser(userID)
	}
	return previous
}

// VoiceState returns the channel the member is in.
func (c *MemoryCache) VoiceState(guildID, userID snowflake.ID) (snowflake.ID, bool) {
	c.voiceStatesMu.RLock()
	defer c.voiceStatesMu.RUnlock()
	channelID, ok := c.voiceStates[memberKey{guildID, userID}]
	return channelID, ok
}

// OwnedChannel returns the room the member owns.
func (c *MemoryCache) OwnedChannel(guildID, userID snowflake.ID) (snowflake.ID, bool) {
	c.ownersMu.RLock()
	defer c.ownersMu.RUnlock()
	channelID, ok := c.owners[memberKey{guildID, userID}]
	return channelID, ok
}

// SetUnavailable marks or unmarks a guild as temporarily unreachable.
func (c *MemoryCache) SetUnavailable(guildID snowflake.ID, unavailable bool) {
	c.unavailableMu.Lock()
	defer c.unavailableMu.Unlock()
	if unavailable {
		c.unavailable[guildID] = struct{}{}
	} else {
		delete(c.unavailable, guildID)
	}
}

// IsUnavailable reports whether the guild is marked unreachable.
func (c *MemoryCache) IsUnavailable(guildID snowflake.ID) bool {
	c.unavailableMu.RLock()
	defer c.unavailableMu.RUnlock()
	_, ok := c.unavailable[guildID]
	return ok
}

// Count returns the number of cached guilds, categories and rooms (for testing/monitoring).
func (c *MemoryCache) Count() (guilds, categories, channels int) {
	c.guildsMu.RLock()
	guilds = len(c.guilds)
	c.guildsMu.RUnlock()

	c.categoriesMu.RLock()
	categories = len(c.categories)
	c.categoriesMu.RUnlock()

	c.channelsMu.RLock()
	channels = len(c.channels)
	c.channelsMu.RUnlock()

	return guilds, categories, channels
}
