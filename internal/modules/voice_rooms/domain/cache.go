package domain

import "github.com/disgoorg/snowflake/v2"

// Cache is the in-process mirror of guild, category, room, presence and
// ownership state.
//
// Lookups return nil (or false) when the entity is not currently known; callers
// treat that as a stale reference and skip the work. Removals cascade so that
// no index ever points at a removed room. Updates that span entities are done
// as independent steps rather than one transaction; a full resync repairs any
// transient divergence.
type Cache interface {
	InsertGuild(guild *Guild)
	Guild(guildID snowflake.ID) *Guild
	// RemoveGuild removes the guild with all of its categories and rooms, and
	// forgets every presence and ownership entry in it.
	RemoveGuild(guildID snowflake.ID)

	// InsertCategory caches a category and attaches it to its guild.
	InsertCategory(category *CategoryChannel)
	Category(categoryID snowflake.ID) *CategoryChannel
	// CategoryByJoinChannel returns the category whose join channel is channelID.
	CategoryByJoinChannel(guildID, channelID snowflake.ID) *CategoryChannel
	UpdateCategoryJoinChannel(categoryID, joinChannelID snowflake.ID)
	UpdateCategoryOverwrites(categoryID snowflake.ID, overwrites []Overwrite)
	// RemoveCategory removes every child room first, then the category itself.
	RemoveCategory(categoryID snowflake.ID)

	// InsertVoiceChannel caches a room, attaches it to its parent category,
	// indexes its owner and adopts users already present in it.
	InsertVoiceChannel(channel *VoiceChannel)
	VoiceChannel(channelID snowflake.ID) *VoiceChannel
	// UpdateVoiceChannelOwner sets the owner and retargets the ownership index.
	// ownerID 0 clears the owner.
	UpdateVoiceChannelOwner(channelID, ownerID snowflake.ID)
	UpdateVoiceChannelPanelMessage(channelID, messageID snowflake.ID)
	UpdateVoiceChannelOverwrites(channelID snowflake.ID, overwrites []Overwrite)
	// RemoveVoiceChannel removes a room, detaching it from its category and
	// clearing its ownership entry.
	RemoveVoiceChannel(channelID snowflake.ID)

	// InsertVoiceState records that the user is in channelID and returns the
	// channel the user was previously in (0 if none).
	InsertVoiceState(guildID, userID, channelID snowflake.ID) snowflake.ID
	// RemoveVoiceState forgets the user's presence and returns the channel they
	// were in (0 if none).
	RemoveVoiceState(guildID, userID snowflake.ID) snowflake.ID
	VoiceState(guildID, userID snowflake.ID) (snowflake.ID, bool)

	// OwnedChannel returns the room owned by the user in the guild.
	OwnedChannel(guildID, userID snowflake.ID) (snowflake.ID, bool)

	SetUnavailable(guildID snowflake.ID, unavailable bool)
	IsUnavailable(guildID snowflake.ID) bool
}
