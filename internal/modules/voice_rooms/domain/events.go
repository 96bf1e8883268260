package domain

import "github.com/disgoorg/snowflake/v2"

// PlatformEvent is a gateway event relevant to voice rooms. The set of
// implementations is closed; consumers switch over the concrete types.
type PlatformEvent interface {
	platformEvent()
}

// ChannelKind classifies a live channel.
type ChannelKind int

const (
	ChannelKindOther ChannelKind = iota
	ChannelKindCategory
	ChannelKindVoice
)

// LiveChannel is a channel as reported by the platform.
type LiveChannel struct {
	ID         snowflake.ID
	Kind       ChannelKind
	ParentID   snowflake.ID
	Overwrites []Overwrite
}

// LivePresence is a member's voice presence as reported by the platform.
type LivePresence struct {
	UserID    snowflake.ID
	ChannelID snowflake.ID
}

// GuildAvailable carries the full snapshot of a guild that became available.
type GuildAvailable struct {
	GuildID     snowflake.ID
	BotRoleID   snowflake.ID // 0 when the bot's managed role could not be found
	Channels    []LiveChannel
	VoiceStates []LivePresence
}

// GuildUnavailable is sent when a guild becomes temporarily unreachable.
type GuildUnavailable struct {
	GuildID snowflake.ID
}

// GuildRemoved is sent when the bot leaves a guild or the guild is deleted.
type GuildRemoved struct {
	GuildID snowflake.ID
}

// Ready lists the guilds the bot is in at session start; all of them are
// unavailable until their GuildAvailable arrives.
type Ready struct {
	GuildIDs []snowflake.ID
}

// ChannelDeleted is sent when a channel is deleted.
type ChannelDeleted struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Kind      ChannelKind
}

// ChannelUpdated is sent when a channel's settings change.
type ChannelUpdated struct {
	GuildID    snowflake.ID
	ChannelID  snowflake.ID
	Overwrites []Overwrite
}

// MemberRemoved is sent when a member leaves the guild.
type MemberRemoved struct {
	GuildID snowflake.ID
	UserID  snowflake.ID
}

// MessageDeleted is sent when a message is deleted.
type MessageDeleted struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	MessageID snowflake.ID
}

// VoicePresenceChanged is sent when a member joins, moves between or leaves
// voice channels. ChannelID is 0 on disconnect.
type VoicePresenceChanged struct {
	GuildID     snowflake.ID
	UserID      snowflake.ID
	ChannelID   snowflake.ID
	DisplayName string
	IsBot       bool
}

func (GuildAvailable) platformEvent()       {}
func (GuildUnavailable) platformEvent()     {}
func (GuildRemoved) platformEvent()         {}
func (Ready) platformEvent()                {}
func (ChannelDeleted) platformEvent()       {}
func (ChannelUpdated) platformEvent()       {}
func (MemberRemoved) platformEvent()        {}
func (MessageDeleted) platformEvent()       {}
func (VoicePresenceChanged) platformEvent() {}
