package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// MemberInfo contains the member details voice rooms need.
type MemberInfo struct {
	DisplayName string
	IsBot       bool
}

// MemberManager defines the interface for looking up and moving guild members.
type MemberManager interface {
	// Member fetches a guild member.
	Member(ctx context.Context, guildID, userID snowflake.ID) (*MemberInfo, error)

	// MoveMember moves a member to a voice channel. channelID 0 disconnects them.
	MoveMember(ctx context.Context, guildID, userID, channelID snowflake.ID) error
}

// BotIdentity provides the bot's own user ID once the session is ready.
type BotIdentity interface {
	BotUserID() snowflake.ID
}
