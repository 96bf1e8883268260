package infrastructure

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
)

// Ensure the Discord adapters implement their ports.
var (
	_ ports.MemberManager = (*DiscordMemberManager)(nil)
	_ ports.BotIdentity   = (*SessionIdentity)(nil)
)

// DiscordMemberManager implements ports.MemberManager using a Discord session.
type DiscordMemberManager struct {
	session *discordgo.Session
}

// NewDiscordMemberManager creates a new DiscordMemberManager.
func NewDiscordMemberManager(session *discordgo.Session) *DiscordMemberManager {
	return &DiscordMemberManager{session: session}
}

// Member fetches a guild member, preferring the state cache over the REST API.
func (m *DiscordMemberManager) Member(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (*ports.MemberInfo, error) {
	member, err := m.session.State.Member(guildID.String(), userID.String())
	if err != nil || member.User == nil {
		member, err = m.session.GuildMember(guildID.String(), userID.String(), discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild member: %w", err)
		}
	}

	return &ports.MemberInfo{
		DisplayName: DisplayName(member),
		IsBot:       member.User != nil && member.User.Bot,
	}, nil
}

// MemberRoleIDs fetches the role IDs of a guild member from the REST API.
func (m *DiscordMemberManager) MemberRoleIDs(ctx context.Context, guildID, userID snowflake.ID) ([]string, error) {
	member, err := m.session.GuildMember(guildID.String(), userID.String(), discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch guild member: %w", err)
	}
	return member.Roles, nil
}

// MoveMember moves a member to a voice channel. channelID 0 disconnects them.
func (m *DiscordMemberManager) MoveMember(
	ctx context.Context,
	guildID, userID, channelID snowflake.ID,
) error {
	var target *string
	if channelID != 0 {
		id := channelID.String()
		target = &id
	}

	if err := m.session.GuildMemberMove(
		guildID.String(),
		userID.String(),
		target,
		discordgo.WithContext(ctx),
	); err != nil {
		return fmt.Errorf("failed to move guild member: %w", err)
	}
	return nil
}

// DisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func DisplayName(member *discordgo.Member) string {
	if member == nil {
		return ""
	}
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// SessionIdentity reads the bot's user ID from the session state, which is
// only populated once the gateway connection is ready.
type SessionIdentity struct {
	session *discordgo.Session
}

// NewSessionIdentity creates a new SessionIdentity.
func NewSessionIdentity(session *discordgo.Session) *SessionIdentity {
	return &SessionIdentity{session: session}
}

// BotUserID returns the bot's user ID, or 0 before the session is ready.
func (i *SessionIdentity) BotUserID() snowflake.ID {
	if i.session == nil || i.session.State == nil || i.session.State.User == nil {
		return 0
	}
	id, err := snowflake.Parse(i.session.State.User.ID)
	if err != nil {
		return 0
	}
	return id
}
