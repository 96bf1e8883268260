package discord

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/ports"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/infrastructure"
)

// eventTimeout bounds the remote calls made while handling one gateway event.
const eventTimeout = 30 * time.Second

// MemberRoleFetcher fetches a member's roles when the gateway did not send them.
type MemberRoleFetcher interface {
	MemberRoleIDs(ctx context.Context, guildID, userID snowflake.ID) ([]string, error)
}

// EventHandlers translates Discord gateway events into platform events.
type EventHandlers struct {
	sync     *usecases.SyncService
	identity ports.BotIdentity
	roles    MemberRoleFetcher
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	sync *usecases.SyncService,
	identity ports.BotIdentity,
	roles MemberRoleFetcher,
) *EventHandlers {
	return &EventHandlers{
		sync:     sync,
		identity: identity,
		roles:    roles,
	}
}

// HandleReady handles Ready events.
func (h *EventHandlers) HandleReady(_ *discordgo.Session, event *discordgo.Ready) {
	guildIDs := make([]snowflake.ID, 0, len(event.Guilds))
	for _, g := range event.Guilds {
		id, err := snowflake.Parse(g.ID)
		if err != nil {
			slog.Warn("skipped guild with invalid ID in ready event", "guild_id", g.ID)
			continue
		}
		guildIDs = append(guildIDs, id)
	}
	h.dispatch("ready", domain.Ready{GuildIDs: guildIDs})
}

// HandleGuildCreate handles GuildCreate events.
func (h *EventHandlers) HandleGuildCreate(_ *discordgo.Session, event *discordgo.GuildCreate) {
	if event.Guild == nil || event.Unavailable {
		return
	}

	available, err := guildAvailable(event.Guild)
	if err != nil {
		slog.Error("failed to translate guild create event", "guild_id", event.ID, "error", err)
		return
	}
	available.BotRoleID = h.botRoleID(event.Guild)

	h.dispatch("guild_create", available)
}

// HandleGuildDelete handles GuildDelete events.
func (h *EventHandlers) HandleGuildDelete(_ *discordgo.Session, event *discordgo.GuildDelete) {
	if event.Guild == nil {
		return
	}
	guildID, err := snowflake.Parse(event.ID)
	if err != nil {
		slog.Error("failed to parse guild ID in guild delete event", "error", err)
		return
	}

	if event.Unavailable {
		h.dispatch("guild_unavailable", domain.GuildUnavailable{GuildID: guildID})
		return
	}
	h.dispatch("guild_delete", domain.GuildRemoved{GuildID: guildID})
}

// HandleChannelDelete handles ChannelDelete events.
func (h *EventHandlers) HandleChannelDelete(_ *discordgo.Session, event *discordgo.ChannelDelete) {
	if event.Channel == nil || event.GuildID == "" {
		return
	}
	guildID, channelID, err := parsePair(event.GuildID, event.ID)
	if err != nil {
		slog.Error("failed to parse IDs in channel delete event", "error", err)
		return
	}

	h.dispatch("channel_delete", domain.ChannelDeleted{
		GuildID:   guildID,
		ChannelID: channelID,
		Kind:      infrastructure.ChannelKindOf(event.Type),
	})
}

// HandleChannelUpdate handles ChannelUpdate events.
func (h *EventHandlers) HandleChannelUpdate(_ *discordgo.Session, event *discordgo.ChannelUpdate) {
	if event.Channel == nil || event.GuildID == "" {
		return
	}
	guildID, channelID, err := parsePair(event.GuildID, event.ID)
	if err != nil {
		slog.Error("failed to parse IDs in channel update event", "error", err)
		return
	}

	h.dispatch("channel_update", domain.ChannelUpdated{
		GuildID:    guildID,
		ChannelID:  channelID,
		Overwrites: infrastructure.FromDiscordOverwrites(event.PermissionOverwrites),
	})
}

// HandleGuildMemberRemove handles GuildMemberRemove events.
func (h *EventHandlers) HandleGuildMemberRemove(_ *discordgo.Session, event *discordgo.GuildMemberRemove) {
	if event.Member == nil || event.User == nil {
		return
	}
	guildID, userID, err := parsePair(event.GuildID, event.User.ID)
	if err != nil {
		slog.Error("failed to parse IDs in member remove event", "error", err)
		return
	}

	h.dispatch("guild_member_remove", domain.MemberRemoved{GuildID: guildID, UserID: userID})
}

// HandleMessageDelete handles MessageDelete events.
func (h *EventHandlers) HandleMessageDelete(_ *discordgo.Session, event *discordgo.MessageDelete) {
	if event.Message == nil || event.GuildID == "" {
		return
	}
	guildID, channelID, err := parsePair(event.GuildID, event.ChannelID)
	if err != nil {
		slog.Error("failed to parse IDs in message delete event", "error", err)
		return
	}
	messageID, err := snowflake.Parse(event.ID)
	if err != nil {
		slog.Error("failed to parse message ID in message delete event", "error", err)
		return
	}

	h.dispatch("message_delete", domain.MessageDeleted{
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
	})
}

// HandleVoiceStateUpdate handles VoiceStateUpdate events.
func (h *EventHandlers) HandleVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil {
		return
	}
	presence, err := voicePresence(event.VoiceState)
	if err != nil {
		slog.Error("failed to translate voice state update", "error", err)
		return
	}

	h.dispatch("voice_state_update", presence)
}

func (h *EventHandlers) dispatch(name string, event domain.PlatformEvent) {
	logger := slog.With("event_id", uuid.NewString(), "event", name)
	logger.Debug("handling event")

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	if err := h.sync.Handle(ctx, event); err != nil {
		logger.Error("failed to handle event", "error", err)
	}
}

// botRoleID resolves the managed role of the bot member, asking the REST API
// when the guild payload does not include the bot member.
func (h *EventHandlers) botRoleID(g *discordgo.Guild) snowflake.ID {
	botUserID := h.identity.BotUserID()
	if botUserID == 0 {
		return 0
	}

	roles, ok := memberRoles(g.Members, botUserID)
	if !ok && h.roles != nil {
		guildID, err := snowflake.Parse(g.ID)
		if err != nil {
			return 0
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		roles, err = h.roles.MemberRoleIDs(ctx, guildID, botUserID)
		if err != nil {
			slog.Warn("failed to fetch bot member roles", "guild_id", g.ID, "error", err)
			return 0
		}
	}

	return managedRoleID(g.Roles, roles)
}

// guildAvailable builds the snapshot of a guild without its bot role.
func guildAvailable(g *discordgo.Guild) (domain.GuildAvailable, error) {
	guildID, err := snowflake.Parse(g.ID)
	if err != nil {
		return domain.GuildAvailable{}, fmt.Errorf("invalid guild ID: %w", err)
	}

	available := domain.GuildAvailable{
		GuildID:     guildID,
		Channels:    make([]domain.LiveChannel, 0, len(g.Channels)),
		VoiceStates: make([]domain.LivePresence, 0, len(g.VoiceStates)),
	}

	for _, c := range g.Channels {
		channelID, err := snowflake.Parse(c.ID)
		if err != nil {
			continue
		}
		parentID, err := infrastructure.ParseOptionalID(c.ParentID)
		if err != nil {
			continue
		}
		available.Channels = append(available.Channels, domain.LiveChannel{
			ID:         channelID,
			Kind:       infrastructure.ChannelKindOf(c.Type),
			ParentID:   parentID,
			Overwrites: infrastructure.FromDiscordOverwrites(c.PermissionOverwrites),
		})
	}

	for _, vs := range g.VoiceStates {
		if vs.ChannelID == "" {
			continue
		}
		userID, channelID, err := parsePair(vs.UserID, vs.ChannelID)
		if err != nil {
			continue
		}
		available.VoiceStates = append(available.VoiceStates, domain.LivePresence{
			UserID:    userID,
			ChannelID: channelID,
		})
	}

	return available, nil
}

func voicePresence(vs *discordgo.VoiceState) (domain.VoicePresenceChanged, error) {
	guildID, userID, err := parsePair(vs.GuildID, vs.UserID)
	if err != nil {
		return domain.VoicePresenceChanged{}, err
	}
	channelID, err := infrastructure.ParseOptionalID(vs.ChannelID)
	if err != nil {
		return domain.VoicePresenceChanged{}, fmt.Errorf("invalid channel ID: %w", err)
	}

	presence := domain.VoicePresenceChanged{
		GuildID:     guildID,
		UserID:      userID,
		ChannelID:   channelID,
		DisplayName: infrastructure.DisplayName(vs.Member),
	}
	if vs.Member != nil && vs.Member.User != nil {
		presence.IsBot = vs.Member.User.Bot
	}
	return presence, nil
}

func memberRoles(members []*discordgo.Member, userID snowflake.ID) ([]string, bool) {
	for _, m := range members {
		if m != nil && m.User != nil && m.User.ID == userID.String() {
			return m.Roles, true
		}
	}
	return nil, false
}

// managedRoleID returns the first managed guild role among roleIDs.
func managedRoleID(guildRoles []*discordgo.Role, roleIDs []string) snowflake.ID {
	for _, role := range guildRoles {
		if role == nil || !role.Managed || !slices.Contains(roleIDs, role.ID) {
			continue
		}
		id, err := snowflake.Parse(role.ID)
		if err != nil {
			continue
		}
		return id
	}
	return 0
}

func parsePair(a, b string) (snowflake.ID, snowflake.ID, error) {
	first, err := snowflake.Parse(a)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ID %q: %w", a, err)
	}
	second, err := snowflake.Parse(b)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ID %q: %w", b, err)
	}
	return first, second, nil
}
