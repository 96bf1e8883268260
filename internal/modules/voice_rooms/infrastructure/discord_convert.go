package infrastructure

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// ToDiscordOverwrites converts domain overwrites to their discordgo form.
func ToDiscordOverwrites(overwrites []domain.Overwrite) []*discordgo.PermissionOverwrite {
	converted := make([]*discordgo.PermissionOverwrite, 0, len(overwrites))
	for _, o := range overwrites {
		converted = append(converted, toDiscordOverwrite(o))
	}
	return converted
}

func toDiscordOverwrite(o domain.Overwrite) *discordgo.PermissionOverwrite {
	overwriteType := discordgo.PermissionOverwriteTypeRole
	if o.Kind == domain.OverwriteMember {
		overwriteType = discordgo.PermissionOverwriteTypeMember
	}
	return &discordgo.PermissionOverwrite{
		ID:    o.ID.String(),
		Type:  overwriteType,
		Allow: int64(o.Allow),
		Deny:  int64(o.Deny),
	}
}

// FromDiscordOverwrites converts discordgo overwrites to domain overwrites.
// Entries with unparsable IDs are skipped.
func FromDiscordOverwrites(overwrites []*discordgo.PermissionOverwrite) []domain.Overwrite {
	converted := make([]domain.Overwrite, 0, len(overwrites))
	for _, o := range overwrites {
		if o == nil {
			continue
		}
		id, err := snowflake.Parse(o.ID)
		if err != nil {
			slog.Warn("skipped permission overwrite with invalid ID", "id", o.ID, "error", err)
			continue
		}
		kind := domain.OverwriteRole
		if o.Type == discordgo.PermissionOverwriteTypeMember {
			kind = domain.OverwriteMember
		}
		converted = append(converted, domain.Overwrite{
			ID:    id,
			Kind:  kind,
			Allow: domain.Permissions(o.Allow),
			Deny:  domain.Permissions(o.Deny),
		})
	}
	return converted
}

// ChannelKindOf classifies a discordgo channel type.
func ChannelKindOf(channelType discordgo.ChannelType) domain.ChannelKind {
	switch channelType {
	case discordgo.ChannelTypeGuildCategory:
		return domain.ChannelKindCategory
	case discordgo.ChannelTypeGuildVoice:
		return domain.ChannelKindVoice
	default:
		return domain.ChannelKindOther
	}
}

// ParseOptionalID parses a snowflake string, treating "" as 0.
func ParseOptionalID(s string) (snowflake.ID, error) {
	if s == "" {
		return 0, nil
	}
	return snowflake.Parse(s)
}
