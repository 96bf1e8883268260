package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/infrastructure"
)

// Custom IDs of the panel and its follow-up menus.
const (
	PanelSelectID        = infrastructure.PanelSelectID
	AddMemberSelectID    = "voice-rooms:add-member"
	AddRoleSelectID      = "voice-rooms:add-role"
	RemoveMemberSelectID = "voice-rooms:remove-member"
	RemoveRoleSelectID   = "voice-rooms:remove-role"
	KickSelectID         = "voice-rooms:kick-member"
	TransferSelectID     = "voice-rooms:transfer"
	PrivacySelectID      = "voice-rooms:modify-privacy"
	SlowmodeSelectID     = "voice-rooms:modify-slowmode"
	VideoQualitySelectID = "voice-rooms:modify-video-quality"
)

// PanelHandlers handles the control panel and everything it opens.
type PanelHandlers struct {
	lifecycle *usecases.LifecycleService
	ownership *usecases.OwnershipService
	access    *usecases.AccessService
	settings  *usecases.ChannelSettingsService
}

// NewPanelHandlers creates new PanelHandlers.
func NewPanelHandlers(
	lifecycle *usecases.LifecycleService,
	ownership *usecases.OwnershipService,
	access *usecases.AccessService,
	settings *usecases.ChannelSettingsService,
) *PanelHandlers {
	return &PanelHandlers{
		lifecycle: lifecycle,
		ownership: ownership,
		access:    access,
		settings:  settings,
	}
}

// HandlePanelSelect handles a selection in the panel menu.
func (h *PanelHandlers) HandlePanelSelect(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return respondError(r, "Nothing was selected")
	}
	h.resetPanel(ref, i.Message)

	action, ok := domain.ParsePanelAction(values[0])
	if !ok {
		return respondError(r, "Unknown action")
	}

	info, err := h.settings.Info(ctx, ref.GuildID, ref.ChannelID)
	if err != nil {
		return respondUsecaseError(r, string(action), err)
	}

	if !action.RequiresOwnership() {
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		if err := h.ownership.Claim(ctx, ref); err != nil {
			return respondUsecaseError(r, string(action), err)
		}
		return respondSuccess(r, "You now own this voice channel.")
	}
	if info.OwnerID != ref.UserID {
		return respondError(r, usecases.ErrNotOwner.Error())
	}

	switch action {
	case domain.ActionAddMember:
		return respondComponents(r, "Who should be able to join?", userSelect(AddMemberSelectID))
	case domain.ActionRemoveMember:
		return respondComponents(r, "Whose access should be removed?", userSelect(RemoveMemberSelectID))
	case domain.ActionKickMember:
		return respondComponents(r, "Who should be disconnected?", userSelect(KickSelectID))
	case domain.ActionTransfer:
		return respondComponents(r, "Who should own this voice channel?", userSelect(TransferSelectID))
	case domain.ActionAddRole:
		return respondComponents(r, "Which role should be able to join?", roleSelect(AddRoleSelectID))
	case domain.ActionRemoveRole:
		return respondComponents(r, "Which role's access should be removed?", roleSelect(RemoveRoleSelectID))
	case domain.ActionModifyPrivacy:
		return respondComponents(r, "Choose the privacy of this voice channel.", privacySelect(info.Privacy))
	case domain.ActionModifySlowmode:
		return respondComponents(r, "Choose the slowmode of the chat.", slowmodeSelect())
	case domain.ActionModifyVideoQuality:
		return respondComponents(r, "Choose the camera quality.", videoQualitySelect())
	case domain.ActionModifyName:
		return r.Respond(nameModal())
	case domain.ActionModifyBitrate:
		return r.Respond(bitrateModal())
	case domain.ActionModifyUserLimit:
		return r.Respond(userLimitModal())

	case domain.ActionLockChannel:
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		if err := h.access.Lock(ctx, ref); err != nil {
			return respondUsecaseError(r, string(action), err)
		}
		return respondSuccess(r, "Locked this voice channel.")

	case domain.ActionUnlockChannel:
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		if err := h.access.Unlock(ctx, ref); err != nil {
			return respondUsecaseError(r, string(action), err)
		}
		return respondSuccess(r, "Unlocked this voice channel.")

	case domain.ActionRemoveChannel:
		if r, err = bot.Defer(r); err != nil {
			return err
		}
		if err := h.lifecycle.RemoveChannel(ctx, ref); err != nil {
			return respondUsecaseError(r, string(action), err)
		}
		return respondSuccess(r, "Deleting this voice channel.")

	case domain.ActionViewInformation:
		return respondEmbed(r, infoEmbed(info))
	}

	return respondError(r, "Unknown action")
}

// resetPanel clears the selection on the panel message once it was read.
func (h *PanelHandlers) resetPanel(ref usecases.RoomRef, message *discordgo.Message) {
	if message == nil {
		return
	}
	messageID, err := snowflake.Parse(message.ID)
	if err != nil {
		return
	}
	h.lifecycle.ResetPanelSelection(ref.ChannelID, messageID)
}

// HandleAddMember handles the member picked after "Add member".
func (h *PanelHandlers) HandleAddMember(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	return h.handleAccess(i, r, domain.OverwriteMember, true)
}

// HandleRemoveMember handles the member picked after "Remove member".
func (h *PanelHandlers) HandleRemoveMember(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	return h.handleAccess(i, r, domain.OverwriteMember, false)
}

// HandleAddRole handles the role picked after "Add role".
func (h *PanelHandlers) HandleAddRole(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	return h.handleAccess(i, r, domain.OverwriteRole, true)
}

// HandleRemoveRole handles the role picked after "Remove role".
func (h *PanelHandlers) HandleRemoveRole(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	return h.handleAccess(i, r, domain.OverwriteRole, false)
}

func (h *PanelHandlers) handleAccess(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	kind domain.OverwriteKind,
	grant bool,
) error {
	ctx := context.Background()

	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	data := i.MessageComponentData()
	targetID, err := selectedID(data)
	if err != nil {
		return respondError(r, "Nothing was selected")
	}

	input := usecases.AccessInput{RoomRef: ref, TargetID: targetID, Kind: kind}
	mention := fmt.Sprintf("<@%d>", targetID)
	if kind == domain.OverwriteRole {
		mention = fmt.Sprintf("<@&%d>", targetID)
		if role, ok := data.Resolved.Roles[targetID.String()]; ok && role != nil {
			input.TargetManaged = role.Managed
		}
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}

	if grant {
		if err := h.access.Grant(ctx, input); err != nil {
			return respondUsecaseError(r, "grant access", err)
		}
		return respondSuccess(r, fmt.Sprintf("%s can now join this voice channel.", mention))
	}

	if err := h.access.Revoke(ctx, input); err != nil {
		return respondUsecaseError(r, "revoke access", err)
	}
	return respondSuccess(r, fmt.Sprintf("Removed the access of %s.", mention))
}

// HandleKick handles the member picked after "Kick member".
func (h *PanelHandlers) HandleKick(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	targetID, err := selectedID(i.MessageComponentData())
	if err != nil {
		return respondError(r, "Nothing was selected")
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.access.Kick(context.Background(), usecases.KickInput{RoomRef: ref, TargetID: targetID}); err != nil {
		return respondUsecaseError(r, "kick member", err)
	}
	return respondSuccess(r, fmt.Sprintf("Disconnected <@%d>.", targetID))
}

// HandleTransfer handles the member picked after "Transfer".
func (h *PanelHandlers) HandleTransfer(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	data := i.MessageComponentData()
	targetID, err := selectedID(data)
	if err != nil {
		return respondError(r, "Nothing was selected")
	}

	input := usecases.TransferInput{RoomRef: ref, TargetID: targetID}
	if user, ok := data.Resolved.Users[targetID.String()]; ok && user != nil {
		input.TargetIsBot = user.Bot
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.ownership.Transfer(context.Background(), input); err != nil {
		return respondUsecaseError(r, "transfer ownership", err)
	}
	return respondSuccess(r, fmt.Sprintf("<@%d> now owns this voice channel.", targetID))
}

// HandlePrivacy handles the mode picked after "Modify privacy".
func (h *PanelHandlers) HandlePrivacy(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return respondError(r, "Nothing was selected")
	}
	privacy, err := domain.ParsePrivacy(values[0])
	if err != nil {
		return respondError(r, "Unknown privacy mode")
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.access.SetChannelPrivacy(context.Background(), usecases.PrivacyInput{RoomRef: ref, Privacy: privacy}); err != nil {
		return respondUsecaseError(r, "set channel privacy", err)
	}
	return respondSuccess(r, fmt.Sprintf("This voice channel is now %s.", privacy))
}

// HandleSlowmode handles the interval picked after "Modify slowmode".
func (h *PanelHandlers) HandleSlowmode(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	seconds, err := selectedInt(i.MessageComponentData())
	if err != nil {
		return respondError(r, usecases.ErrInvalidSlowmode.Error())
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.settings.SetSlowmode(context.Background(), ref, seconds); err != nil {
		return respondUsecaseError(r, "set slowmode", err)
	}
	return respondSuccess(r, fmt.Sprintf("Set the slowmode to %s.", slowmodeLabel(seconds)))
}

// HandleVideoQuality handles the mode picked after "Modify video quality".
func (h *PanelHandlers) HandleVideoQuality(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	mode, err := selectedInt(i.MessageComponentData())
	if err != nil {
		return respondError(r, usecases.ErrInvalidVideoQuality.Error())
	}
	quality := domain.VideoQuality(mode)
	if !quality.IsValid() {
		return respondError(r, usecases.ErrInvalidVideoQuality.Error())
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.settings.SetVideoQuality(context.Background(), ref, quality); err != nil {
		return respondUsecaseError(r, "set video quality", err)
	}
	return respondSuccess(r, fmt.Sprintf("Set the video quality to %s.", quality))
}

// roomRef identifies the room an interaction was sent from and its invoker.
// Panels live in the room's own chat, so the interaction channel is the room.
func roomRef(i *discordgo.InteractionCreate) (usecases.RoomRef, error) {
	if i.Member == nil || i.Member.User == nil {
		return usecases.RoomRef{}, errInvalidGuild
	}
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return usecases.RoomRef{}, errInvalidGuild
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return usecases.RoomRef{}, usecases.ErrUnknownChannel
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return usecases.RoomRef{}, errInvalidGuild
	}
	return usecases.RoomRef{GuildID: guildID, ChannelID: channelID, UserID: userID}, nil
}

func selectedID(data discordgo.MessageComponentInteractionData) (snowflake.ID, error) {
	if len(data.Values) == 0 {
		return 0, fmt.Errorf("no value selected")
	}
	return snowflake.Parse(data.Values[0])
}

func selectedInt(data discordgo.MessageComponentInteractionData) (int, error) {
	if len(data.Values) == 0 {
		return 0, fmt.Errorf("no value selected")
	}
	return strconv.Atoi(data.Values[0])
}

func userSelect(customID string) discordgo.SelectMenu {
	return discordgo.SelectMenu{
		MenuType:    discordgo.UserSelectMenu,
		CustomID:    customID,
		Placeholder: "Select a member",
		MaxValues:   1,
	}
}

func roleSelect(customID string) discordgo.SelectMenu {
	return discordgo.SelectMenu{
		MenuType:    discordgo.RoleSelectMenu,
		CustomID:    customID,
		Placeholder: "Select a role",
		MaxValues:   1,
	}
}

func privacySelect(current domain.Privacy) discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(domain.Privacies))
	for _, p := range domain.Privacies {
		options = append(options, discordgo.SelectMenuOption{
			Label:   p.Label(),
			Value:   p.String(),
			Default: p == current,
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    PrivacySelectID,
		Placeholder: "Select a privacy mode",
		Options:     options,
	}
}

func slowmodeSelect() discordgo.SelectMenu {
	options := make([]discordgo.SelectMenuOption, 0, len(domain.SlowmodeSeconds))
	for _, seconds := range domain.SlowmodeSeconds {
		options = append(options, discordgo.SelectMenuOption{
			Label: slowmodeLabel(seconds),
			Value: strconv.Itoa(seconds),
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    SlowmodeSelectID,
		Placeholder: "Select an interval",
		Options:     options,
	}
}

func videoQualitySelect() discordgo.SelectMenu {
	qualities := []domain.VideoQuality{domain.VideoQualityAuto, domain.VideoQualityFull}
	options := make([]discordgo.SelectMenuOption, 0, len(qualities))
	for _, q := range qualities {
		options = append(options, discordgo.SelectMenuOption{
			Label: q.String(),
			Value: strconv.Itoa(int(q)),
		})
	}
	return discordgo.SelectMenu{
		MenuType:    discordgo.StringSelectMenu,
		CustomID:    VideoQualitySelectID,
		Placeholder: "Select a quality",
		Options:     options,
	}
}

// slowmodeLabel formats an interval the way the Discord client does.
func slowmodeLabel(seconds int) string {
	switch {
	case seconds == 0:
		return "Off"
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%dh", seconds/3600)
	}
}

func infoEmbed(info *usecases.InfoOutput) *discordgo.MessageEmbed {
	owner := "None"
	if info.OwnerID != 0 {
		owner = fmt.Sprintf("<@%d>", info.OwnerID)
	}

	mentions := make([]string, 0, len(info.AllowedMemberIDs))
	for _, id := range info.AllowedMemberIDs {
		mentions = append(mentions, fmt.Sprintf("<@%d>", id))
	}
	allowed := strings.Join(mentions, ", ")
	if info.MoreAllowed > 0 {
		allowed += fmt.Sprintf(" and %d more", info.MoreAllowed)
	}
	if allowed == "" {
		allowed = "None"
	}

	return &discordgo.MessageEmbed{
		Title: "Channel information",
		Color: colorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Owner", Value: owner, Inline: true},
			{Name: "Privacy", Value: info.Privacy.Label(), Inline: true},
			{Name: "Connected", Value: strconv.Itoa(info.ConnectedCount), Inline: true},
			{Name: "Allowed members", Value: allowed},
		},
	}
}
