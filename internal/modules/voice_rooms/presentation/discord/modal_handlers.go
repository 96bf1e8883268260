package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/tempvoice/internal/bot"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/application/usecases"
	"github.com/sglre6355/tempvoice/internal/modules/voice_rooms/domain"
)

// Custom IDs of the panel modals.
const (
	NameModalID      = "voice-rooms:modify-name"
	BitrateModalID   = "voice-rooms:modify-bitrate"
	UserLimitModalID = "voice-rooms:modify-user-limit"

	modalInputID = "value"
)

func nameModal() *discordgo.InteractionResponse {
	return modal(NameModalID, "Modify name", discordgo.TextInput{
		CustomID:  modalInputID,
		Label:     "Name",
		Style:     discordgo.TextInputShort,
		Required:  true,
		MinLength: 1,
		MaxLength: domain.MaxChannelNameLength,
	})
}

func bitrateModal() *discordgo.InteractionResponse {
	return modal(BitrateModalID, "Modify bitrate", discordgo.TextInput{
		CustomID:    modalInputID,
		Label:       fmt.Sprintf("Bitrate in kbps (%d-%d)", domain.MinBitrateKbps, domain.MaxBitrateKbps),
		Style:       discordgo.TextInputShort,
		Placeholder: "64",
		Required:    true,
		MaxLength:   2,
	})
}

func userLimitModal() *discordgo.InteractionResponse {
	return modal(UserLimitModalID, "Modify user limit", discordgo.TextInput{
		CustomID:    modalInputID,
		Label:       fmt.Sprintf("User limit (0-%d, 0 for none)", domain.MaxUserLimit),
		Style:       discordgo.TextInputShort,
		Placeholder: "0",
		Required:    true,
		MaxLength:   2,
	})
}

func modal(customID, title string, input discordgo.TextInput) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID,
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{input}},
			},
		},
	}
}

// HandleNameModal handles a submitted name modal.
func (h *PanelHandlers) HandleNameModal(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	if r, err = bot.Defer(r); err != nil {
		return err
	}
	name, err := h.settings.Rename(context.Background(), ref, modalValue(i.ModalSubmitData()))
	if err != nil {
		return respondUsecaseError(r, "rename voice channel", err)
	}
	return respondSuccess(r, fmt.Sprintf("Renamed this voice channel to **%s**.", name))
}

// HandleBitrateModal handles a submitted bitrate modal.
func (h *PanelHandlers) HandleBitrateModal(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	kbps, err := strconv.Atoi(modalValue(i.ModalSubmitData()))
	if err != nil {
		return respondError(r, usecases.ErrInvalidBitrate.Error())
	}
	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.settings.SetBitrate(context.Background(), ref, kbps); err != nil {
		return respondUsecaseError(r, "set bitrate", err)
	}
	return respondSuccess(r, fmt.Sprintf("Set the bitrate to %d kbps.", kbps))
}

// HandleUserLimitModal handles a submitted user limit modal.
func (h *PanelHandlers) HandleUserLimitModal(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
	ref, err := roomRef(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	limit, err := strconv.Atoi(modalValue(i.ModalSubmitData()))
	if err != nil {
		return respondError(r, usecases.ErrInvalidUserLimit.Error())
	}
	if r, err = bot.Defer(r); err != nil {
		return err
	}
	if err := h.settings.SetUserLimit(context.Background(), ref, limit); err != nil {
		return respondUsecaseError(r, "set user limit", err)
	}
	if limit == 0 {
		return respondSuccess(r, "Removed the user limit.")
	}
	return respondSuccess(r, fmt.Sprintf("Set the user limit to %d.", limit))
}

// modalValue returns the trimmed value of the modal's only text input.
func modalValue(data discordgo.ModalSubmitInteractionData) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			if input, ok := c.(*discordgo.TextInput); ok && input.CustomID == modalInputID {
				return strings.TrimSpace(input.Value)
			}
		}
	}
	return ""
}
