package bot

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// Responder answers a Discord interaction. Handlers take it instead of the
// session so they can be tested without a live connection.
type Responder interface {
	// Respond sends a response to an interaction.
	Respond(response *discordgo.InteractionResponse) error

	// Edit replaces the original response, typically a deferred one.
	Edit(edit *discordgo.WebhookEdit) error
}

// ErrModalAfterDefer is returned when a deferred interaction tries to open a
// modal. Modals must be the first response.
var ErrModalAfterDefer = errors.New("cannot open a modal after deferring")

// Defer acknowledges the interaction with an ephemeral loading message and
// returns a Responder whose message responses edit it. Handlers call this
// before remote work so the interaction token does not expire mid-call.
func Defer(r Responder) (Responder, error) {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return nil, err
	}
	return &deferredResponder{inner: r}, nil
}

// deferredResponder turns message responses into edits of the deferred one.
type deferredResponder struct {
	inner Responder
}

func (d *deferredResponder) Respond(response *discordgo.InteractionResponse) error {
	if response.Type == discordgo.InteractionResponseModal {
		return ErrModalAfterDefer
	}

	edit := &discordgo.WebhookEdit{}
	if data := response.Data; data != nil {
		content := data.Content
		embeds := data.Embeds
		components := data.Components
		if components == nil {
			components = []discordgo.MessageComponent{}
		}
		edit.Content = &content
		edit.Embeds = &embeds
		edit.Components = &components
	}
	return d.inner.Edit(edit)
}

func (d *deferredResponder) Edit(edit *discordgo.WebhookEdit) error {
	return d.inner.Edit(edit)
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
	responded   bool
	deferred    bool
	edited      bool
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends the interaction response. An interaction accepts one
// response; the attempt is recorded even when the call fails.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	r.responded = true
	r.deferred = response.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource
	return r.session.InteractionRespond(r.interaction, response)
}

// Edit replaces the original response.
func (r *DiscordResponder) Edit(edit *discordgo.WebhookEdit) error {
	r.edited = true
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

// Responded reports whether Respond was called.
func (r *DiscordResponder) Responded() bool {
	return r.responded
}

// Pending reports whether the response was deferred and never edited, leaving
// the user with a loading message.
func (r *DiscordResponder) Pending() bool {
	return r.deferred && !r.edited
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	Responses    []*discordgo.InteractionResponse
	LastEdit     *discordgo.WebhookEdit
	Edits        []*discordgo.WebhookEdit
	Err          error
}

// Respond records the response for testing.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	m.Responses = append(m.Responses, response)
	return m.Err
}

// Edit records the edit for testing.
func (m *MockResponder) Edit(edit *discordgo.WebhookEdit) error {
	m.LastEdit = edit
	m.Edits = append(m.Edits, edit)
	return m.Err
}

// Deferred reports whether the first response was a deferral.
func (m *MockResponder) Deferred() bool {
	return len(m.Responses) > 0 &&
		m.Responses[0].Type == discordgo.InteractionResponseDeferredChannelMessageWithSource
}
