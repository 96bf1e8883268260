package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// PanelMessenger defines the interface for posting control panels.
type PanelMessenger interface {
	// SendPanel posts the control panel into the channel and returns the message ID.
	SendPanel(ctx context.Context, channelID snowflake.ID) (snowflake.ID, error)

	// PanelExists reports whether the message still exists in the channel.
	PanelExists(ctx context.Context, channelID, messageID snowflake.ID) (bool, error)

	// ResetPanel restores the panel's components, clearing the menu selection.
	ResetPanel(ctx context.Context, channelID, messageID snowflake.ID) error
}
