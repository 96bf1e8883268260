package domain

import "slices"

// PanelAction is an action offered by a room's control panel.
type PanelAction string

const (
	ActionAddMember          PanelAction = "add-member"
	ActionAddRole            PanelAction = "add-role"
	ActionClaim              PanelAction = "claim"
	ActionKickMember         PanelAction = "kick-member"
	ActionLockChannel        PanelAction = "lock-channel"
	ActionModifyBitrate      PanelAction = "modify-bitrate"
	ActionModifyName         PanelAction = "modify-name"
	ActionModifyPrivacy      PanelAction = "modify-privacy"
	ActionModifySlowmode     PanelAction = "modify-slowmode"
	ActionModifyUserLimit    PanelAction = "modify-user-limit"
	ActionModifyVideoQuality PanelAction = "modify-video-quality"
	ActionRemoveChannel      PanelAction = "remove-channel"
	ActionRemoveMember       PanelAction = "remove-member"
	ActionRemoveRole         PanelAction = "remove-role"
	ActionTransfer           PanelAction = "transfer"
	ActionUnlockChannel      PanelAction = "unlock-channel"
	ActionViewInformation    PanelAction = "view-information"
)

// PanelOption describes how an action is presented in the panel menu.
type PanelOption struct {
	Action      PanelAction
	Label       string
	Description string
	Emoji       string
}

// PanelOptions is the fixed action menu posted into every room.
var PanelOptions = []PanelOption{
	{ActionAddMember, "Add member", "Allow a member to view and join", "➕"},
	{ActionAddRole, "Add role", "Allow a role to view and join", "🛡️"},
	{ActionClaim, "Claim", "Become the owner of an unowned channel", "👑"},
	{ActionKickMember, "Kick member", "Disconnect a member from the channel", "👢"},
	{ActionLockChannel, "Lock channel", "Stop everyone else from joining", "🔒"},
	{ActionModifyBitrate, "Modify bitrate", "Change the audio quality", "🎚️"},
	{ActionModifyName, "Modify name", "Rename the channel", "✏️"},
	{ActionModifyPrivacy, "Modify privacy", "Unlock, lock or hide the channel", "🕶️"},
	{ActionModifySlowmode, "Modify slowmode", "Limit how often members can chat", "🐢"},
	{ActionModifyUserLimit, "Modify user limit", "Cap how many members can join", "👥"},
	{ActionModifyVideoQuality, "Modify video quality", "Change the camera quality", "🎥"},
	{ActionRemoveChannel, "Remove channel", "Delete this channel", "🗑️"},
	{ActionRemoveMember, "Remove member", "Take away a member's access", "➖"},
	{ActionRemoveRole, "Remove role", "Take away a role's access", "🚫"},
	{ActionTransfer, "Transfer", "Hand ownership to another member", "🤝"},
	{ActionUnlockChannel, "Unlock channel", "Let everyone join again", "🔓"},
	{ActionViewInformation, "View information", "Show the channel's settings", "ℹ️"},
}

// ParsePanelAction converts a menu value to a PanelAction.
func ParsePanelAction(value string) (PanelAction, bool) {
	action := PanelAction(value)
	ok := slices.ContainsFunc(PanelOptions, func(o PanelOption) bool {
		return o.Action == action
	})
	return action, ok
}

// RequiresOwnership reports whether only the room owner may use the action.
// Claiming is the only action reserved for non-owners.
func (a PanelAction) RequiresOwnership() bool {
	return a != ActionClaim
}

// VideoQuality is a room's camera quality mode. Values match the Discord API.
type VideoQuality int

const (
	VideoQualityAuto VideoQuality = 1
	VideoQualityFull VideoQuality = 2
)

// IsValid reports whether q is a mode Discord accepts.
func (q VideoQuality) IsValid() bool {
	return q == VideoQualityAuto || q == VideoQualityFull
}

// String returns a human-readable representation of the quality mode.
func (q VideoQuality) String() string {
	if q == VideoQualityFull {
		return "720p"
	}
	return "Auto"
}

// Channel setting bounds.
const (
	MinBitrateKbps = 8
	MaxBitrateKbps = 96
	MaxUserLimit   = 99
)

// SlowmodeSeconds lists the slowmode intervals a room may use.
var SlowmodeSeconds = []int{0, 5, 10, 15, 30, 60, 120, 300, 600, 900, 1800, 3600, 7200, 21600}

// IsValidSlowmode reports whether seconds is an allowed slowmode interval.
func IsValidSlowmode(seconds int) bool {
	return slices.Contains(SlowmodeSeconds, seconds)
}
