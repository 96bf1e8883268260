package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownPrivacy is returned when a privacy value is not one of the known modes.
var ErrUnknownPrivacy = errors.New("unknown privacy mode")

// Privacy is the access mode applied to the everyone role of a voice room.
type Privacy int

const (
	PrivacyUnlocked  Privacy = iota // Everyone may view and connect
	PrivacyLocked                   // Everyone may view but not connect
	PrivacyInvisible                // Everyone is denied view
)

// Privacies lists every privacy mode in display order.
var Privacies = []Privacy{PrivacyUnlocked, PrivacyLocked, PrivacyInvisible}

// String returns the persisted/command representation of the privacy mode.
func (p Privacy) String() string {
	switch p {
	case PrivacyLocked:
		return "locked"
	case PrivacyInvisible:
		return "invisible"
	default:
		return "unlocked"
	}
}

// Label returns a capitalized representation for embeds.
func (p Privacy) Label() string {
	switch p {
	case PrivacyLocked:
		return "Locked"
	case PrivacyInvisible:
		return "Invisible"
	default:
		return "Unlocked"
	}
}

// Denied returns the permissions the everyone role is denied under this mode.
func (p Privacy) Denied() Permissions {
	switch p {
	case PrivacyLocked:
		return PermissionConnect
	case PrivacyInvisible:
		return PermissionViewChannel
	default:
		return 0
	}
}

// ParsePrivacy converts a string to a Privacy, rejecting unknown values.
func ParsePrivacy(s string) (Privacy, error) {
	switch s {
	case "unlocked":
		return PrivacyUnlocked, nil
	case "locked":
		return PrivacyLocked, nil
	case "invisible":
		return PrivacyInvisible, nil
	default:
		return PrivacyUnlocked, fmt.Errorf("%w: %q", ErrUnknownPrivacy, s)
	}
}
