package domain

import "strings"

// MaxChannelNameLength is the longest name Discord accepts for a channel.
const MaxChannelNameLength = 100

// RoomName returns the name of a room owned by a member with the given display
// name: names ending in "s" take a bare apostrophe, others take "'s".
func RoomName(displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = "Someone"
	}

	var room string
	if strings.HasSuffix(strings.ToLower(name), "s") {
		room = name + "' voice"
	} else {
		room = name + "'s voice"
	}

	if runes := []rune(room); len(runes) > MaxChannelNameLength {
		room = string(runes[:MaxChannelNameLength])
	}
	return room
}
