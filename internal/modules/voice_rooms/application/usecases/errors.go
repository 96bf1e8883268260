package usecases

import (
	"errors"
	"fmt"
)

// Precondition errors. Their messages are shown to the invoking user as-is.
var (
	// ErrUnknownGuild is returned when the guild has not been synchronized yet.
	ErrUnknownGuild = errors.New("this server isn't ready yet, try again in a moment")

	// ErrGuildUnavailable is returned while the guild is in an outage.
	ErrGuildUnavailable = errors.New("this server is unavailable right now, try again later")

	// ErrUnknownCategory is returned when a category is not managed by the bot.
	ErrUnknownCategory = errors.New("that category isn't managed by me")

	// ErrUnknownChannel is returned when a channel is not a managed voice room.
	ErrUnknownChannel = errors.New("this isn't a voice channel I manage")

	// ErrMaximumCategories is returned when the guild already has the maximum number of categories.
	ErrMaximumCategories = errors.New("the maximum number of voice categories has been reached")

	// ErrJoinChannelExists is returned when the category already has a join channel.
	ErrJoinChannelExists = errors.New("this category already has a join channel")

	// ErrNotOwner is returned when a non-owner attempts an owner-only action.
	ErrNotOwner = errors.New("you are not allowed to do this")

	// ErrAlreadyOwner is returned when the owner claims or transfers to themselves.
	ErrAlreadyOwner = errors.New("you already own this voice channel")

	// ErrChannelOwned is returned when claiming a channel that has an owner.
	ErrChannelOwned = errors.New("this voice channel already has an owner")

	// ErrAlreadyOwnsChannel is returned when the user already owns a room in the guild.
	ErrAlreadyOwnsChannel = errors.New("you already own a voice channel")

	// ErrTargetOwnsChannel is returned when the transfer target already owns a room.
	ErrTargetOwnsChannel = errors.New("that member already owns a voice channel")

	// ErrTargetIsBot is returned when transferring ownership to a bot.
	ErrTargetIsBot = errors.New("bots can't own voice channels")

	// ErrProtectedMember is returned when granting or revoking access of the owner or the bot.
	ErrProtectedMember = errors.New("this member may not be modified")

	// ErrProtectedRole is returned for managed roles, the everyone role and the bot's role.
	ErrProtectedRole = errors.New("this role may not be modified")

	// ErrNoAccessToRemove is returned when the target has no overwrite in the room.
	ErrNoAccessToRemove = errors.New("there are no permissions to remove")

	// ErrCannotKick is returned when kicking the bot, the owner or yourself.
	ErrCannotKick = errors.New("this member may not be kicked")

	// ErrNotConnected is returned when kicking a member who is not in the room.
	ErrNotConnected = errors.New("that member isn't in this voice channel")

	// ErrAlreadyLocked is returned when locking a room nobody else can join.
	ErrAlreadyLocked = errors.New("this voice channel is already locked")

	// ErrAlreadyUnlocked is returned when unlocking an unlocked room.
	ErrAlreadyUnlocked = errors.New("this voice channel is already unlocked")

	// ErrPrivacyUnchanged is returned when the requested privacy is already applied.
	ErrPrivacyUnchanged = errors.New("no change has been applied")

	// ErrInvalidName is returned for empty or overlong channel names.
	ErrInvalidName = errors.New("the name must be between 1 and 100 characters")

	// ErrInvalidBitrate is returned for a bitrate outside 8-96 kbps.
	ErrInvalidBitrate = errors.New("the bitrate must be between 8 and 96 kbps")

	// ErrInvalidUserLimit is returned for a user limit outside 0-99.
	ErrInvalidUserLimit = errors.New("the user limit must be between 0 and 99")

	// ErrInvalidSlowmode is returned for a slowmode interval that is not offered.
	ErrInvalidSlowmode = errors.New("that slowmode interval isn't available")

	// ErrInvalidVideoQuality is returned for a mode other than auto or 720p.
	ErrInvalidVideoQuality = errors.New("that video quality isn't available")
)

// Failure classes for errors that are not the user's fault.
var (
	// ErrRemoteFailure classifies errors returned by Discord.
	ErrRemoteFailure = errors.New("I couldn't complete that on Discord, check my permissions")

	// ErrPersistence classifies errors returned by the store.
	ErrPersistence = errors.New("something went wrong while saving that change")
)

// RemoteError wraps a failed Discord call.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

// Unwrap matches both ErrRemoteFailure and the underlying error.
func (e *RemoteError) Unwrap() []error {
	return []error{ErrRemoteFailure, e.Err}
}

// PersistenceError wraps a failed store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

// Unwrap matches both ErrPersistence and the underlying error.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

func remoteError(op string, err error) error {
	return &RemoteError{Op: op, Err: err}
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
