package domain

import "github.com/disgoorg/snowflake/v2"

// OverwriteSlots identifies the entries that ComputeOverwrites always recomputes.
type OverwriteSlots struct {
	EveryoneID snowflake.ID // The everyone role shares the guild's ID
	BotRoleID  snowflake.ID // 0 when unknown
	BotUserID  snowflake.ID
	OwnerID    snowflake.ID // 0 when the room has no owner
}

// OverwriteChange is the result of applying a single-target grant or revoke.
type OverwriteChange struct {
	// Entry is the target's overwrite after the change.
	Entry Overwrite
	// Removed is true when Entry became empty and must be deleted remotely.
	Removed bool
	// Overwrites is the full list after the change.
	Overwrites []Overwrite
}

// ComputeOverwrites returns the replacement overwrite list for a room.
//
// Entries for the everyone role, the bot role, the bot member and the owner are
// extracted from current and rebuilt; any other empty entry is pruned. The
// everyone entry is denied exactly the bits of privacy, and the owner is allowed
// the same bits so they cannot be locked out of their own room.
func ComputeOverwrites(current []Overwrite, slots OverwriteSlots, privacy Privacy) []Overwrite {
	var everyone, botRole, botUser, owner Overwrite
	result := make([]Overwrite, 0, len(current)+4)

	for _, o := range current {
		switch {
		case o.Kind == OverwriteRole && o.ID == slots.EveryoneID:
			everyone = o
		case o.Kind == OverwriteRole && slots.BotRoleID != 0 && o.ID == slots.BotRoleID:
			botRole = o
		case o.Kind == OverwriteMember && o.ID == slots.BotUserID:
			botUser = o
		case o.Kind == OverwriteMember && slots.OwnerID != 0 && o.ID == slots.OwnerID:
			owner = o
		case !o.IsEmpty():
			result = append(result, o)
		}
	}

	denied := privacy.Denied()

	everyone = RoleOverwrite(
		slots.EveryoneID,
		everyone.Allow&^denied,
		everyone.Deny&^PermissionAccess|denied,
	)
	if !everyone.IsEmpty() {
		result = append(result, everyone)
	}

	if slots.BotRoleID != 0 {
		result = append(result, RoleOverwrite(
			slots.BotRoleID,
			botRole.Allow|PermissionAccess,
			botRole.Deny&^PermissionAccess,
		))
	}

	result = append(result, MemberOverwrite(
		slots.BotUserID,
		botUser.Allow|PermissionAccess,
		botUser.Deny&^PermissionAccess,
	))

	if slots.OwnerID != 0 {
		owner = MemberOverwrite(
			slots.OwnerID,
			owner.Allow&^PermissionAccess|denied,
			owner.Deny&^denied,
		)
		if !owner.IsEmpty() {
			result = append(result, owner)
		}
	}

	return result
}

// GrantAccess allows connect and view for the target, creating its entry if absent.
func GrantAccess(current []Overwrite, id snowflake.ID, kind OverwriteKind) OverwriteChange {
	entry, _ := FindOverwrite(current, id, kind)
	entry.ID = id
	entry.Kind = kind
	entry.Allow |= PermissionAccess
	entry.Deny &^= PermissionAccess

	return OverwriteChange{
		Entry:      entry,
		Overwrites: replaceOverwrite(current, entry),
	}
}

// RevokeAccess removes connect and view from the target's allow set. The entry is
// dropped when both sets end up empty. ok is false if the target had no entry.
func RevokeAccess(current []Overwrite, id snowflake.ID, kind OverwriteKind) (OverwriteChange, bool) {
	entry, ok := FindOverwrite(current, id, kind)
	if !ok {
		return OverwriteChange{Overwrites: CloneOverwrites(current)}, false
	}

	entry.Allow &^= PermissionAccess
	if entry.IsEmpty() {
		return OverwriteChange{
			Entry:      entry,
			Removed:    true,
			Overwrites: removeOverwrite(current, id, kind),
		}, true
	}

	return OverwriteChange{
		Entry:      entry,
		Overwrites: replaceOverwrite(current, entry),
	}, true
}

// PrivacyOf derives the privacy mode from the everyone entry of an overwrite list.
func PrivacyOf(overwrites []Overwrite, everyoneID snowflake.ID) Privacy {
	everyone, ok := FindOverwrite(overwrites, everyoneID, OverwriteRole)
	switch {
	case !ok:
		return PrivacyUnlocked
	case everyone.Deny.Has(PermissionViewChannel):
		return PrivacyInvisible
	case everyone.Deny.Has(PermissionConnect):
		return PrivacyLocked
	default:
		return PrivacyUnlocked
	}
}

// AllowedMembers returns the member targets that are allowed to connect, excluding
// the given IDs.
func AllowedMembers(overwrites []Overwrite, exclude ...snowflake.ID) []snowflake.ID {
	var ids []snowflake.ID
outer:
	for _, o := range overwrites {
		if o.Kind != OverwriteMember || !o.Allow.Has(PermissionConnect) {
			continue
		}
		for _, id := range exclude {
			if o.ID == id {
				continue outer
			}
		}
		ids = append(ids, o.ID)
	}
	return ids
}

func replaceOverwrite(current []Overwrite, entry Overwrite) []Overwrite {
	out := make([]Overwrite, 0, len(current)+1)
	replaced := false
	for _, o := range current {
		if o.ID == entry.ID && o.Kind == entry.Kind {
			out = append(out, entry)
			replaced = true
			continue
		}
		out = append(out, o)
	}
	if !replaced {
		out = append(out, entry)
	}
	return out
}

func removeOverwrite(current []Overwrite, id snowflake.ID, kind OverwriteKind) []Overwrite {
	out := make([]Overwrite, 0, len(current))
	for _, o := range current {
		if o.ID == id && o.Kind == kind {
			continue
		}
		out = append(out, o)
	}
	return out
}
