package domain

import "github.com/disgoorg/snowflake/v2"

// Permissions is a Discord permission bit set.
type Permissions int64

// Permission bits used by voice rooms. Values match the Discord API.
const (
	PermissionViewChannel Permissions = 1 << 10
	PermissionConnect     Permissions = 1 << 20

	// PermissionAccess is what a grant adds and a revoke removes.
	PermissionAccess = PermissionViewChannel | PermissionConnect
)

// Has reports whether all bits of other are set.
func (p Permissions) Has(other Permissions) bool {
	return p&other == other
}

// OverwriteKind is the target type of a permission overwrite.
type OverwriteKind int

const (
	OverwriteRole OverwriteKind = iota
	OverwriteMember
)

// Overwrite is an access-control entry scoped to a role or a member.
type Overwrite struct {
	ID    snowflake.ID
	Kind  OverwriteKind
	Allow Permissions
	Deny  Permissions
}

// IsEmpty reports whether the overwrite carries no information.
func (o Overwrite) IsEmpty() bool {
	return o.Allow == 0 && o.Deny == 0
}

// RoleOverwrite builds a role overwrite.
func RoleOverwrite(id snowflake.ID, allow, deny Permissions) Overwrite {
	return Overwrite{ID: id, Kind: OverwriteRole, Allow: allow, Deny: deny}
}

// MemberOverwrite builds a member overwrite.
func MemberOverwrite(id snowflake.ID, allow, deny Permissions) Overwrite {
	return Overwrite{ID: id, Kind: OverwriteMember, Allow: allow, Deny: deny}
}

// FindOverwrite returns the overwrite for the given target, if present.
func FindOverwrite(overwrites []Overwrite, id snowflake.ID, kind OverwriteKind) (Overwrite, bool) {
	for _, o := range overwrites {
		if o.ID == id && o.Kind == kind {
			return o, true
		}
	}
	return Overwrite{}, false
}

// CloneOverwrites returns a copy of the slice.
func CloneOverwrites(overwrites []Overwrite) []Overwrite {
	if overwrites == nil {
		return nil
	}
	out := make([]Overwrite, len(overwrites))
	copy(out, overwrites)
	return out
}
