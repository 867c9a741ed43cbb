// Package rights defines the permission ladder a caller must satisfy to
// invoke a command.
package rights

import "strings"

// Level is a single rung of the permission ladder. Levels form a total
// order: Guest < Member < Admin < SuperCmd.
type Level int32

const (
	Guest    Level = 0
	Member   Level = 10
	Admin    Level = 20
	SuperCmd Level = 30
)

// Satisfies reports whether a caller at level have may invoke an operation
// requiring level want. An unknown caller level is treated as Guest.
func Satisfies(have, want Level) bool {
	return have.normalize() >= want.normalize()
}

// normalize clamps out-of-range values down to the nearest defined level.
// Unknown values never gain privilege.
func (l Level) normalize() Level {
	switch {
	case l >= SuperCmd:
		return SuperCmd
	case l >= Admin:
		return Admin
	case l >= Member:
		return Member
	default:
		return Guest
	}
}

// String returns the canonical lower-case name of the level.
func (l Level) String() string {
	switch l.normalize() {
	case SuperCmd:
		return "supercmd"
	case Admin:
		return "admin"
	case Member:
		return "member"
	default:
		return "guest"
	}
}

// Parse maps a level name back to a Level. Unknown names map to Guest.
func Parse(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supercmd":
		return SuperCmd
	case "admin":
		return Admin
	case "member":
		return Member
	default:
		return Guest
	}
}
