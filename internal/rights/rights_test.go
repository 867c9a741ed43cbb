package rights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSatisfies(t *testing.T) {
	tests := []struct {
		name string
		have Level
		want Level
		ok   bool
	}{
		{"GuestCannotUseMemberCommand", Guest, Member, false},
		{"MemberSatisfiesMember", Member, Member, true},
		{"MemberCannotUseAdminCommand", Member, Admin, false},
		{"AdminSatisfiesMember", Admin, Member, true},
		{"SuperCmdSatisfiesEverything", SuperCmd, SuperCmd, true},
		{"AdminCannotUseSuperCmd", Admin, SuperCmd, false},
		{"EveryoneSatisfiesGuest", Guest, Guest, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, Satisfies(tt.have, tt.want))
		})
	}
}

func TestSatisfiesUnknownLevels(t *testing.T) {
	// Uninitialized or corrupted levels must degrade to Guest, never escalate.
	assert.False(t, Satisfies(Level(-5), Member))
	assert.True(t, Satisfies(Level(-5), Guest))
	// An out-of-range high value clamps to SuperCmd, which is a defined level,
	// but intermediate garbage clamps down.
	assert.False(t, Satisfies(Level(15), Admin))
	assert.True(t, Satisfies(Level(15), Member))
}

func TestParseRoundTrip(t *testing.T) {
	for _, l := range []Level{Guest, Member, Admin, SuperCmd} {
		assert.Equal(t, l, Parse(l.String()))
	}
	assert.Equal(t, Guest, Parse("no-such-level"))
	assert.Equal(t, Admin, Parse("  ADMIN "))
}
