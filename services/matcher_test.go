package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dosada05/bracket-role-sync/models"
)

func TestMatchMember(t *testing.T) {
	members := []models.Member{
		{ID: "m1", Username: "foo", Tag: "foo", DisplayName: "Foo Fighter"},
		{ID: "m2", Username: "someone", Tag: "someone#1234", DisplayName: "TSM | Bar"},
		{ID: "m3", Username: "linked", Tag: "linked", DisplayName: "Nothing Alike"},
		{ID: "m4", Username: "dup", Tag: "dup", DisplayName: "Twin"},
		{ID: "m5", Username: "dup2", Tag: "dup2", DisplayName: "TWIN"},
	}

	tests := []struct {
		name        string
		participant models.Participant
		wantID      string
	}{
		{
			name:        "bare handle against username, case insensitive",
			participant: models.Participant{Handle: "FOO"},
			wantID:      "m1",
		},
		{
			name:        "full handle against display name",
			participant: models.Participant{Handle: "bar", Prefix: "tsm"},
			wantID:      "m2",
		},
		{
			name:        "linked tag wins over a name that matches another member",
			participant: models.Participant{Handle: "foo", LinkedAccountTag: "linked"},
			wantID:      "m3",
		},
		{
			name:        "legacy linked tag with discriminator",
			participant: models.Participant{Handle: "x", LinkedAccountTag: "someone#1234"},
			wantID:      "m2",
		},
		{
			name:        "new-style linked tag with #0 suffix",
			participant: models.Participant{Handle: "x", LinkedAccountTag: "linked#0"},
			wantID:      "m3",
		},
		{
			name:        "linked tag is case sensitive and falls back to name",
			participant: models.Participant{Handle: "foo", LinkedAccountTag: "LINKED"},
			wantID:      "m1",
		},
		{
			name:        "first member in list order wins on ambiguity",
			participant: models.Participant{Handle: "twin"},
			wantID:      "m4",
		},
		{
			name:        "no match",
			participant: models.Participant{Handle: "ghost"},
		},
		{
			name:        "empty handle never matches by name",
			participant: models.Participant{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchMember(members, tt.participant)
			if tt.wantID == "" {
				assert.Nil(t, got)
				return
			}
			if assert.NotNil(t, got) {
				assert.Equal(t, tt.wantID, got.ID)
			}
		})
	}
}

func TestMatchMemberReturnsElementOfSlice(t *testing.T) {
	members := []models.Member{{ID: "m1", Username: "foo"}}
	got := MatchMember(members, models.Participant{Handle: "foo"})
	assert.Same(t, &members[0], got)
}
