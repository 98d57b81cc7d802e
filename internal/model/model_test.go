package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamps(t *testing.T) {
	t.Parallel()

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	local := time.Date(2025, time.June, 1, 10, 30, 0, 0, paris)
	assert.Equal(t, "2025-06-01T08:30:00.000Z", FormatTimestamp(local))

	parsed, err := ParseTimestamp("2025-06-01T08:30:00.000Z")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(local))

	parsed, err = ParseTimestamp("2025-06-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(local))

	_, err = ParseTimestamp("2025-06-01")
	require.Error(t, err)
}

func TestUser_Names(t *testing.T) {
	t.Parallel()

	var nilUser *User
	assert.Empty(t, nilUser.DisplayName())
	assert.False(t, nilUser.IsAdmin())

	u := &User{FirstName: "Awa", LastName: "Diop"}
	assert.Equal(t, "Awa Diop", u.DisplayName())

	u.Pseudo = "awa"
	assert.Equal(t, "awa", u.DisplayName())
	assert.Equal(t, "Awa Diop", u.FullName())

	assert.Equal(t, "Diop", (&User{LastName: "Diop"}).FullName())
}

func TestEvent_Helpers(t *testing.T) {
	t.Parallel()

	e := &Event{OrganizerID: "u1", MaxCapacity: 2, ParticipantCount: 2, Status: StatusCancelled}
	assert.True(t, e.IsFull())
	assert.True(t, e.IsCancelled())
	assert.True(t, e.IsOrganizer(&User{ID: "u1"}))
	assert.False(t, e.IsOrganizer(&User{ID: "u2"}))
	assert.False(t, e.IsOrganizer(nil))
	assert.False(t, (&Event{}).IsOrganizer(&User{}))
	assert.True(t, (&Event{Organizer: &User{ID: "u3"}}).IsOrganizer(&User{ID: "u3"}))
}
