package city

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		lat, lng float64
		ok       bool
	}{
		{name: "Paris", lat: 48.8566, lng: 2.3522, ok: true},
		{name: " dakar ", lat: 14.6928, lng: -17.4467, ok: true},
		{name: "Nice", lat: 43.7102, lng: 7.2620, ok: true},
		{name: "GRASSE", lat: 43.6584, lng: 6.9222, ok: true},
		{name: "Lyon"},
		{name: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, ok := Lookup(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.lat, c.Latitude, 1e-9)
			assert.InDelta(t, tt.lng, c.Longitude, 1e-9)
		})
	}
}

func TestAllAndNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Paris", "Dakar", "Nice", "Grasse"}, Names())

	all := All()
	all[0].Name = "changed"
	assert.Equal(t, "Paris", All()[0].Name)
}
