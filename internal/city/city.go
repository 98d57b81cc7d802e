// Package city holds the fixed table of cities the event form offers,
// with the coordinates attached to events created there.
//
// The table must stay in sync with the city selector; the API is not
// consulted when resolving coordinates for a new event.
package city

import (
	"strings"

	"teamup/internal/model"
)

var table = []model.City{
	{Name: "Paris", Country: "France", Latitude: 48.8566, Longitude: 2.3522, Radius: 10},
	{Name: "Dakar", Country: "Sénégal", Latitude: 14.6928, Longitude: -17.4467, Radius: 10},
	{Name: "Nice", Country: "France", Latitude: 43.7102, Longitude: 7.2620, Radius: 20},
	{Name: "Grasse", Country: "France", Latitude: 43.6584, Longitude: 6.9222, Radius: 20},
}

// All returns the supported cities in selector order.
func All() []model.City {
	out := make([]model.City, len(table))
	copy(out, table)
	return out
}

// Names returns the supported city names in selector order.
func Names() []string {
	out := make([]string, 0, len(table))
	for _, c := range table {
		out = append(out, c.Name)
	}
	return out
}

// Lookup finds a city by name, ignoring case and surrounding spaces.
func Lookup(name string) (model.City, bool) {
	name = strings.TrimSpace(name)
	for _, c := range table {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.City{}, false
}
