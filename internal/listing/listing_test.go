package listing

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup/internal/model"
	"teamup/internal/tagset"
)

type call struct {
	path  string
	query url.Values
}

type fakeSource struct {
	calls  []call
	events []model.Event
	err    error
}

func (f *fakeSource) Events(_ context.Context, path string, q url.Values) ([]model.Event, error) {
	f.calls = append(f.calls, call{path: path, query: q})
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func fixedLocator(p Position) Locator {
	return LocatorFunc(func(context.Context) (Position, error) { return p, nil })
}

func TestClampRadius(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{0, 20},
		{-3, 20},
		{1, 5},
		{5, 5},
		{22, 20},
		{23, 25},
		{50, 50},
		{51, 50},
		{500, 50},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.in), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClampRadius(tt.in))
		})
	}

	assert.Equal(t, DefaultRadius, ParseRadius("wide"))
	assert.Equal(t, 35, ParseRadius(" 35 "))
}

func TestFilterRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		filter    Filter
		wantMode  Mode
		wantPath  string
		wantQuery url.Values
	}{
		{
			name:      "empty",
			filter:    Filter{},
			wantMode:  ModeFilter,
			wantPath:  "/events",
			wantQuery: url.Values{},
		},
		{
			name:      "city and tags",
			filter:    Filter{City: "Nice", Tags: tagset.New("Sport", "yoga")},
			wantMode:  ModeFilter,
			wantPath:  "/events",
			wantQuery: url.Values{"city": {"Nice"}, "tags": {"sport,yoga"}},
		},
		{
			name:      "search",
			filter:    Filter{City: "Paris", Search: " course "},
			wantMode:  ModeSearch,
			wantPath:  "/events/search",
			wantQuery: url.Values{"city": {"Paris"}, "q": {"course"}},
		},
		{
			name:      "blank search",
			filter:    Filter{Search: "   "},
			wantMode:  ModeFilter,
			wantPath:  "/events",
			wantQuery: url.Values{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := tt.filter
			assert.Equal(t, tt.wantMode, f.Mode())
			path, q := f.Request()
			assert.Equal(t, tt.wantPath, path)
			assert.Equal(t, tt.wantQuery, q)
		})
	}
}

func TestToggleProximity(t *testing.T) {
	t.Parallel()

	f := NewFilter("Paris")
	f.Search = "yoga"
	f.Radius = 33

	failing := LocatorFunc(func(context.Context) (Position, error) {
		return Position{}, errors.New("permission denied")
	})
	require.ErrorIs(t, f.ToggleProximity(context.Background(), failing), ErrLocationUnavailable)
	assert.Equal(t, ModeSearch, f.Mode())
	require.ErrorIs(t, f.ToggleProximity(context.Background(), nil), ErrLocationUnavailable)
	assert.False(t, f.Nearby())

	require.NoError(t, f.ToggleProximity(context.Background(), fixedLocator(Position{Latitude: 43.7102, Longitude: 7.262})))
	assert.Equal(t, ModeNearby, f.Mode())

	path, q := f.Request()
	assert.Equal(t, "/events/nearby", path)
	assert.Equal(t, url.Values{
		"latitude":  {"43.7102"},
		"longitude": {"7.262"},
		"radius":    {"35"},
	}, q)

	require.NoError(t, f.ToggleProximity(context.Background(), nil))
	assert.Equal(t, ModeSearch, f.Mode())
	_, ok := f.Position()
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	t.Parallel()

	src := &fakeSource{events: []model.Event{{ID: "1"}}}
	f := NewFilter("Dakar")
	res, err := Load(context.Background(), src, &f)
	require.NoError(t, err)
	assert.False(t, res.Empty())
	assert.Equal(t, ModeFilter, res.Mode)
	require.Len(t, src.calls, 1)
	assert.Equal(t, "Dakar", src.calls[0].query.Get("city"))

	src.err = errors.New("down")
	res, err = Load(context.Background(), src, &f)
	require.Error(t, err)
	assert.True(t, res.Empty())
	assert.NotNil(t, res.Events)
}

func TestFeatured(t *testing.T) {
	t.Parallel()

	many := make([]model.Event, 9)
	for i := range many {
		many[i].ID = strconv.Itoa(i)
	}

	t.Run("nearby", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{events: many}
		events, err := Featured(context.Background(), src, &Position{Latitude: 14.6928, Longitude: -17.4467}, "Paris")
		require.NoError(t, err)
		assert.Len(t, events, FeaturedLimit)
		require.Len(t, src.calls, 1)
		assert.Equal(t, "/events/nearby", src.calls[0].path)
		assert.Equal(t, "20", src.calls[0].query.Get("radius"))
		assert.Equal(t, "-17.4467", src.calls[0].query.Get("longitude"))
	})

	t.Run("saved city", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{events: many[:2]}
		events, err := Featured(context.Background(), src, nil, "grasse")
		require.NoError(t, err)
		assert.Len(t, events, 2)
		require.Len(t, src.calls, 1)
		assert.Equal(t, "/events", src.calls[0].path)
		assert.Equal(t, url.Values{"city": {"Grasse"}, "limit": {"6"}}, src.calls[0].query)
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		src := &fakeSource{err: errors.New("down")}
		events, err := Featured(context.Background(), src, nil, "")
		require.Error(t, err)
		assert.Empty(t, events)
	})
}

func TestByOrganizer(t *testing.T) {
	t.Parallel()

	src := &fakeSource{}
	_, err := ByOrganizer(context.Background(), src, "u-9")
	require.NoError(t, err)
	require.Len(t, src.calls, 1)
	assert.Equal(t, "u-9", src.calls[0].query.Get("organizerId"))
}
