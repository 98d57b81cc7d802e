// Package listing builds the event list queries: filtering by city, search
// term and tags, or a proximity search around the browser's position.
package listing

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"teamup/internal/city"
	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/tagset"
)

const (
	DefaultRadius = 20
	MinRadius     = 5
	MaxRadius     = 50
	RadiusStep    = 5

	FeaturedLimit = 6
)

// Mode selects which endpoint serves the list.
type Mode int

const (
	ModeFilter Mode = iota
	ModeSearch
	ModeNearby
)

func (m Mode) String() string {
	switch m {
	case ModeSearch:
		return "search"
	case ModeNearby:
		return "nearby"
	}
	return "filter"
}

// ErrLocationUnavailable is shown when proximity mode is requested but the
// browser did not share a position.
var ErrLocationUnavailable = errors.New("unable to get your position, please allow geolocation")

// Position is a latitude/longitude pair in degrees.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Locator reads the user's current position.
type Locator interface {
	Locate(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) Locate(ctx context.Context) (Position, error) { return f(ctx) }

// Source fetches events; *api.Client satisfies it.
type Source interface {
	Events(ctx context.Context, path string, query url.Values) ([]model.Event, error)
}

// Filter is the state of the list page.
type Filter struct {
	City   string
	Search string
	Tags   tagset.Set
	Radius int

	nearby   bool
	position Position
}

// NewFilter returns a filter on city with the default radius.
func NewFilter(cityName string) Filter {
	return Filter{City: cityName, Radius: DefaultRadius}
}

// ClampRadius bounds r to [MinRadius, MaxRadius] and snaps it to the
// nearest RadiusStep. Zero or negative means the default.
func ClampRadius(r int) int {
	if r <= 0 {
		return DefaultRadius
	}
	r = (r + RadiusStep/2) / RadiusStep * RadiusStep
	if r < MinRadius {
		return MinRadius
	}
	if r > MaxRadius {
		return MaxRadius
	}
	return r
}

// ParseRadius reads a radius form value, falling back to the default.
func ParseRadius(s string) int {
	r, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultRadius
	}
	return ClampRadius(r)
}

// Mode reports the active mode. Proximity wins over search, search over
// plain filtering.
func (f *Filter) Mode() Mode {
	switch {
	case f.nearby:
		return ModeNearby
	case strings.TrimSpace(f.Search) != "":
		return ModeSearch
	}
	return ModeFilter
}

// Nearby reports whether proximity mode is on.
func (f *Filter) Nearby() bool { return f.nearby }

// Position is the location used in proximity mode.
func (f *Filter) Position() (Position, bool) {
	return f.position, f.nearby
}

// ToggleProximity switches proximity mode. Turning it on needs a position
// from loc; when that fails the mode is left unchanged and
// ErrLocationUnavailable is returned. Turning it off forgets the position.
func (f *Filter) ToggleProximity(ctx context.Context, loc Locator) error {
	if f.nearby {
		f.nearby = false
		f.position = Position{}
		return nil
	}
	if loc == nil {
		return ErrLocationUnavailable
	}
	p, err := loc.Locate(ctx)
	if err != nil {
		appLog.Debug("location unavailable", "err", err)
		return ErrLocationUnavailable
	}
	f.position = p
	f.nearby = true
	return nil
}

// Request returns the endpoint path and query for the current mode.
func (f *Filter) Request() (string, url.Values) {
	q := url.Values{}
	if f.nearby {
		q.Set("latitude", formatCoord(f.position.Latitude))
		q.Set("longitude", formatCoord(f.position.Longitude))
		q.Set("radius", strconv.Itoa(ClampRadius(f.Radius)))
		return "/events/nearby", q
	}

	if c := strings.TrimSpace(f.City); c != "" {
		q.Set("city", c)
	}
	search := strings.TrimSpace(f.Search)
	if search != "" {
		q.Set("q", search)
	}
	if f.Tags.Len() > 0 {
		q.Set("tags", strings.Join(f.Tags.Values(), ","))
	}
	if search != "" {
		return "/events/search", q
	}
	return "/events", q
}

// Result is one page of the list.
type Result struct {
	Mode   Mode
	Events []model.Event
}

// Empty reports whether the call-to-action should be shown instead of a
// list.
func (r Result) Empty() bool { return len(r.Events) == 0 }

// Load fetches the events for f.
func Load(ctx context.Context, src Source, f *Filter) (Result, error) {
	path, q := f.Request()
	events, err := src.Events(ctx, path, q)
	if err != nil {
		return Result{Mode: f.Mode(), Events: []model.Event{}}, err
	}
	return Result{Mode: f.Mode(), Events: events}, nil
}

// Featured picks the home page events: those within DefaultRadius of pos
// when known, else the upcoming ones in cityName. At most FeaturedLimit
// events are returned.
func Featured(ctx context.Context, src Source, pos *Position, cityName string) ([]model.Event, error) {
	if c, ok := city.Lookup(cityName); ok {
		cityName = c.Name
	}

	var (
		events []model.Event
		err    error
	)
	if pos != nil {
		events, err = src.Events(ctx, "/events/nearby", url.Values{
			"latitude":  {formatCoord(pos.Latitude)},
			"longitude": {formatCoord(pos.Longitude)},
			"radius":    {strconv.Itoa(DefaultRadius)},
		})
	} else {
		q := url.Values{"limit": {strconv.Itoa(FeaturedLimit)}}
		if cityName != "" {
			q.Set("city", cityName)
		}
		events, err = src.Events(ctx, "/events", q)
	}
	if err != nil {
		return []model.Event{}, err
	}
	if len(events) > FeaturedLimit {
		events = events[:FeaturedLimit]
	}
	return events, nil
}

// ByOrganizer lists the events created by userID.
func ByOrganizer(ctx context.Context, src Source, userID string) ([]model.Event, error) {
	return src.Events(ctx, "/events", url.Values{"organizerId": {userID}})
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
