package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"teamup/internal/city"
	"teamup/internal/model"
	"teamup/internal/tagset"
)

const (
	DefaultMaxCapacity = 10

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Field names one editable input of the event form.
type Field int

const (
	FieldTitle Field = iota
	FieldDescription
	FieldTags
	FieldStartDate
	FieldStartTime
	FieldEndDate
	FieldEndTime
	FieldCity
	FieldAddress
	FieldMaxCapacity
	FieldMinAge
	FieldMaxAge
	FieldIsPublic
	FieldRequiresApproval
)

var fieldNames = map[string]Field{
	"title":            FieldTitle,
	"description":      FieldDescription,
	"tags":             FieldTags,
	"startDate":        FieldStartDate,
	"startTime":        FieldStartTime,
	"endDate":          FieldEndDate,
	"endTime":          FieldEndTime,
	"city":             FieldCity,
	"address":          FieldAddress,
	"maxCapacity":      FieldMaxCapacity,
	"minAge":           FieldMinAge,
	"maxAge":           FieldMaxAge,
	"isPublic":         FieldIsPublic,
	"requiresApproval": FieldRequiresApproval,
}

// ParseField maps an HTML form input name ("startDate") to its Field.
func ParseField(name string) (Field, bool) {
	f, ok := fieldNames[name]
	return f, ok
}

// Draft is the in-progress, client-side event. Dates and times are kept
// as typed ("2025-06-01", "08:30") until submit.
type Draft struct {
	Title            string
	Description      string
	Tags             tagset.Set
	StartDate        string
	StartTime        string
	EndDate          string
	EndTime          string
	City             string
	Address          string
	MaxCapacity      int
	MinAge           *int
	MaxAge           *int
	IsPublic         bool
	RequiresApproval bool
}

// NewDraft returns an empty draft with the form defaults.
func NewDraft() Draft {
	return Draft{
		MaxCapacity: DefaultMaxCapacity,
		IsPublic:    true,
	}
}

// DraftFromEvent hydrates a draft from a stored event. Timestamps are split
// into date and time strings in loc. A zero minimum age is treated as
// unset.
func DraftFromEvent(ev *model.Event, loc *time.Location) Draft {
	if loc == nil {
		loc = time.UTC
	}
	d := Draft{
		Title:            ev.Title,
		Description:      ev.Description,
		Tags:             tagset.New(ev.Tags...),
		City:             ev.City,
		Address:          ev.Address,
		MaxCapacity:      ev.MaxCapacity,
		MinAge:           copyInt(ev.MinAge),
		MaxAge:           copyInt(ev.MaxAge),
		IsPublic:         ev.IsPublic,
		RequiresApproval: ev.RequiresApproval,
	}
	if c, ok := city.Lookup(ev.City); ok {
		d.City = c.Name
	}
	if d.MinAge != nil && *d.MinAge == 0 {
		d.MinAge = nil
	}
	if t, err := ev.Start(); err == nil {
		t = t.In(loc)
		d.StartDate, d.StartTime = t.Format(dateLayout), t.Format(timeLayout)
	}
	if t, err := ev.End(); err == nil {
		t = t.In(loc)
		d.EndDate, d.EndTime = t.Format(dateLayout), t.Format(timeLayout)
	}
	return d
}

// Clone returns a deep copy.
func (d Draft) Clone() Draft {
	out := d
	out.Tags = tagset.New(d.Tags.Values()...)
	out.MinAge = copyInt(d.MinAge)
	out.MaxAge = copyInt(d.MaxAge)
	return out
}

// Set assigns value to field. Numbers are parsed; an unparsable number
// leaves the field unchanged. An empty age clears it.
func (d *Draft) Set(field Field, value string) error {
	switch field {
	case FieldTitle:
		d.Title = value
	case FieldDescription:
		d.Description = value
	case FieldTags:
		d.Tags = tagset.Parse(value)
	case FieldStartDate:
		d.StartDate = strings.TrimSpace(value)
	case FieldStartTime:
		d.StartTime = strings.TrimSpace(value)
	case FieldEndDate:
		d.EndDate = strings.TrimSpace(value)
	case FieldEndTime:
		d.EndTime = strings.TrimSpace(value)
	case FieldCity:
		d.City = strings.TrimSpace(value)
	case FieldAddress:
		d.Address = value
	case FieldMaxCapacity:
		value = strings.TrimSpace(value)
		if value == "" {
			d.MaxCapacity = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max capacity: %w", err)
		}
		d.MaxCapacity = n
	case FieldMinAge:
		n, err := parseAge(value)
		if err != nil {
			return fmt.Errorf("min age: %w", err)
		}
		d.MinAge = n
	case FieldMaxAge:
		n, err := parseAge(value)
		if err != nil {
			return fmt.Errorf("max age: %w", err)
		}
		d.MaxAge = n
	case FieldIsPublic:
		d.IsPublic = parseCheckbox(value)
	case FieldRequiresApproval:
		d.RequiresApproval = parseCheckbox(value)
	default:
		return fmt.Errorf("unknown field %d", field)
	}
	return nil
}

// Times combines the date and time pairs in loc.
func (d Draft) Times(loc *time.Location) (start, end time.Time, err error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err = time.ParseInLocation(dateLayout+" "+timeLayout, d.StartDate+" "+d.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start date or time")
	}
	end, err = time.ParseInLocation(dateLayout+" "+timeLayout, d.EndDate+" "+d.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end date or time")
	}
	return start, end, nil
}

// Input builds the upsert payload: local times become UTC timestamps and
// the city's coordinates come from the built-in table.
func (d Draft) Input(loc *time.Location) (model.EventInput, error) {
	start, end, err := d.Times(loc)
	if err != nil {
		return model.EventInput{}, err
	}
	if err := checkOrder(start, end); err != nil {
		return model.EventInput{}, err
	}
	c, ok := city.Lookup(d.City)
	if !ok {
		return model.EventInput{}, fmt.Errorf("unsupported city %q", d.City)
	}
	return model.EventInput{
		Title:            strings.TrimSpace(d.Title),
		Description:      strings.TrimSpace(d.Description),
		Tags:             d.Tags.Values(),
		StartDate:        model.FormatTimestamp(start),
		EndDate:          model.FormatTimestamp(end),
		Address:          strings.TrimSpace(d.Address),
		City:             c.Name,
		Latitude:         c.Latitude,
		Longitude:        c.Longitude,
		MaxCapacity:      d.MaxCapacity,
		MinAge:           copyInt(d.MinAge),
		MaxAge:           copyInt(d.MaxAge),
		IsPublic:         d.IsPublic,
		RequiresApproval: d.RequiresApproval,
	}, nil
}

func parseAge(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func parseCheckbox(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
