package wizard

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"teamup/internal/city"
)

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 1000
	MinCapacity       = 2
)

// Step is a page of the event form.
type Step int

const (
	StepBasics Step = iota + 1
	StepSchedule
	StepSettings
)

func (s Step) String() string {
	switch s {
	case StepBasics:
		return "basics"
	case StepSchedule:
		return "schedule"
	case StepSettings:
		return "settings"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is one of the three steps.
func (s Step) Valid() bool {
	return s >= StepBasics && s <= StepSettings
}

// ValidationError is a user-facing message tied to the step that must be
// fixed.
type ValidationError struct {
	Step    Step
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(step Step, format string, args ...any) *ValidationError {
	return &ValidationError{Step: step, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the fields owned by step and returns the first problem,
// or nil. Dates and times are read as UTC. It has no side effects.
func Validate(d Draft, step Step) error {
	return ValidateIn(d, step, time.UTC)
}

// ValidateIn is Validate with dates and times read in loc, the zone the
// payload is built in. A wall-clock time skipped by a DST change is moved
// forward the way the payload moves it.
func ValidateIn(d Draft, step Step, loc *time.Location) error {
	switch step {
	case StepBasics:
		return validateBasics(d)
	case StepSchedule:
		return validateSchedule(d, loc)
	case StepSettings:
		return validateSettings(d)
	}
	return invalid(step, "unknown step %d", int(step))
}

// ValidateAll runs every step in order, in loc, and returns the first
// failure.
func ValidateAll(d Draft, loc *time.Location) error {
	for step := StepBasics; step <= StepSettings; step++ {
		if err := ValidateIn(d, step, loc); err != nil {
			return err
		}
	}
	return nil
}

func validateBasics(d Draft) error {
	switch {
	case strings.TrimSpace(d.Title) == "":
		return invalid(StepBasics, "title is required")
	case strings.TrimSpace(d.Description) == "":
		return invalid(StepBasics, "description is required")
	case d.Tags.Len() == 0:
		return invalid(StepBasics, "select at least one tag")
	case utf8.RuneCountInString(strings.TrimSpace(d.Title)) > MaxTitleLen:
		return invalid(StepBasics, "title must be at most %d characters", MaxTitleLen)
	case utf8.RuneCountInString(strings.TrimSpace(d.Description)) > MaxDescriptionLen:
		return invalid(StepBasics, "description must be at most %d characters", MaxDescriptionLen)
	}
	return nil
}

func validateSchedule(d Draft, loc *time.Location) error {
	switch {
	case d.StartDate == "" || d.StartTime == "":
		return invalid(StepSchedule, "start date and time are required")
	case d.EndDate == "" || d.EndTime == "":
		return invalid(StepSchedule, "end date and time are required")
	case strings.TrimSpace(d.City) == "":
		return invalid(StepSchedule, "city is required")
	case strings.TrimSpace(d.Address) == "":
		return invalid(StepSchedule, "address is required")
	}
	if _, ok := city.Lookup(d.City); !ok {
		return invalid(StepSchedule, "%s is not a supported city", d.City)
	}

	start, end, err := d.Times(loc)
	if err != nil {
		return invalid(StepSchedule, "%s", err.Error())
	}
	return checkOrder(start, end)
}

func checkOrder(start, end time.Time) error {
	if !end.After(start) {
		return invalid(StepSchedule, "end must be after start")
	}
	return nil
}

func validateSettings(d Draft) error {
	if d.MaxCapacity < MinCapacity {
		return invalid(StepSettings, "capacity must be at least %d people", MinCapacity)
	}
	if d.MinAge != nil && d.MaxAge != nil && *d.MinAge > *d.MaxAge {
		return invalid(StepSettings, "minimum age cannot exceed maximum age")
	}
	return nil
}
