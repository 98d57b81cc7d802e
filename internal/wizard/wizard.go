// Package wizard drives the three-step event form used both to create an
// event and to edit one: basics (title, description, tags), schedule
// (dates, city, address) and settings (capacity, ages, visibility).
//
// A Wizard is not safe for concurrent use; callers serialize access.
package wizard

import (
	"context"
	"errors"
	"time"

	appLog "teamup/internal/log"
	"teamup/internal/model"
)

// Backend persists a finished draft.
type Backend interface {
	CreateEvent(ctx context.Context, in model.EventInput) (string, error)
	UpdateEvent(ctx context.Context, id string, in model.EventInput) error
}

// Loader fetches the event being edited.
type Loader interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
}

var (
	ErrSubmitted   = errors.New("draft already submitted")
	ErrNotLastStep = errors.New("complete every step before submitting")
)

// Wizard holds a Draft, the current step and the last error shown.
type Wizard struct {
	eventID string
	loc     *time.Location

	step  Step
	draft Draft
	err   error
	done  bool
}

// New starts a create wizard. Times entered in the form are read in loc.
func New(loc *time.Location) *Wizard {
	if loc == nil {
		loc = time.UTC
	}
	return &Wizard{
		loc:   loc,
		step:  StepBasics,
		draft: NewDraft(),
	}
}

// NewEdit loads event id and starts an edit wizard on it.
func NewEdit(ctx context.Context, l Loader, id string, loc *time.Location) (*Wizard, error) {
	ev, err := l.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromEvent(ev, loc), nil
}

// FromEvent starts an edit wizard on ev.
func FromEvent(ev *model.Event, loc *time.Location) *Wizard {
	w := New(loc)
	w.eventID = ev.ID
	w.draft = DraftFromEvent(ev, w.loc)
	return w
}

// EventID is the id of the edited event, "" when creating.
func (w *Wizard) EventID() string { return w.eventID }

// IsEdit reports whether the wizard edits an existing event.
func (w *Wizard) IsEdit() bool { return w.eventID != "" }

func (w *Wizard) Step() Step { return w.step }

// Draft returns a copy of the draft.
func (w *Wizard) Draft() Draft { return w.draft.Clone() }

// Err is the error currently shown on the form, or nil.
func (w *Wizard) Err() error { return w.err }

// Done reports whether the draft has been submitted successfully.
func (w *Wizard) Done() bool { return w.done }

// UpdateField sets one draft field. It never validates and leaves the
// shown error alone.
func (w *Wizard) UpdateField(field Field, value string) error {
	return w.draft.Set(field, value)
}

// AddTag appends a tag; see tagset.Set.Add for the rules.
func (w *Wizard) AddTag(tag string) error {
	return w.draft.Tags.Add(tag)
}

func (w *Wizard) RemoveTag(tag string) {
	w.draft.Tags.Remove(tag)
}

// ToggleTag adds tag when absent and removes it when present.
func (w *Wizard) ToggleTag(tag string) error {
	return w.draft.Tags.Toggle(tag)
}

// ValidateStep validates step and records the outcome as the shown error.
func (w *Wizard) ValidateStep(step Step) error {
	w.err = ValidateIn(w.draft, step, w.loc)
	return w.err
}

// Advance moves to the next step when the current one is valid. On
// failure the step does not change and the error is returned and shown.
func (w *Wizard) Advance() error {
	if err := w.ValidateStep(w.step); err != nil {
		return err
	}
	if w.step < StepSettings {
		w.step++
	}
	return nil
}

// Retreat moves back one step, never below the first, and clears the
// shown error.
func (w *Wizard) Retreat() {
	if w.step > StepBasics {
		w.step--
	}
	w.err = nil
}

// Submit validates the whole draft and sends it to b. It is only allowed
// from the settings step. A draft that fails
// validation sends the wizard back to the offending step. On success the
// event id is returned and the draft is discarded; on failure the draft is
// kept and the API message is shown as is.
func (w *Wizard) Submit(ctx context.Context, b Backend) (string, error) {
	if w.done {
		return "", ErrSubmitted
	}
	if w.step != StepSettings {
		w.err = ErrNotLastStep
		return "", ErrNotLastStep
	}

	if err := ValidateAll(w.draft, w.loc); err != nil {
		w.reject(err)
		return "", err
	}

	in, err := w.draft.Input(w.loc)
	if err != nil {
		w.reject(err)
		return "", err
	}

	id := w.eventID
	if id == "" {
		id, err = b.CreateEvent(ctx, in)
	} else {
		err = b.UpdateEvent(ctx, id, in)
	}
	if err != nil {
		appLog.Error("event submit failed", err, "event", w.eventID, "title", in.Title)
		w.err = err
		return "", err
	}

	appLog.Info("event submitted", "event", id, "edit", w.IsEdit())
	w.draft = NewDraft()
	w.step = StepBasics
	w.err = nil
	w.done = true
	return id, nil
}

// reject shows err and, for a validation error, moves back to its step.
func (w *Wizard) reject(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		w.step = ve.Step
	}
	w.err = err
}
