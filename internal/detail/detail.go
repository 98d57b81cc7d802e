// Package detail loads the event page and runs the actions offered on it:
// joining, leaving, commenting, cancelling and reporting.
package detail

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"teamup/internal/api"
	appLog "teamup/internal/log"
	"teamup/internal/model"
)

// Service is the part of the API the event page needs; *api.Client
// satisfies it.
type Service interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	Comments(ctx context.Context, eventID string) ([]model.Comment, error)
	Participants(ctx context.Context, id string) ([]model.User, error)
	JoinEvent(ctx context.Context, id string) error
	LeaveEvent(ctx context.Context, id string) error
	AddComment(ctx context.Context, eventID, content string) error
	DeleteComment(ctx context.Context, commentID string) error
	CancelEvent(ctx context.Context, id string) error
	ReportEvent(ctx context.Context, id string, r api.ReportRequest) error
}

var (
	ErrLoginRequired     = errors.New("please log in first")
	ErrNotOrganizer      = errors.New("only the organizer can do this")
	ErrNotConfirmed      = errors.New("cancellation must be confirmed")
	ErrCommentNotFound   = errors.New("comment not found")
	ErrCommentForbidden  = errors.New("you cannot delete this comment")
	ErrInvalidReportType = errors.New("invalid report type")
	ErrReasonRequired    = errors.New("please give a reason")
	ErrReasonTooLong     = errors.New("reason is too long (500 characters tops)")
)

// Page is everything the event page shows.
type Page struct {
	Event        *model.Event
	Comments     []model.Comment
	Participants []model.User
	Joined       bool
	Viewer       *model.User
}

// IsOrganizer reports whether the viewer created the event.
func (p *Page) IsOrganizer() bool {
	return p.Event != nil && p.Event.IsOrganizer(p.Viewer)
}

// CanJoin reports whether the join button is enabled.
func (p *Page) CanJoin() bool {
	return p.Viewer != nil && !p.IsOrganizer() && !p.Joined &&
		!p.Event.IsFull() && !p.Event.IsCancelled()
}

// CanReport reports whether the viewer may file a report. Organizers
// cannot report their own events.
func (p *Page) CanReport() bool {
	return p.Viewer != nil && !p.IsOrganizer()
}

// CanDeleteComment reports whether the viewer may delete c: its author,
// the event organizer and admins can.
func (p *Page) CanDeleteComment(c model.Comment) bool {
	if p.Viewer == nil {
		return false
	}
	author := c.UserID
	if author == "" && c.User != nil {
		author = c.User.ID
	}
	return author == p.Viewer.ID || p.IsOrganizer() || p.Viewer.IsAdmin()
}

// Load fetches the event, its comments and, for a signed-in viewer, its
// participants. A participant list that cannot be fetched is shown empty.
func Load(ctx context.Context, svc Service, id string, viewer *model.User) (*Page, error) {
	ev, err := svc.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := svc.Comments(ctx, id)
	if err != nil {
		return nil, err
	}

	p := &Page{
		Event:        ev,
		Comments:     comments,
		Participants: []model.User{},
		Viewer:       viewer,
	}
	if viewer == nil {
		return p, nil
	}

	users, err := svc.Participants(ctx, id)
	if err != nil {
		appLog.Warn("participants unavailable", "event", id, "err", err)
		return p, nil
	}
	p.Participants = users
	for _, u := range users {
		if u.ID != "" && u.ID == viewer.ID {
			p.Joined = true
			break
		}
	}
	return p, nil
}

// formValidator checks every report form. A Validate caches struct
// metadata and is safe for concurrent use.
var formValidator = validator.New(validator.WithRequiredStructEnabled())

// View binds a Service and a viewer to one event page.
type View struct {
	svc      Service
	id       string
	viewer   *model.User
	validate *validator.Validate
}

// NewView returns a View on event id. viewer is nil for anonymous
// visitors.
func NewView(svc Service, id string, viewer *model.User) *View {
	return &View{
		svc:      svc,
		id:       id,
		viewer:   viewer,
		validate: formValidator,
	}
}

// Load fetches the page.
func (v *View) Load(ctx context.Context) (*Page, error) {
	return Load(ctx, v.svc, v.id, v.viewer)
}

// Join registers the viewer and reloads the page. Being already
// registered counts as success.
func (v *View) Join(ctx context.Context) (*Page, error) {
	if v.viewer == nil {
		return nil, ErrLoginRequired
	}
	if err := v.svc.JoinEvent(ctx, v.id); err != nil {
		if !api.IsAlreadyJoined(err) {
			return nil, err
		}
		appLog.Debug("join: already registered", "event", v.id, "user", v.viewer.ID)
	}
	return v.Load(ctx)
}

// Leave unregisters the viewer and reloads the page.
func (v *View) Leave(ctx context.Context) (*Page, error) {
	if v.viewer == nil {
		return nil, ErrLoginRequired
	}
	if err := v.svc.LeaveEvent(ctx, v.id); err != nil {
		return nil, err
	}
	return v.Load(ctx)
}

// AddComment posts content and reloads the page. Blank content is
// ignored.
func (v *View) AddComment(ctx context.Context, content string) (*Page, error) {
	if v.viewer == nil {
		return nil, ErrLoginRequired
	}
	if strings.TrimSpace(content) == "" {
		return v.Load(ctx)
	}
	if err := v.svc.AddComment(ctx, v.id, content); err != nil {
		return nil, err
	}
	return v.Load(ctx)
}

// DeleteComment removes commentID when the viewer is allowed to, then
// reloads the page.
func (v *View) DeleteComment(ctx context.Context, commentID string) (*Page, error) {
	if v.viewer == nil {
		return nil, ErrLoginRequired
	}
	p, err := v.Load(ctx)
	if err != nil {
		return nil, err
	}

	var target *model.Comment
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			target = &p.Comments[i]
			break
		}
	}
	if target == nil {
		return nil, ErrCommentNotFound
	}
	if !p.CanDeleteComment(*target) {
		return nil, ErrCommentForbidden
	}

	if err := v.svc.DeleteComment(ctx, commentID); err != nil {
		return nil, err
	}
	return v.Load(ctx)
}

// Cancel cancels the event. Only the organizer may, and only with
// confirmed set.
func (v *View) Cancel(ctx context.Context, confirmed bool) error {
	if v.viewer == nil {
		return ErrLoginRequired
	}
	ev, err := v.svc.GetEvent(ctx, v.id)
	if err != nil {
		return err
	}
	if !ev.IsOrganizer(v.viewer) {
		return ErrNotOrganizer
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := v.svc.CancelEvent(ctx, v.id); err != nil {
		return err
	}
	appLog.Info("event cancelled", "event", v.id, "user", v.viewer.ID)
	return nil
}

// Report files a moderation report.
func (v *View) Report(ctx context.Context, form ReportForm) error {
	if v.viewer == nil {
		return ErrLoginRequired
	}
	form.Type = strings.ToLower(strings.TrimSpace(form.Type))
	form.Reason = strings.TrimSpace(form.Reason)
	if err := form.check(v.validate); err != nil {
		return err
	}
	if err := v.svc.ReportEvent(ctx, v.id, api.ReportRequest{Type: form.Type, Reason: form.Reason}); err != nil {
		return err
	}
	appLog.Info("event reported", "event", v.id, "type", form.Type)
	return nil
}
