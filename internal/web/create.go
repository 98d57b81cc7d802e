package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"teamup/internal/city"
	"teamup/internal/detail"
	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/session"
	"teamup/internal/tagset"
	"teamup/internal/wizard"
)

// textFields are the wizard inputs copied from every posted form, in the
// order their errors are reported.
var textFields = []string{
	"title", "description",
	"startDate", "startTime", "endDate", "endTime", "city", "address",
	"maxCapacity", "minAge", "maxAge",
}

type wizardView struct {
	Step      wizard.Step
	Steps     []wizard.Step
	Draft     wizard.Draft
	Edit      bool
	EventID   string
	Action    string
	Cities    []string
	Popular   []string
	MaxTagLen int
}

func (s *Server) renderWizard(w http.ResponseWriter, r *http.Request, status int, wiz *wizard.Wizard, action, msg string) {
	title := "Create an event"
	if wiz.IsEdit() {
		title = "Edit event"
	}
	s.render(w, r, status, "wizard", pageData{
		Title: title,
		Error: msg,
		Page: wizardView{
			Step:      wiz.Step(),
			Steps:     []wizard.Step{wizard.StepBasics, wizard.StepSchedule, wizard.StepSettings},
			Draft:     wiz.Draft(),
			Edit:      wiz.IsEdit(),
			EventID:   wiz.EventID(),
			Action:    action,
			Cities:    city.Names(),
			Popular:   tagset.Popular,
			MaxTagLen: tagset.MaxLen,
		},
	})
}

// organizerLoader refuses to open an edit wizard for somebody else's
// event.
type organizerLoader struct {
	src  wizard.Loader
	user *model.User
}

func (l organizerLoader) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	ev, err := l.src.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ev.IsOrganizer(l.user) {
		return nil, detail.ErrNotOrganizer
	}
	return ev, nil
}

func (s *Server) newWizard(sess *session.Session) func() (*wizard.Wizard, error) {
	return func() (*wizard.Wizard, error) {
		wiz := wizard.New(s.loc)
		if c := sess.City(); c != "" {
			_ = wiz.UpdateField(wizard.FieldCity, c)
		}
		return wiz, nil
	}
}

func (s *Server) editWizard(ctx context.Context, sess *session.Session, id string) func() (*wizard.Wizard, error) {
	return func() (*wizard.Wizard, error) {
		return wizard.NewEdit(ctx, organizerLoader{src: sess.Client(), user: sess.User()}, id, s.loc)
	}
}

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	dr, err := s.drafts.get(draftKey(sess.ID(), "new"), s.newWizard(sess))
	if err != nil {
		s.renderError(w, r, http.StatusInternalServerError, err)
		return
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()
	s.renderWizard(w, r, http.StatusOK, dr.wiz, "/create", userMessage(dr.wiz.Err()))
}

func (s *Server) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	s.wizardStep(w, r, sess, draftKey(sess.ID(), "new"), "/create", s.newWizard(sess))
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	id := r.PathValue("id")
	dr, err := s.drafts.get(draftKey(sess.ID(), "edit:"+id), s.editWizard(r.Context(), sess, id))
	if err != nil {
		if expired(sess, err) {
			redirect(w, r, loginURL(r.URL.RequestURI()))
			return
		}
		s.renderError(w, r, statusFor(err), err)
		return
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()
	s.renderWizard(w, r, http.StatusOK, dr.wiz, eventPath(id)+"/edit", userMessage(dr.wiz.Err()))
}

func (s *Server) handleEditStep(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	id := r.PathValue("id")
	s.wizardStep(w, r, sess, draftKey(sess.ID(), "edit:"+id), eventPath(id)+"/edit", s.editWizard(r.Context(), sess, id))
}

// wizardStep applies one posted form to the draft under key, then runs the
// requested action: next, back, submit, discard, addtag, toggle:<tag> or
// remove:<tag>.
func (s *Server) wizardStep(w http.ResponseWriter, r *http.Request, sess *session.Session, key, formAction string, create func() (*wizard.Wizard, error)) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, err)
		return
	}

	dr, err := s.drafts.get(key, create)
	if err != nil {
		if expired(sess, err) {
			redirect(w, r, loginURL(formAction))
			return
		}
		s.renderError(w, r, statusFor(err), err)
		return
	}

	dr.mu.Lock()
	defer dr.mu.Unlock()

	wiz := dr.wiz
	if wiz.Done() {
		// A concurrent submit of the same draft already went through.
		redirect(w, r, "/events")
		return
	}

	actionErr := applyForm(wiz, r.PostForm)

	action := r.PostForm.Get("action")
	switch {
	case action == "next":
		if actionErr == nil {
			actionErr = wiz.Advance()
		}
	case action == "back":
		wiz.Retreat()
	case action == "discard":
		s.drafts.remove(key, dr)
		if wiz.IsEdit() {
			redirect(w, r, eventPath(wiz.EventID()))
			return
		}
		redirect(w, r, "/events")
		return
	case action == "addtag":
		if err := wiz.AddTag(r.PostForm.Get("customTag")); err != nil && actionErr == nil {
			actionErr = err
		}
	case strings.HasPrefix(action, "toggle:"):
		if err := wiz.ToggleTag(strings.TrimPrefix(action, "toggle:")); err != nil && actionErr == nil {
			actionErr = err
		}
	case strings.HasPrefix(action, "remove:"):
		wiz.RemoveTag(strings.TrimPrefix(action, "remove:"))
	case action == "submit":
		if actionErr != nil {
			break
		}
		id, err := wiz.Submit(r.Context(), sess.Client())
		if err == nil {
			s.drafts.remove(key, dr)
			redirect(w, r, eventPath(id))
			return
		}
		if expired(sess, err) {
			redirect(w, r, loginURL(formAction))
			return
		}
		actionErr = err
	}

	status := http.StatusOK
	msg := userMessage(actionErr)
	if actionErr != nil {
		status = http.StatusUnprocessableEntity
		if !isFormError(actionErr) {
			status = statusFor(actionErr)
		}
	} else if action != "back" && wiz.Err() != nil {
		msg = userMessage(wiz.Err())
	}
	if actionErr != nil {
		appLog.Debug("wizard action rejected", "action", action, "step", wiz.Step().String(), "err", actionErr)
	}
	s.renderWizard(w, r, status, wiz, formAction, msg)
}

// applyForm copies the posted inputs into the draft. Checkboxes are only
// read from the settings step, where an unchecked box is absent.
func applyForm(wiz *wizard.Wizard, form url.Values) error {
	var first error
	for _, name := range textFields {
		if _, ok := form[name]; !ok {
			continue
		}
		f, _ := wizard.ParseField(name)
		if err := wiz.UpdateField(f, form.Get(name)); err != nil && first == nil {
			first = err
		}
	}
	if form.Get("_step") == "3" {
		_ = wiz.UpdateField(wizard.FieldIsPublic, form.Get("isPublic"))
		_ = wiz.UpdateField(wizard.FieldRequiresApproval, form.Get("requiresApproval"))
	}
	return first
}

// isFormError reports whether err is about what the user typed rather than
// a failed API call.
func isFormError(err error) bool {
	var ve *wizard.ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, wizard.ErrNotLastStep) ||
		errors.Is(err, tagset.ErrEmpty) ||
		errors.Is(err, tagset.ErrTooLong) ||
		errors.Is(err, tagset.ErrDuplicate)
}
