package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"teamup/internal/api"
	"teamup/internal/calendar"
	"teamup/internal/city"
	"teamup/internal/detail"
	"teamup/internal/listing"
	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/session"
	"teamup/internal/tagset"
)

type homeView struct {
	Events []model.Event
	Nearby bool
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	var pos *listing.Position
	if p, ok := sess.Position(); ok {
		pos = &listing.Position{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	events, err := listing.Featured(r.Context(), sess.Client(), pos, sess.City())
	if err != nil {
		appLog.Warn("featured events unavailable", "err", err)
	}

	s.render(w, r, http.StatusOK, "home", pageData{
		Title: "TeamUp",
		Page:  homeView{Events: events, Nearby: pos != nil},
	})
}

type eventsView struct {
	Filter  *listing.Filter
	Result  listing.Result
	Cities  []string
	Popular []string
	Radii   []int
}

// sessionLocator reads the position the page script last posted.
func sessionLocator(sess *session.Session) listing.Locator {
	return listing.LocatorFunc(func(context.Context) (listing.Position, error) {
		p, ok := sess.Position()
		if !ok {
			return listing.Position{}, listing.ErrLocationUnavailable
		}
		return listing.Position{Latitude: p.Latitude, Longitude: p.Longitude}, nil
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	q := r.URL.Query()

	cityName := sess.City()
	if _, ok := q["city"]; ok {
		cityName = q.Get("city")
	}
	f := listing.NewFilter(cityName)
	f.Search = q.Get("q")
	f.Tags = tagset.Parse(strings.Join(q["tags"], ","))
	f.Radius = listing.ParseRadius(q.Get("radius"))

	var alert string
	if q.Get("nearby") == "1" {
		if err := f.ToggleProximity(r.Context(), sessionLocator(sess)); err != nil {
			alert = err.Error()
		}
	}

	res, err := listing.Load(r.Context(), sess.Client(), &f)
	if err != nil {
		appLog.Warn("event list unavailable", "mode", f.Mode().String(), "err", err)
	}

	radii := make([]int, 0, (listing.MaxRadius-listing.MinRadius)/listing.RadiusStep+1)
	for rad := listing.MinRadius; rad <= listing.MaxRadius; rad += listing.RadiusStep {
		radii = append(radii, rad)
	}

	s.render(w, r, http.StatusOK, "events", pageData{
		Title: "Events",
		Error: alert,
		Page: eventsView{
			Filter:  &f,
			Result:  res,
			Cities:  city.Names(),
			Popular: tagset.Popular,
			Radii:   radii,
		},
	})
}

type eventView struct {
	*detail.Page
	GoogleURL     string
	OutlookURL    string
	ReportTypes   []detail.ReportType
	ShowCalendar  bool
	ConfirmCancel bool
}

func (s *Server) eventView(p *detail.Page) eventView {
	v := eventView{Page: p, ReportTypes: detail.ReportTypes, ShowCalendar: p.Joined}
	if v.ShowCalendar {
		var err error
		if v.GoogleURL, err = calendar.GoogleURL(p.Event); err != nil {
			v.ShowCalendar = false
		}
		if v.OutlookURL, err = calendar.OutlookURL(p.Event); err != nil {
			v.ShowCalendar = false
		}
	}
	return v
}

func (s *Server) view(r *http.Request) (*session.Session, *detail.View) {
	sess := sessionFrom(r)
	return sess, detail.NewView(sess.Client(), r.PathValue("id"), sess.User())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	_, v := s.view(r)
	p, err := v.Load(r.Context())
	if err != nil {
		s.renderError(w, r, statusFor(err), err)
		return
	}
	s.renderEvent(w, r, http.StatusOK, p, "")
}

func (s *Server) renderEvent(w http.ResponseWriter, r *http.Request, status int, p *detail.Page, msg string) {
	s.render(w, r, status, "event", pageData{
		Title: p.Event.Title,
		Error: msg,
		Page:  s.eventView(p),
	})
}

// afterAction finishes a POST on the event page: redirect back on
// success, otherwise show the page again with the error.
func (s *Server) afterAction(w http.ResponseWriter, r *http.Request, sess *session.Session, v *detail.View, err error) {
	id := r.PathValue("id")
	if err == nil {
		redirect(w, r, eventPath(id))
		return
	}
	if errors.Is(err, detail.ErrLoginRequired) || expired(sess, err) {
		redirect(w, r, loginURL(eventPath(id)))
		return
	}
	p, lerr := v.Load(r.Context())
	if lerr != nil {
		s.renderError(w, r, statusFor(lerr), lerr)
		return
	}
	s.renderEvent(w, r, statusFor(err), p, userMessage(err))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sess, v := s.view(r)
	_, err := v.Join(r.Context())
	s.afterAction(w, r, sess, v, err)
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	sess, v := s.view(r)
	_, err := v.Leave(r.Context())
	s.afterAction(w, r, sess, v, err)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	sess, v := s.view(r)
	_, err := v.AddComment(r.Context(), r.FormValue("content"))
	s.afterAction(w, r, sess, v, err)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	eventID := r.FormValue("eventId")
	if eventID == "" {
		s.renderError(w, r, http.StatusBadRequest, errors.New("missing event"))
		return
	}
	v := detail.NewView(sess.Client(), eventID, sess.User())
	_, err := v.DeleteComment(r.Context(), r.PathValue("id"))
	if err == nil {
		redirect(w, r, eventPath(eventID))
		return
	}
	if errors.Is(err, detail.ErrLoginRequired) || expired(sess, err) {
		redirect(w, r, loginURL(eventPath(eventID)))
		return
	}
	p, lerr := v.Load(r.Context())
	if lerr != nil {
		s.renderError(w, r, statusFor(lerr), lerr)
		return
	}
	s.renderEvent(w, r, statusFor(err), p, userMessage(err))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, v := s.view(r)
	err := v.Cancel(r.Context(), r.FormValue("confirm") == "yes")
	if err == nil {
		redirect(w, r, "/events")
		return
	}
	if errors.Is(err, detail.ErrNotConfirmed) {
		p, lerr := v.Load(r.Context())
		if lerr != nil {
			s.renderError(w, r, statusFor(lerr), lerr)
			return
		}
		view := s.eventView(p)
		view.ConfirmCancel = true
		s.render(w, r, http.StatusOK, "event", pageData{Title: p.Event.Title, Page: view})
		return
	}
	s.afterAction(w, r, sess, v, err)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, v := s.view(r)
	err := v.Report(r.Context(), detail.ReportForm{
		Type:   r.FormValue("type"),
		Reason: r.FormValue("reason"),
	})
	if err != nil {
		s.afterAction(w, r, sess, v, err)
		return
	}
	p, lerr := v.Load(r.Context())
	if lerr != nil {
		redirect(w, r, eventPath(r.PathValue("id")))
		return
	}
	s.render(w, r, http.StatusOK, "event", pageData{
		Title:  p.Event.Title,
		Notice: "Report sent. Thank you for your help.",
		Page:   s.eventView(p),
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	ev, err := sess.Client().GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.renderError(w, r, statusFor(err), err)
		return
	}
	body, err := calendar.ICS(ev, time.Now())
	if err != nil {
		appLog.Error("ics export failed", err, "event", ev.ID)
		s.renderError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	name := calendar.Filename(ev)
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// statusFor maps an action error to the status of the page showing it.
func statusFor(err error) int {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 {
		return apiErr.Status
	}
	switch {
	case errors.Is(err, detail.ErrNotOrganizer), errors.Is(err, detail.ErrCommentForbidden):
		return http.StatusForbidden
	case errors.Is(err, detail.ErrCommentNotFound):
		return http.StatusNotFound
	case unreachable(err):
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}
