package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"teamup/internal/listing"
	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/session"
	"teamup/internal/tagset"
)

type loginView struct {
	Email string
	Next  string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	next := safeNext(r.URL.Query().Get("next"))
	if sess.IsAuthenticated() {
		redirect(w, r, next)
		return
	}
	s.render(w, r, http.StatusOK, "login", pageData{
		Title: "Log in",
		Page:  loginView{Next: next},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	form := session.LoginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
	}
	next := safeNext(r.FormValue("next"))

	if err := sess.Login(r.Context(), form); err != nil {
		s.render(w, r, formStatus(err), "login", pageData{
			Title: "Log in",
			Error: userMessage(err),
			Page:  loginView{Email: form.Email, Next: next},
		})
		return
	}
	redirect(w, r, next)
}

type registerView struct {
	Form    session.RegisterForm
	Cities  []model.City
	Popular []string
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.IsAuthenticated() {
		redirect(w, r, "/")
		return
	}
	s.render(w, r, http.StatusOK, "register", pageData{
		Title: "Sign up",
		Page: registerView{
			Form:    session.RegisterForm{City: sess.City()},
			Cities:  sess.Cities(r.Context()),
			Popular: tagset.Popular,
		},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	form := session.RegisterForm{
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirmPassword"),
		FirstName:       strings.TrimSpace(r.FormValue("firstName")),
		LastName:        strings.TrimSpace(r.FormValue("lastName")),
		Pseudo:          strings.TrimSpace(r.FormValue("pseudo")),
		City:            r.FormValue("city"),
		BirthYear:       atoi(r.FormValue("birthYear")),
		Interests:       interests(r),
	}

	if err := sess.Register(r.Context(), form); err != nil {
		form.Password, form.ConfirmPassword = "", ""
		s.render(w, r, formStatus(err), "register", pageData{
			Title: "Sign up",
			Error: userMessage(err),
			Page: registerView{
				Form:    form,
				Cities:  sess.Cities(r.Context()),
				Popular: tagset.Popular,
			},
		})
		return
	}
	redirect(w, r, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).Logout()
	redirect(w, r, "/")
}

type profileView struct {
	Form    session.ProfileForm
	Cities  []model.City
	Popular []string
}

func (s *Server) handleProfileForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	u := sess.User()
	if u == nil {
		u = &model.User{}
	}
	s.render(w, r, http.StatusOK, "profile", pageData{
		Title: "My profile",
		Page: profileView{
			Form: session.ProfileForm{
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Pseudo:    u.Pseudo,
				City:      u.City,
				BirthYear: u.BirthYear,
				Interests: strings.Join(u.Interests, ","),
			},
			Cities:  sess.Cities(r.Context()),
			Popular: tagset.Popular,
		},
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if !requireLogin(w, r, sess) {
		return
	}
	form := session.ProfileForm{
		FirstName: strings.TrimSpace(r.FormValue("firstName")),
		LastName:  strings.TrimSpace(r.FormValue("lastName")),
		Pseudo:    strings.TrimSpace(r.FormValue("pseudo")),
		City:      r.FormValue("city"),
		BirthYear: atoi(r.FormValue("birthYear")),
		Interests: interests(r),
	}

	err := sess.UpdateProfile(r.Context(), form)
	if expired(sess, err) {
		redirect(w, r, loginURL("/profile"))
		return
	}
	data := pageData{
		Title: "My profile",
		Page: profileView{
			Form:    form,
			Cities:  sess.Cities(r.Context()),
			Popular: tagset.Popular,
		},
	}
	status := http.StatusOK
	if err != nil {
		status = formStatus(err)
		data.Error = userMessage(err)
	} else {
		data.Notice = "Profile saved."
	}
	s.render(w, r, status, "profile", data)
}

type settingsView struct {
	Cities   []model.City
	Current  string
	Detected string
}

func (s *Server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.render(w, r, http.StatusOK, "settings", pageData{
		Title: "Settings",
		Page: settingsView{
			Cities:   sess.Cities(r.Context()),
			Current:  sess.City(),
			Detected: sess.DetectCity(r.Context(), clientIP(r)),
		},
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	err := sess.SetCity(r.Context(), r.FormValue("city"), parseBool(r.FormValue("preciseLocation")))
	if expired(sess, err) {
		redirect(w, r, loginURL("/settings"))
		return
	}

	data := pageData{
		Title: "Settings",
		Page: settingsView{
			Cities:  sess.Cities(r.Context()),
			Current: sess.City(),
		},
	}
	status := http.StatusOK
	if err != nil {
		status = formStatus(err)
		data.Error = userMessage(err)
	} else {
		data.Notice = "City updated."
	}
	s.render(w, r, status, "settings", data)
}

type locationResponse struct {
	Nearby    bool    `json:"nearby"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// handleLocation stores the browser position reported by the page script.
// clear=1 forgets it.
func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if parseBool(r.FormValue("clear")) {
		sess.ClearPosition()
		writeJSON(w, http.StatusOK, locationResponse{})
		return
	}

	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, http.StatusBadRequest, "invalid latitude")
		return
	}
	lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil || lng < -180 || lng > 180 {
		writeError(w, http.StatusBadRequest, "invalid longitude")
		return
	}

	sess.SetPosition(session.Position{Latitude: lat, Longitude: lng})
	appLog.Debug("position updated", "session", sess.ID())
	writeJSON(w, http.StatusOK, locationResponse{Nearby: true, Latitude: lat, Longitude: lng})
}

type userView struct {
	User   *model.User
	Events []model.Event
	Self   bool
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := r.PathValue("id")
	u, err := sess.Client().GetUser(r.Context(), id)
	if err != nil {
		s.renderError(w, r, statusFor(err), err)
		return
	}
	events, err := listing.ByOrganizer(r.Context(), sess.Client(), u.ID)
	if err != nil {
		appLog.Warn("organizer events unavailable", "user", u.ID, "err", err)
	}

	viewer := sess.User()
	s.render(w, r, http.StatusOK, "user", pageData{
		Title: u.DisplayName(),
		Page: userView{
			User:   u,
			Events: events,
			Self:   viewer != nil && viewer.ID == u.ID,
		},
	})
}

// formStatus is the status of a form page re-rendered with err.
func formStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case unreachable(err):
		return http.StatusBadGateway
	}
	return http.StatusUnprocessableEntity
}

// interests joins the checked popular tags and the free-text field.
func interests(r *http.Request) string {
	_ = r.ParseForm()
	set := tagset.New(r.PostForm["interests"]...)
	for _, t := range tagset.Parse(r.PostForm.Get("customInterests")).Values() {
		_ = set.Add(t)
	}
	return set.String()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
