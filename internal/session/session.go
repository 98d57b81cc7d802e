package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"teamup/internal/api"
	"teamup/internal/city"
	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/tagset"
)

// Position is a browser-reported location.
type Position struct {
	Latitude  float64
	Longitude float64
}

// Session is the authentication context of one browser. It is safe for
// concurrent use.
type Session struct {
	id     string
	store  *Store
	client *api.Client

	mu       sync.Mutex
	user     *model.User
	token    string
	city     string
	position *Position
	touched  time.Time
}

// ID is the cookie value identifying the session.
func (s *Session) ID() string { return s.id }

// Client returns the API client bound to this session's token.
func (s *Session) Client() *api.Client { return s.client }

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.Interests = append([]string(nil), s.user.Interests...)
	return &u
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// City is the preferred city: the one chosen explicitly, else the signed-in
// user's home city.
func (s *Session) City() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.city != "" {
		return s.city
	}
	if s.user != nil {
		return s.user.City
	}
	return ""
}

// Position returns the last location reported by the browser.
func (s *Session) Position() (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.position == nil {
		return Position{}, false
	}
	return *s.position, true
}

// SetPosition remembers a browser location. It is not persisted.
func (s *Session) SetPosition(p Position) {
	s.mu.Lock()
	s.position = &p
	s.mu.Unlock()
}

// ClearPosition forgets the browser location.
func (s *Session) ClearPosition() {
	s.mu.Lock()
	s.position = nil
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.touched = now
	s.mu.Unlock()
}

func (s *Session) lastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

func (s *Session) keep() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" || s.city != ""
}

func (s *Session) record() record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return record{
		ID:      s.id,
		Token:   s.token,
		User:    s.user,
		City:    s.city,
		Touched: s.touched,
	}
}

func (s *Session) signIn(res api.AuthResult) {
	s.mu.Lock()
	s.token = res.Token
	s.user = res.User
	if s.city == "" && res.User != nil {
		s.city = res.User.City
	}
	s.mu.Unlock()
	s.client.SetToken(res.Token)
}

// Login validates the form and exchanges the credentials for a token.
func (s *Session) Login(ctx context.Context, form LoginForm) error {
	if err := checkForm(s.store.validate, form); err != nil {
		return err
	}

	res, err := s.client.Login(ctx, form.Email, form.Password)
	if err != nil {
		return err
	}
	s.signIn(res)
	_ = s.store.save()

	appLog.Info("user signed in", "session", s.id, "user", userID(res.User))
	return nil
}

// Register validates the sign-up form, creates the account and signs it
// in.
func (s *Session) Register(ctx context.Context, form RegisterForm) error {
	if err := checkForm(s.store.validate, form); err != nil {
		return err
	}
	c, _ := city.Lookup(form.City)

	res, err := s.client.Register(ctx, api.RegisterRequest{
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Pseudo:    form.Pseudo,
		City:      c.Name,
		BirthYear: form.BirthYear,
		Interests: tagset.Parse(form.Interests).Values(),
	})
	if err != nil {
		return err
	}
	s.signIn(res)
	_ = s.store.save()

	appLog.Info("user registered", "session", s.id, "user", userID(res.User))
	return nil
}

// Logout drops the token and user. The preferred city survives.
func (s *Session) Logout() {
	s.mu.Lock()
	wasSignedIn := s.token != ""
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.client.ClearToken()

	if wasSignedIn {
		_ = s.store.save()
		appLog.Info("user signed out", "session", s.id)
	}
}

// UpdateProfile saves the profile form through PUT /auth/profile.
func (s *Session) UpdateProfile(ctx context.Context, form ProfileForm) error {
	if !s.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	if err := checkForm(s.store.validate, form); err != nil {
		return err
	}
	c, _ := city.Lookup(form.City)

	req := api.ProfileRequest{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Pseudo:    form.Pseudo,
		City:      c.Name,
		BirthYear: form.BirthYear,
		Interests: tagset.Parse(form.Interests).Values(),
	}
	updated, err := s.client.UpdateProfile(ctx, req)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	s.mu.Lock()
	if updated == nil {
		u := model.User{}
		if s.user != nil {
			u = *s.user
		}
		u.FirstName = req.FirstName
		u.LastName = req.LastName
		u.Pseudo = req.Pseudo
		u.City = req.City
		u.BirthYear = req.BirthYear
		u.Interests = req.Interests
		updated = &u
	}
	s.user = updated
	s.city = updated.City
	s.mu.Unlock()

	_ = s.store.save()
	return nil
}

// SetCity changes the preferred city. Signed-in users also get it stored
// server side.
func (s *Session) SetCity(ctx context.Context, name string, precise bool) error {
	c, ok := city.Lookup(name)
	if !ok {
		return ErrCityUnsupported
	}

	if s.IsAuthenticated() {
		err := s.client.SetCity(ctx, api.SetCityRequest{
			CityName:              c.Name,
			Latitude:              c.Latitude,
			Longitude:             c.Longitude,
			EnablePreciseLocation: precise,
		})
		if err != nil {
			return fmt.Errorf("set city: %w", err)
		}
	}

	s.mu.Lock()
	s.city = c.Name
	if s.user != nil {
		s.user.City = c.Name
	}
	s.mu.Unlock()

	_ = s.store.save()
	return nil
}

// Cities lists the selectable cities, falling back to the built-in table
// when the API is unreachable or answers with nothing.
func (s *Session) Cities(ctx context.Context) []model.City {
	cities, err := s.client.Cities(ctx)
	if err != nil {
		appLog.Warn("city list unavailable, using built-in table", "err", err)
		return city.All()
	}
	if len(cities) == 0 {
		return city.All()
	}
	return cities
}

// DetectCity asks the API for a city guess based on clientIP. Only
// supported cities are returned; "" means no usable guess.
func (s *Session) DetectCity(ctx context.Context, clientIP string) string {
	name, err := s.client.DetectCity(ctx, clientIP)
	if err != nil {
		appLog.Debug("city detection failed", "err", err)
		return ""
	}
	c, ok := city.Lookup(name)
	if !ok {
		return ""
	}
	return c.Name
}

func userID(u *model.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
