package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"teamup/internal/model"
)

// AuthResult is what /auth/login and /auth/register answer with.
type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Pseudo    string   `json:"pseudo,omitempty"`
	City      string   `json:"city"`
	BirthYear int      `json:"birthYear"`
	Interests []string `json:"interests,omitempty"`
}

// ProfileRequest is the body of PUT /auth/profile.
type ProfileRequest struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Pseudo    string   `json:"pseudo"`
	City      string   `json:"city"`
	BirthYear int      `json:"birthYear"`
	Interests []string `json:"interests"`
}

// SetCityRequest is the body of POST /geolocation/set-city.
type SetCityRequest struct {
	CityName              string  `json:"cityName"`
	Latitude              float64 `json:"latitude"`
	Longitude             float64 `json:"longitude"`
	EnablePreciseLocation bool    `json:"enablePreciseLocation"`
}

var errNoToken = errors.New("authentication response carries no token")

// Login exchanges credentials for a token and the user record.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	raw, err := c.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password})
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuth(raw)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (AuthResult, error) {
	raw, err := c.Post(ctx, "/auth/register", r)
	if err != nil {
		return AuthResult{}, err
	}
	return decodeAuth(raw)
}

func decodeAuth(raw []byte) (AuthResult, error) {
	var res AuthResult
	if err := decode(raw, &res); err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, errNoToken
	}
	return res, nil
}

// UpdateProfile saves the caller's profile. The API may echo the updated
// user; nil is returned when it does not.
func (c *Client) UpdateProfile(ctx context.Context, r ProfileRequest) (*model.User, error) {
	raw, err := c.Put(ctx, "/auth/profile", r)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := decode(raw, &u, "user"); err != nil || u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// GetUser fetches a public profile.
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	raw, err := c.Get(ctx, "/users/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := decode(raw, &u, "user"); err != nil {
		return nil, err
	}
	return &u, nil
}

// Cities lists the cities the platform serves.
func (c *Client) Cities(ctx context.Context) ([]model.City, error) {
	raw, err := c.Get(ctx, "/geolocation/cities")
	if err != nil {
		return nil, err
	}
	return decodeList[model.City](raw, "cities")
}

// SetCity stores the caller's home city.
func (c *Client) SetCity(ctx context.Context, r SetCityRequest) error {
	_, err := c.Post(ctx, "/geolocation/set-city", r)
	return err
}

// DetectCity asks the API to guess a city from the client address.
// clientIP is forwarded so the guess is about the browser, not this
// server. An empty name means no guess.
func (c *Client) DetectCity(ctx context.Context, clientIP string) (string, error) {
	var header http.Header
	if clientIP != "" {
		header = http.Header{"X-Forwarded-For": []string{clientIP}}
	}
	raw, err := c.send(ctx, http.MethodGet, "/geolocation/detect", nil, header)
	if err != nil {
		return "", err
	}
	var res struct {
		SuggestedCity *struct {
			Name string `json:"name"`
		} `json:"suggestedCity"`
		City string `json:"city"`
	}
	if err := decode(raw, &res); err != nil {
		return "", err
	}
	if res.SuggestedCity != nil && res.SuggestedCity.Name != "" {
		return res.SuggestedCity.Name, nil
	}
	return res.City, nil
}
