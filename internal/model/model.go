package model

import "time"

// Role is the platform-wide role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a TeamUp account as returned by the REST API.
type User struct {
	ID        string   `json:"id" yaml:"id"`
	Email     string   `json:"email" yaml:"email"`
	FirstName string   `json:"firstName" yaml:"first_name"`
	LastName  string   `json:"lastName" yaml:"last_name"`
	Pseudo    string   `json:"pseudo,omitempty" yaml:"pseudo,omitempty"`
	City      string   `json:"city" yaml:"city"`
	BirthYear int      `json:"birthYear" yaml:"birth_year"`
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`
	Role      Role     `json:"role" yaml:"role"`
	IsBanned  bool     `json:"isBanned" yaml:"is_banned"`
	CreatedAt string   `json:"createdAt" yaml:"created_at"`
}

// DisplayName is the pseudo when set, otherwise "First Last".
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Pseudo != "" {
		return u.Pseudo
	}
	return u.FullName()
}

// FullName is "First Last".
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Status is the server-side lifecycle state of an event.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Event is the canonical record owned by the server. This client never
// computes ID, ParticipantCount, Status or Organizer.
//
// StartDate / EndDate are kept as the ISO-8601 strings the API sends; use
// Start / End to get parsed values.
type Event struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	MaxCapacity      int      `json:"maxCapacity"`
	MinAge           *int     `json:"minAge,omitempty"`
	MaxAge           *int     `json:"maxAge,omitempty"`
	IsPublic         bool     `json:"isPublic"`
	RequiresApproval bool     `json:"requiresApproval"`
	Status           Status   `json:"status"`
	OrganizerID      string   `json:"organizerId"`
	Organizer        *User    `json:"organizer,omitempty"`
	ParticipantCount int      `json:"participantCount"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

// Start parses StartDate.
func (e *Event) Start() (time.Time, error) {
	return ParseTimestamp(e.StartDate)
}

// End parses EndDate.
func (e *Event) End() (time.Time, error) {
	return ParseTimestamp(e.EndDate)
}

// IsCancelled reports whether the organizer cancelled the event.
func (e *Event) IsCancelled() bool {
	return e.Status == StatusCancelled
}

// IsFull reports whether participantCount reached maxCapacity.
func (e *Event) IsFull() bool {
	return e.MaxCapacity > 0 && e.ParticipantCount >= e.MaxCapacity
}

// IsOrganizer reports whether u created the event.
func (e *Event) IsOrganizer(u *User) bool {
	if u == nil || u.ID == "" {
		return false
	}
	id := e.OrganizerID
	if id == "" && e.Organizer != nil {
		id = e.Organizer.ID
	}
	return u.ID == id
}

// EventInput is the create/update (upsert) payload for POST /events and
// PUT /events/{id}.
type EventInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tags             []string `json:"tags"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	MaxCapacity      int      `json:"maxCapacity"`
	MinAge           *int     `json:"minAge,omitempty"`
	MaxAge           *int     `json:"maxAge,omitempty"`
	IsPublic         bool     `json:"isPublic"`
	RequiresApproval bool     `json:"requiresApproval"`
}

// Comment is a message posted on an event.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	EventID   string `json:"eventId"`
	UserID    string `json:"userId"`
	User      *User  `json:"user,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// City is a supported city as listed by GET /geolocation/cities.
type City struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
}

// TimestampLayout is the ISO-8601 form the API expects: UTC with
// millisecond precision, e.g. 2025-06-01T08:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp accepts any RFC 3339 timestamp (with or without
// fractional seconds).
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
