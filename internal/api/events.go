package api

import (
	"context"
	"encoding/json"
	"net/url"

	"teamup/internal/model"
)

// ReportRequest is the body of POST /events/{id}/report.
type ReportRequest struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Events fetches a collection from path (/events, /events/search or
// /events/nearby) with the given query.
func (c *Client) Events(ctx context.Context, path string, query url.Values) ([]model.Event, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	raw, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeList[model.Event](raw, "events", "data")
}

// GetEvent fetches one event.
func (c *Client) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	raw, err := c.Get(ctx, "/events/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var ev model.Event
	if err := decode(raw, &ev, "event"); err != nil {
		return nil, err
	}
	return &ev, nil
}

// CreateEvent posts a new event and returns the server-assigned id.
func (c *Client) CreateEvent(ctx context.Context, in model.EventInput) (string, error) {
	raw, err := c.Post(ctx, "/events", in)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := decode(raw, &created, "event"); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errMissingID
	}
	return created.ID, nil
}

// UpdateEvent replaces the editable fields of an existing event.
func (c *Client) UpdateEvent(ctx context.Context, id string, in model.EventInput) error {
	_, err := c.Put(ctx, "/events/"+url.PathEscape(id), in)
	return err
}

// CancelEvent cancels an event (organizer only, server-enforced).
func (c *Client) CancelEvent(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/events/"+url.PathEscape(id))
	return err
}

// JoinEvent registers the caller as a participant.
func (c *Client) JoinEvent(ctx context.Context, id string) error {
	_, err := c.Post(ctx, "/events/"+url.PathEscape(id)+"/join", nil)
	return err
}

// LeaveEvent removes the caller from the participants.
func (c *Client) LeaveEvent(ctx context.Context, id string) error {
	_, err := c.Delete(ctx, "/events/"+url.PathEscape(id)+"/leave")
	return err
}

// Participants lists the users registered for an event. Entries may come
// wrapped as {"user": {...}}; they are unwrapped here.
func (c *Client) Participants(ctx context.Context, id string) ([]model.User, error) {
	raw, err := c.Get(ctx, "/events/"+url.PathEscape(id)+"/participants")
	if err != nil {
		return nil, err
	}
	entries, err := decodeList[json.RawMessage](raw, "participants", "data")
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(entries))
	for _, entry := range entries {
		var wrapped struct {
			User *model.User `json:"user"`
		}
		if err := json.Unmarshal(entry, &wrapped); err == nil && wrapped.User != nil {
			users = append(users, *wrapped.User)
			continue
		}
		var u model.User
		if err := json.Unmarshal(entry, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// ReportEvent files a moderation report.
func (c *Client) ReportEvent(ctx context.Context, id string, r ReportRequest) error {
	_, err := c.Post(ctx, "/events/"+url.PathEscape(id)+"/report", r)
	return err
}

// Comments lists the comments of an event.
func (c *Client) Comments(ctx context.Context, eventID string) ([]model.Comment, error) {
	raw, err := c.Get(ctx, "/events/"+url.PathEscape(eventID)+"/comments")
	if err != nil {
		return nil, err
	}
	return decodeList[model.Comment](raw, "comments", "data")
}

// AddComment posts a comment on an event.
func (c *Client) AddComment(ctx context.Context, eventID, content string) error {
	_, err := c.Post(ctx, "/events/"+url.PathEscape(eventID)+"/comments", map[string]string{"content": content})
	return err
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	_, err := c.Delete(ctx, "/comments/"+url.PathEscape(commentID))
	return err
}
