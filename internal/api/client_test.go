package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", 0)
}

func TestClient_BearerTokenAndEnvelope(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `{"success":true,"data":{"id":"ev-1","title":"Run"}}`)
	})

	raw, err := c.Get(context.Background(), "/events/ev-1")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "/api/events/ev-1", gotPath)
	assert.JSONEq(t, `{"id":"ev-1","title":"Run"}`, string(raw))

	c.SetToken("tok")
	_, err = c.Get(context.Background(), "/events/ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)

	c.ClearToken()
	assert.Empty(t, c.Token())
}

func TestClient_WithTokenIsIndependent(t *testing.T) {
	t.Parallel()

	base := NewClient("http://example.invalid", 0)
	a := base.WithToken("a")
	b := base.WithToken("b")
	a.ClearToken()

	assert.Empty(t, a.Token())
	assert.Equal(t, "b", b.Token())
	assert.Empty(t, base.Token())
}

func TestClient_ErrorNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantCode    string
	}{
		{name: "message field", status: http.StatusBadRequest, body: `{"success":false,"message":"Titre invalide"}`, wantMessage: "Titre invalide"},
		{name: "error string", status: http.StatusConflict, body: `{"error":"Vous êtes déjà inscrit"}`, wantMessage: "Vous êtes déjà inscrit"},
		{name: "nested error", status: http.StatusConflict, body: `{"error":{"message":"Already","code":"ALREADY_JOINED"}}`, wantMessage: "Already", wantCode: CodeAlreadyJoined},
		{name: "top-level code", status: http.StatusConflict, body: `{"message":"x","code":"ALREADY_JOINED"}`, wantMessage: "x", wantCode: CodeAlreadyJoined},
		{name: "not json", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, wantMessage: "Bad Gateway"},
		{name: "empty body", status: http.StatusUnauthorized, body: ``, wantMessage: "Unauthorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Post(context.Background(), "/events", map[string]string{"a": "b"})
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, err.Error())
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestIsAlreadyJoined(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAlreadyJoined(&Error{Status: 400, Message: "Vous êtes déjà inscrit à cet événement"}))
	assert.True(t, IsAlreadyJoined(&Error{Status: 409, Message: "conflict", Code: CodeAlreadyJoined}))
	assert.True(t, IsAlreadyJoined(errors.New("déjà inscrit")))
	assert.False(t, IsAlreadyJoined(&Error{Status: 400, Message: "Événement complet"}))
	assert.False(t, IsAlreadyJoined(nil))
	assert.True(t, IsUnauthorized(&Error{Status: 401}))
}

func TestClient_Events(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "bare array", body: `{"data":[{"id":"1"},{"id":"2"}]}`, want: 2},
		{name: "events key", body: `{"data":{"events":[{"id":"1"}],"total":1}}`, want: 1},
		{name: "paginated", body: `{"data":[{"id":"1"}],"total":1,"page":1,"totalPages":1}`, want: 1},
		{name: "unknown object", body: `{"data":{"count":0}}`, want: 0},
		{name: "null", body: `{"data":null}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotURL string
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				gotURL = r.URL.RequestURI()
				_, _ = io.WriteString(w, tt.body)
			})

			events, err := c.Events(context.Background(), "/events", url.Values{"city": {"Paris"}})
			require.NoError(t, err)
			assert.Len(t, events, tt.want)
			assert.NotNil(t, events)
			assert.Equal(t, "/api/events?city=Paris", gotURL)
		})
	}
}

func TestClient_CreateAndUpdateEvent(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"new-id"}}`)
	})

	minAge := 18
	id, err := c.CreateEvent(context.Background(), model.EventInput{Title: "Run", Tags: []string{"sport"}, MinAge: &minAge})
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/events", gotPath)
	assert.Equal(t, "Run", gotBody["title"])
	assert.EqualValues(t, 18, gotBody["minAge"])
	assert.NotContains(t, gotBody, "maxAge")

	require.NoError(t, c.UpdateEvent(context.Background(), "ev 1", model.EventInput{Title: "Run"}))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/events/ev 1", gotPath)
}

func TestClient_CreateEventWithoutID(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{}}`)
	})

	_, err := c.CreateEvent(context.Background(), model.EventInput{})
	require.ErrorIs(t, err, errMissingID)
}

func TestClient_Participants(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"participants":[{"user":{"id":"u1","firstName":"Awa"}},{"id":"u2"}]}}`)
	})

	users, err := c.Participants(context.Background(), "ev-1")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "Awa", users[0].FirstName)
	assert.Equal(t, "u2", users[1].ID)
}

func TestClient_GetEventWrapped(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"event":{"id":"ev-1","title":"Run"}}}`)
	})

	ev, err := c.GetEvent(context.Background(), "ev-1")
	require.NoError(t, err)
	assert.Equal(t, "Run", ev.Title)
}

func TestClient_LoginAndDetect(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			_, _ = io.WriteString(w, `{"data":{"token":"tok","user":{"id":"u1","email":"a@b.c"}}}`)
		case "/api/auth/register":
			_, _ = io.WriteString(w, `{"data":{"user":{"id":"u1"}}}`)
		case "/api/geolocation/detect":
			assert.Equal(t, "203.0.113.9", r.Header.Get("X-Forwarded-For"))
			_, _ = io.WriteString(w, `{"data":{"suggestedCity":{"name":"Nice"}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	res, err := c.Login(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "u1", res.User.ID)

	_, err = c.Register(context.Background(), RegisterRequest{Email: "a@b.c"})
	require.ErrorIs(t, err, errNoToken)

	name, err := c.DetectCity(context.Background(), "203.0.113.9")
	require.NoError(t, err)
	assert.Equal(t, "Nice", name)
}
