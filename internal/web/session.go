package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"teamup/internal/api"
	appLog "teamup/internal/log"
	"teamup/internal/session"
)

const (
	cookieName   = "teamup_session"
	cookieMaxAge = 30 * 24 * 60 * 60
)

type ctxKey struct{}

// sessionMiddleware attaches the browser's session to the request,
// creating one (and its cookie) on first visit.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}

		var sess *session.Session
		if c, err := r.Cookie(cookieName); err == nil {
			sess, _ = s.store.Get(c.Value)
		}
		if sess == nil {
			sess = s.store.New()
			appLog.Debug("session created", "session", sess.ID())
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    sess.ID(),
			Path:     "/",
			MaxAge:   cookieMaxAge,
			HttpOnly: true,
			Secure:   s.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		ctx := context.WithValue(r.Context(), ctxKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxKey{}).(*session.Session)
	return sess
}

// requireLogin redirects anonymous visitors to the login page and reports
// whether the handler may go on.
func requireLogin(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if sess.IsAuthenticated() {
		return true
	}
	redirect(w, r, loginURL(r.URL.RequestURI()))
	return false
}

func loginURL(next string) string {
	return "/login?next=" + url.QueryEscape(next)
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// clientIP is the browser address, honoring the first X-Forwarded-For hop.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// userMessage turns err into the one-line message shown on the page. API
// messages are passed through as is.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if unreachable(err) {
		return "The TeamUp service is unreachable, please try again later."
	}
	return err.Error()
}

// unreachable reports whether err is a transport failure rather than an
// answer from the API.
func unreachable(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded)
}

// expired signs the session out when the API rejected its token and
// reports whether it did.
func expired(sess *session.Session, err error) bool {
	if !sess.IsAuthenticated() || !api.IsUnauthorized(err) {
		return false
	}
	appLog.Info("token rejected, signing out", "session", sess.ID())
	sess.Logout()
	return true
}
