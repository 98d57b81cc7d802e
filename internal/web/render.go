package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	appLog "teamup/internal/log"
	"teamup/internal/model"
	"teamup/internal/tagset"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{
	"home", "events", "event", "wizard", "login", "register",
	"profile", "settings", "user", "error",
}

// pageData is what every template receives. Page carries the
// page-specific view.
type pageData struct {
	Title  string
	Viewer *model.User
	City   string
	Error  string
	Notice string
	Page   any
}

func parsePages(loc *time.Location) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"date": func(iso string) string {
			t, err := model.ParseTimestamp(iso)
			if err != nil {
				return iso
			}
			return t.In(loc).Format("Mon 2 Jan 2006, 15:04")
		},
		"join": strings.Join,
		"hasTag": func(csv, tag string) bool {
			return tagset.Parse(csv).Has(tag)
		},
		"initials": func(u *model.User) string {
			if u == nil {
				return "?"
			}
			var b strings.Builder
			for _, part := range []string{u.FirstName, u.LastName} {
				if r := []rune(part); len(r) > 0 {
					b.WriteRune(r[0])
				}
			}
			if b.Len() == 0 {
				return "?"
			}
			return strings.ToUpper(b.String())
		},
		"deref": func(p *int) int {
			if p == nil {
				return 0
			}
			return *p
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return pages, nil
}

// render executes page name into a buffer first so a template error never
// leaves a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if sess := sessionFrom(r); sess != nil {
		if data.Viewer == nil {
			data.Viewer = sess.User()
		}
		if data.City == "" {
			data.City = sess.City()
		}
	}

	t, ok := s.pages[name]
	if !ok {
		appLog.Error("unknown page template", nil, "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		appLog.Error("template render failed", err, "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows a standalone error page.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.render(w, r, status, "error", pageData{
		Title: http.StatusText(status),
		Error: userMessage(err),
	})
}
