// Package session keeps one authentication context per browser: the
// signed-in user, the bearer token and the preferred city. Contexts are
// hydrated from a YAML file on start and written back on every change, so
// a restart does not sign anybody out.
package session

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"teamup/internal/api"
	"teamup/internal/config"
	appLog "teamup/internal/log"
	"teamup/internal/model"
)

// record is the persisted form of a Session.
type record struct {
	ID      string      `yaml:"id"`
	Token   string      `yaml:"token,omitempty"`
	User    *model.User `yaml:"user,omitempty"`
	City    string      `yaml:"city,omitempty"`
	Touched time.Time   `yaml:"touched"`
}

type stateFile struct {
	Sessions []record `yaml:"sessions"`
}

// Store owns every browser Session.
type Store struct {
	path     string
	base     *api.Client
	validate *validator.Validate
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	saveMu sync.Mutex
}

// Open hydrates a Store from path. A missing file yields an empty store;
// an empty path keeps everything in memory.
func Open(path string, base *api.Client) (*Store, error) {
	s := &Store{
		path:     path,
		base:     base,
		validate: newValidator(),
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var st stateFile
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	for _, r := range st.Sessions {
		if r.ID == "" {
			continue
		}
		sess := s.newSession(r.ID)
		sess.token = r.Token
		sess.user = r.User
		sess.city = r.City
		sess.touched = r.Touched
		if r.Token != "" {
			sess.client.SetToken(r.Token)
		}
		s.sessions[r.ID] = sess
	}
	appLog.Info("session store loaded", "path", path, "sessions", len(s.sessions))
	return s, nil
}

func (s *Store) newSession(id string) *Session {
	return &Session{
		id:      id,
		store:   s,
		client:  s.base.WithToken(""),
		touched: s.now(),
	}
}

// New creates an anonymous session with a fresh id.
func (s *Store) New() *Session {
	sess := s.newSession(uuid.NewString())
	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep forgets anonymous sessions without a saved city that have been
// idle for longer than idle. Signed-in sessions stay until logout.
func (s *Store) Sweep(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	removed := 0

	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.keep() {
			continue
		}
		if sess.lastUsed().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	return removed
}

// save writes every session worth keeping (signed in or with a city) to
// the state file.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	st := stateFile{Sessions: make([]record, 0, len(s.sessions))}
	for _, sess := range s.sessions {
		if !sess.keep() {
			continue
		}
		st.Sessions = append(st.Sessions, sess.record())
	}
	s.mu.RUnlock()

	data, err := yaml.Marshal(&st)
	if err != nil {
		return err
	}
	if err := config.WriteFileAtomic(s.path, data); err != nil {
		appLog.Error("session store save failed", err, "path", s.path)
		return err
	}
	return nil
}
