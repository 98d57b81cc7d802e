package web

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "teamup/internal/log"
	"teamup/internal/wizard"
)

// draft is one wizard in progress. mu serializes every action on it, so a
// double-clicked submit cannot create the event twice.
type draft struct {
	mu      sync.Mutex
	wiz     *wizard.Wizard
	touched time.Time
}

// draftRegistry holds the wizards of every browser, keyed by session id
// and target ("new" or the edited event id).
type draftRegistry struct {
	mu     sync.Mutex
	drafts map[string]*draft
	now    func() time.Time
}

func newDraftRegistry() *draftRegistry {
	return &draftRegistry{
		drafts: make(map[string]*draft),
		now:    time.Now,
	}
}

func draftKey(sessionID, target string) string {
	return sessionID + "/" + target
}

// get returns the draft under key, calling create when there is none.
// create runs without the registry lock held; a create error leaves the
// registry unchanged.
func (d *draftRegistry) get(key string, create func() (*wizard.Wizard, error)) (*draft, error) {
	d.mu.Lock()
	dr, ok := d.drafts[key]
	if ok {
		dr.touched = d.now()
	}
	d.mu.Unlock()
	if ok {
		return dr, nil
	}

	wiz, err := create()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.drafts[key]; ok {
		existing.touched = d.now()
		return existing, nil
	}
	dr = &draft{wiz: wiz, touched: d.now()}
	d.drafts[key] = dr
	return dr, nil
}

// remove drops key if it still holds dr.
func (d *draftRegistry) remove(key string, dr *draft) {
	d.mu.Lock()
	if d.drafts[key] == dr {
		delete(d.drafts, key)
	}
	d.mu.Unlock()
}

func (d *draftRegistry) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.drafts)
}

// sweep drops drafts untouched for longer than ttl.
func (d *draftRegistry) sweep(ttl time.Duration) int {
	cutoff := d.now().Add(-ttl)
	removed := 0

	d.mu.Lock()
	for key, dr := range d.drafts {
		if dr.touched.Before(cutoff) {
			delete(d.drafts, key)
			removed++
		}
	}
	d.mu.Unlock()
	return removed
}

// Sweep drops idle drafts and idle anonymous sessions.
func (s *Server) Sweep() {
	ttl := s.cfg.DraftTTL()
	drafts := s.drafts.sweep(ttl)
	sessions := s.store.Sweep(ttl)
	if drafts > 0 || sessions > 0 {
		appLog.Info("sweep completed", "drafts_removed", drafts, "sessions_removed", sessions)
	}
}

// StartSweeper runs Sweep on the configured cron schedule until ctx is
// cancelled.
func (s *Server) StartSweeper(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.Sweep, s.Sweep); err != nil {
		return err
	}
	c.Start()
	appLog.Info("sweeper scheduled", "schedule", s.cfg.Sweep, "ttl_minutes", s.cfg.DraftTTLMinutes)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Debug("sweeper stopped")
	}()
	return nil
}
