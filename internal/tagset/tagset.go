// Package tagset implements the small ordered set used for event tags and
// profile interests: entries are trimmed, lowercased, unique and kept in
// insertion order.
package tagset

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxLen is the longest tag accepted, in runes.
const MaxLen = 20

var (
	ErrEmpty     = errors.New("tag is empty")
	ErrTooLong   = errors.New("tag is too long (20 characters tops)")
	ErrDuplicate = errors.New("tag already selected")
)

// Popular is the suggestion list offered next to the custom tag input.
var Popular = []string{
	"sport", "musique", "culture", "nature", "gastronomie",
	"art", "cinéma", "danse", "jeux", "technologie",
	"lecture", "photographie", "randonnée", "vélo", "yoga",
}

// Set is an insertion-ordered, deduplicated list of lowercase tags.
// The zero value is an empty set ready to use.
type Set struct {
	items []string
}

// Normalize trims and lowercases a raw tag.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// New builds a set from raw values, silently dropping entries Add would
// reject.
func New(raw ...string) Set {
	var s Set
	for _, r := range raw {
		_ = s.Add(r)
	}
	return s
}

// Parse splits a comma-separated list ("sport, Yoga") into a set.
func Parse(csv string) Set {
	if strings.TrimSpace(csv) == "" {
		return Set{}
	}
	return New(strings.Split(csv, ",")...)
}

// Add normalizes raw and appends it. Adding a tag already present is a
// no-op that reports ErrDuplicate.
func (s *Set) Add(raw string) error {
	tag := Normalize(raw)
	if tag == "" {
		return ErrEmpty
	}
	if utf8.RuneCountInString(tag) > MaxLen {
		return ErrTooLong
	}
	if s.Has(tag) {
		return ErrDuplicate
	}
	s.items = append(s.items, tag)
	return nil
}

// Remove drops tag if present.
func (s *Set) Remove(raw string) {
	tag := Normalize(raw)
	for i, t := range s.items {
		if t == tag {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

// Toggle removes tag when present, adds it otherwise.
func (s *Set) Toggle(raw string) error {
	if s.Has(raw) {
		s.Remove(raw)
		return nil
	}
	return s.Add(raw)
}

// Has reports membership, case-insensitively.
func (s Set) Has(raw string) bool {
	tag := Normalize(raw)
	for _, t := range s.items {
		if t == tag {
			return true
		}
	}
	return false
}

func (s Set) Len() int { return len(s.items) }

// Values returns a copy of the tags in insertion order. It never returns nil
// so the value always marshals as a JSON array.
func (s Set) Values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// String joins the tags with ", ".
func (s Set) String() string {
	return strings.Join(s.items, ", ")
}
