// Package session keeps a server-side record per browser. The browser only
// holds a signed token naming the record; the record carries the logged-in
// identity and the queue of pending flash messages.
package session

import (
	"context"
	"time"
)

// Flash categories, used by templates for styling.
const (
	Success = "success"
	Info    = "info"
	Warning = "warning"
	Danger  = "danger"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type data struct {
	UserID   int64   `json:"user_id,omitempty"`
	Username string  `json:"username,omitempty"`
	Flashes  []Flash `json:"flashes,omitempty"`
}

func (d data) empty() bool {
	return d.UserID == 0 && d.Username == "" && len(d.Flashes) == 0
}

// Store persists encoded session records.
type Store interface {
	Find(ctx context.Context, id string) ([]byte, bool, error)
	Commit(ctx context.Context, id string, b []byte, expiry time.Time) error
	Delete(ctx context.Context, id string) error
}

// Session is the per-request view of one record. It is not safe for use by
// more than one goroutine.
type Session struct {
	id       string
	staleIDs []string
	data     data
	modified bool
}

func (s *Session) UserID() (int64, bool) {
	return s.data.UserID, s.data.UserID != 0
}

func (s *Session) Username() string { return s.data.Username }

func (s *Session) Authenticated() bool {
	_, ok := s.UserID()
	return ok
}

// Login binds the identity and moves the record to a fresh id.
func (s *Session) Login(userID int64, username string) {
	s.renew()
	s.data.UserID = userID
	s.data.Username = username
	s.modified = true
}

// Clear drops identity and pending flashes and moves the record to a fresh id.
func (s *Session) Clear() {
	s.renew()
	s.data = data{}
	s.modified = true
}

func (s *Session) AddFlash(category, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Category: category, Message: message})
	s.modified = true
}

// PopFlashes returns and removes all pending flashes.
func (s *Session) PopFlashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	out := s.data.Flashes
	s.data.Flashes = nil
	s.modified = true
	return out
}

func (s *Session) renew() {
	if s.id != "" {
		s.staleIDs = append(s.staleIDs, s.id)
	}
	s.id = newID()
}

type ctxKey struct{}

// FromContext returns the request's session. Handlers behind
// Manager.LoadAndSave always get one.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// NewContext is exported for tests that drive handlers without the middleware.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// New returns an empty session with a fresh id.
func New() *Session {
	return &Session{id: newID()}
}
