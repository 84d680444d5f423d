package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clinic-booking/internal/auth"
	"clinic-booking/internal/lib/sl"
)

const CookieName = "clinic_session"

func newID() string { return uuid.NewString() }

type Manager struct {
	store  Store
	secret string
	ttl    time.Duration
	secure bool
	log    *slog.Logger
}

func NewManager(store Store, secret string, ttl time.Duration, secure bool, log *slog.Logger) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, secure: secure, log: log}
}

// LoadAndSave attaches the browser's session to the request context and
// commits it right before the response header goes out.
func (m *Manager) LoadAndSave(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.load(r)
		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() { m.commit(r.Context(), w, s) }

		next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), s)))
		cw.flush()
	})
}

func (m *Manager) load(r *http.Request) *Session {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return New()
	}
	sid, err := auth.ParseSessionToken(c.Value, m.secret)
	if err != nil {
		m.log.Debug("discarding session cookie", sl.Err(err))
		return New()
	}

	b, found, err := m.store.Find(r.Context(), sid)
	if err != nil {
		m.log.Error("failed to load session", sl.Err(err))
		return New()
	}
	if !found {
		return New()
	}

	var d data
	if err := json.Unmarshal(b, &d); err != nil {
		m.log.Error("corrupt session record", slog.String("sid", sid), sl.Err(err))
		return New()
	}
	return &Session{id: sid, data: d}
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, s *Session) {
	if !s.modified {
		return
	}
	for _, old := range s.staleIDs {
		if err := m.store.Delete(ctx, old); err != nil {
			m.log.Error("failed to delete stale session", sl.Err(err))
		}
	}

	if s.data.empty() {
		if err := m.store.Delete(ctx, s.id); err != nil {
			m.log.Error("failed to delete session", sl.Err(err))
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		return
	}

	b, err := json.Marshal(s.data)
	if err != nil {
		m.log.Error("failed to encode session", sl.Err(err))
		return
	}
	expiry := time.Now().Add(m.ttl)
	if err := m.store.Commit(ctx, s.id, b, expiry); err != nil {
		m.log.Error("failed to save session", sl.Err(err))
		return
	}
	tok, err := auth.MakeSessionToken(s.id, m.secret, m.ttl)
	if err != nil {
		m.log.Error("failed to sign session", sl.Err(err))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  expiry,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type commitWriter struct {
	http.ResponseWriter
	commit func()
	done   bool
}

func (w *commitWriter) flush() {
	if w.done {
		return
	}
	w.done = true
	w.commit()
}

func (w *commitWriter) WriteHeader(code int) {
	w.flush()
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	w.flush()
	return w.ResponseWriter.Write(b)
}

func (w *commitWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
