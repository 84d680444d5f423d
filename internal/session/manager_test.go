package session

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu   sync.Mutex
	recs map[string][]byte
}

func newMemStore() *memStore { return &memStore{recs: map[string][]byte{}} }

func (m *memStore) Find(_ context.Context, id string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.recs[id]
	return b, ok, nil
}

func (m *memStore) Commit(_ context.Context, id string, b []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[id] = b
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.recs, id)
	return nil
}

func (m *memStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.recs)
}

func newTestManager(st Store) *Manager {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(st, "test-secret", time.Hour, false, log)
}

// do runs one request through the manager, sending cookie if non-nil, and
// returns the session cookie from the response, if any.
func do(t *testing.T, m *Manager, cookie *http.Cookie, h http.HandlerFunc) (*http.Response, *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	m.LoadAndSave(h).ServeHTTP(rec, req)

	res := rec.Result()
	for _, c := range res.Cookies() {
		if c.Name == CookieName {
			return res, c
		}
	}
	return res, nil
}

func TestManager_UntouchedSessionSetsNoCookie(t *testing.T) {
	st := newMemStore()
	m := newTestManager(st)

	_, c := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		require.NotNil(t, FromContext(r.Context()))
		_, _ = w.Write([]byte("ok"))
	})
	assert.Nil(t, c)
	assert.Zero(t, st.len())
}

func TestManager_FlashSurvivesOneRequest(t *testing.T) {
	st := newMemStore()
	m := newTestManager(st)

	_, c := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).AddFlash(Info, "hello")
		http.Redirect(w, r, "/next", http.StatusFound)
	})
	require.NotNil(t, c)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 1, st.len())

	var got []Flash
	_, c2 := do(t, m, c, func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context()).PopFlashes()
		_, _ = w.Write([]byte("page"))
	})
	assert.Equal(t, []Flash{{Category: Info, Message: "hello"}}, got)

	// the record is now empty, so it is dropped and the cookie expired
	require.NotNil(t, c2)
	assert.Negative(t, c2.MaxAge)
	assert.Zero(t, st.len())

	do(t, m, c, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, FromContext(r.Context()).PopFlashes())
	})
}

func TestManager_LoginRotatesID(t *testing.T) {
	st := newMemStore()
	m := newTestManager(st)

	_, anon := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).AddFlash(Info, "please sign in")
	})
	require.NotNil(t, anon)

	_, authed := do(t, m, anon, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		s.PopFlashes()
		s.Login(7, "bia")
		http.Redirect(w, r, "/admin/agendamentos", http.StatusFound)
	})
	require.NotNil(t, authed)
	assert.NotEqual(t, anon.Value, authed.Value)
	assert.Equal(t, 1, st.len(), "old record must be removed")

	do(t, m, authed, func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		id, ok := s.UserID()
		assert.True(t, ok)
		assert.Equal(t, int64(7), id)
		assert.Equal(t, "bia", s.Username())
	})

	// the pre-login cookie no longer names a session
	do(t, m, anon, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	})
}

func TestManager_ClearLogsOut(t *testing.T) {
	st := newMemStore()
	m := newTestManager(st)

	_, authed := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Login(1, "ana")
	})
	require.NotNil(t, authed)

	_, out := do(t, m, authed, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Clear()
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	require.NotNil(t, out)
	assert.Negative(t, out.MaxAge)
	assert.Zero(t, st.len())

	do(t, m, authed, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	})
}

func TestManager_RejectsTamperedCookie(t *testing.T) {
	st := newMemStore()
	m := newTestManager(st)

	_, authed := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Login(1, "ana")
	})
	require.NotNil(t, authed)

	forged := *authed
	forged.Value = authed.Value + "x"
	do(t, m, &forged, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	})

	other := NewManager(st, "another-secret", time.Hour, false, slog.New(slog.NewTextHandler(io.Discard, nil)))
	do(t, other, authed, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, FromContext(r.Context()).Authenticated())
	})
}

func TestManager_SecureCookie(t *testing.T) {
	m := NewManager(newMemStore(), "k", time.Hour, true, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, c := do(t, m, nil, func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Login(1, "ana")
	})
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

func TestSession_PopFlashesOrder(t *testing.T) {
	s := New()
	assert.Nil(t, s.PopFlashes())

	s.AddFlash(Danger, "one")
	s.AddFlash(Success, "two")
	got := s.PopFlashes()
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Message)
	assert.Equal(t, "two", got[1].Message)
	assert.Nil(t, s.PopFlashes())
}
