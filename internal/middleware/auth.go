package middleware

import (
	"net/http"

	"clinic-booking/internal/session"
)

const signInMessage = "please sign in to access this page"

// RequireSession sends visitors without a logged-in session to /login.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		if s == nil || !s.Authenticated() {
			if s != nil {
				s.AddFlash(session.Warning, signInMessage)
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
