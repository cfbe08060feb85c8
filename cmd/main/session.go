package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const sessionCookieName = "cloudbrowse_session"

type contextKey int

const sessionContextKey contextKey = iota

// sessionMiddleware assigns every visitor an opaque session token, delivered
// as an HttpOnly cookie. The token only keys flash messages; there is no
// authentication attached to it.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string
		if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
			token = c.Value
		} else {
			token = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionContextKey, token)))
	})
}

// sessionFrom returns the session token the middleware stored, or "" when the
// middleware did not run.
func sessionFrom(ctx context.Context) string {
	token, _ := ctx.Value(sessionContextKey).(string)
	return token
}
