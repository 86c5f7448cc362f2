package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

// FromContext returns the session attached by Middleware. Every request
// that passed through Middleware carries one; callers outside the
// middleware chain get nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Middleware resolves the bearer token into a session. Requests without
// a token, or with an expired or invalid one, proceed as an ephemeral
// guest rather than being rejected; handlers that need a real user wrap
// themselves in RequireUser.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := m.sessionFor(r)
		ctx := context.WithValue(r.Context(), contextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Manager) sessionFor(r *http.Request) *Session {
	header := r.Header.Get("Authorization")
	if header == "" {
		return &Session{UserID: "", Name: "Guest", Guest: true}
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	session, err := m.Verify(tokenStr)
	if err != nil {
		slog.Debug("rejecting session token", "error", err)
		return &Session{UserID: "", Name: "Guest", Guest: true}
	}
	return session
}

// RequireUser rejects guests with 401. It must run after Middleware.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := FromContext(r.Context())
		if session == nil || session.Guest {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "sign in required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
