// internal/httpserver/auth.go
//
// Request identity.
//   - requireAuth: a valid bearer for the given purpose or 401.
//   - withOptionalAuth: decorates the request when a valid play token is
//     present, never rejects.
//   - ensureAnonID: stable guest device id kept in a cookie.

package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/robalobadob/motmystere/internal/identity"
	"github.com/robalobadob/motmystere/internal/progress"
)

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireAuth enforces a valid token for purpose and injects the user id.
func (s *Server) requireAuth(purpose string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.bearerOrCookie(r)
			if tok == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", nil)
				return
			}
			uid, err := s.deps.Tokens.Verify(tok, purpose)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid_token", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), uid)))
		})
	}
}

// withOptionalAuth decorates requests with the user id if a valid play token is present.
func (s *Server) withOptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.bearerOrCookie(r); tok != "" {
			if uid, err := s.deps.Tokens.Verify(tok, identity.PurposePlay); err == nil {
				r = r.WithContext(identity.WithUser(r.Context(), uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ensureAnonID returns an existing device cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(s.cfg.AnonCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := s.deps.IDs.NewID()
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.AnonCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  s.deps.Clock().Add(180 * 24 * time.Hour),
	})
	return id
}

// who resolves the progress identity of the request.
func (s *Server) who(w http.ResponseWriter, r *http.Request) progress.Identity {
	if uid := identity.UserFrom(r.Context()); uid != "" {
		return progress.Identity{ID: uid}
	}
	return progress.Identity{ID: s.ensureAnonID(w, r), Guest: true}
}

// ownerKey is how rounds remember who started them.
func ownerKey(id progress.Identity) string {
	if id.Guest {
		return "guest:" + id.ID
	}
	return "user:" + id.ID
}
