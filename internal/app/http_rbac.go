package app

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"contentgroups/api/internal/auth"
	"contentgroups/api/internal/rbac"
)

const sessionCookie = "cg_session"

type sessionKey struct{}

func sessionFrom(r *http.Request) Session {
	session, _ := r.Context().Value(sessionKey{}).(Session)
	return session
}

// requireSession rejects requests without a valid bearer token or session
// cookie and stores the session on the request context.
func (s *HTTPServer) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := requestToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			s.logger.Warn("session lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func (s *HTTPServer) requireAction(action rbac.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := sessionFrom(r)
			if !s.service.Can(session.Role, action) {
				s.forbid(w, r, session, string(action))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forbid writes a 403 Forbidden response and logs the denial
func (s *HTTPServer) forbid(w http.ResponseWriter, r *http.Request, session Session, action string) {
	s.logger.Info("access denied",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("user_id", session.UserID),
		zap.String("role", session.Role),
		zap.String("action", action))
	writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
}

// visitorAuthenticated reports whether the page viewer is signed in. Broken
// or expired credentials count as anonymous.
func (s *HTTPServer) visitorAuthenticated(r *http.Request) bool {
	token := requestToken(r)
	if token == "" {
		return false
	}
	_, err := s.service.SessionFromToken(r.Context(), token)
	return err == nil
}

func requestToken(r *http.Request) string {
	if token := bearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
