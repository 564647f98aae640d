package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go-case-records/internal/model"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "case_session"

type sessionValidator interface {
	ValidateToken(token string) (model.SessionClaims, error)
	Revalidate(ctx context.Context, claims model.SessionClaims) (model.SessionClaims, string, error)
}

type contextKey string

const sessionContextKey contextKey = "session"

type AuthMiddleware struct {
	validator    sessionValidator
	secureCookie bool
}

func NewAuthMiddleware(validator sessionValidator, secureCookie bool) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, secureCookie: secureCookie}
}

// RequireSession builds the request's model.Session from the session cookie
// (or a bearer token) and rejects the request when there is none. Claims
// older than the revalidation interval are re-checked against the store and
// the cookie is re-issued.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			m.reject(w, err)
			return
		}

		claims, refreshed, err := m.validator.Revalidate(r.Context(), claims)
		if err != nil {
			if errors.Is(err, model.ErrConnectionFailed) {
				writeError(w, http.StatusServiceUnavailable, "CONNECTION_FAILED", "session could not be verified")
				return
			}
			slog.Info("session invalidated", "session_id", claims.SessionID, "error", err)
			m.reject(w, err)
			return
		}
		if refreshed != "" {
			SetSessionCookie(w, refreshed, claims.ExpiresAt, m.secureCookie)
		}

		session := claims.Session()
		session.IP = extractClientIP(r)

		ctx := context.WithValue(r.Context(), sessionContextKey, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, err error) {
	ClearSessionCookie(w, m.secureCookie)
	if errors.Is(err, model.ErrSessionExpired) {
		writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired, please sign in again")
		return
	}
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
}

func tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// SessionFromContext returns the session stored by RequireSession.
func SessionFromContext(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(model.Session)
	return session, ok
}

// WithSession stores session in ctx. Used by tests and by handlers that
// authenticate on their own.
func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
