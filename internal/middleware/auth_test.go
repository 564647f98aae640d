package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/model"
)

type stubValidator struct {
	claims        model.SessionClaims
	validateErr   error
	revalidateErr error
	refreshed     string
	revalidated   int
}

func (s *stubValidator) ValidateToken(token string) (model.SessionClaims, error) {
	if s.validateErr != nil {
		return model.SessionClaims{}, s.validateErr
	}
	return s.claims, nil
}

func (s *stubValidator) Revalidate(_ context.Context, claims model.SessionClaims) (model.SessionClaims, string, error) {
	s.revalidated++
	if s.revalidateErr != nil {
		return claims, "", s.revalidateErr
	}
	return claims, s.refreshed, nil
}

func sessionEcho(t *testing.T, seen *model.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := SessionFromContext(r.Context())
		require.True(t, ok)
		*seen = session
		w.WriteHeader(http.StatusNoContent)
	})
}

func validClaims() model.SessionClaims {
	return model.SessionClaims{
		SubjectID: "user-1",
		Role:      model.RoleAdmin,
		Name:      "Dana",
		Email:     "dana@example.com",
		SessionID: "sess-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestRequireSession_MissingToken(t *testing.T) {
	mw := NewAuthMiddleware(&stubValidator{}, false)
	rec := httptest.NewRecorder()

	mw.RequireSession(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestRequireSession_Cookie(t *testing.T) {
	validator := &stubValidator{claims: validClaims()}
	mw := NewAuthMiddleware(validator, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil)
	req.RemoteAddr = "192.0.2.10:4000"
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	rec := httptest.NewRecorder()

	var seen model.Session
	mw.RequireSession(sessionEcho(t, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", seen.SubjectID)
	assert.Equal(t, model.RoleAdmin, seen.Role)
	assert.Equal(t, "192.0.2.10", seen.IP)
	assert.Equal(t, 1, validator.revalidated)
	assert.Empty(t, rec.Result().Cookies(), "cookie is only re-issued after revalidation")
}

func TestRequireSession_BearerAndRefresh(t *testing.T) {
	validator := &stubValidator{claims: validClaims(), refreshed: "fresh-token"}
	mw := NewAuthMiddleware(validator, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	var seen model.Session
	mw.RequireSession(sessionEcho(t, &seen)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "fresh-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
}

func TestRequireSession_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		validator *stubValidator
		status    int
		code      string
	}{
		{"expired", &stubValidator{validateErr: model.ErrSessionExpired}, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{"bad signature", &stubValidator{validateErr: model.ErrUnauthorized}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"revoked", &stubValidator{claims: validClaims(), revalidateErr: model.ErrSessionExpired}, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{"user deleted", &stubValidator{claims: validClaims(), revalidateErr: model.ErrUnauthorized}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"store down", &stubValidator{claims: validClaims(), revalidateErr: model.ErrConnectionFailed}, http.StatusServiceUnavailable, "CONNECTION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(tt.validator, false)
			req := httptest.NewRequest(http.MethodGet, "/api/v1/folders", nil)
			req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
			rec := httptest.NewRecorder()

			mw.RequireSession(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestSessionFromContext_Missing(t *testing.T) {
	_, ok := SessionFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), model.Session{SubjectID: "u"})
	session, ok := SessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u", session.SubjectID)
}
