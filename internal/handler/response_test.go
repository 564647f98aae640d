package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/model"
	"go-case-records/internal/permission"
	"go-case-records/pkg/apierror"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", apierror.Validation("title is required", ""), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"wrapped not found", fmt.Errorf("find folder 9: %w", model.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"constraint", &model.StoreError{Op: "create category", Kind: model.ErrConstraintViolation}, http.StatusConflict, "CONSTRAINT_VIOLATION"},
		{"store down", &model.StoreError{Op: "list", Kind: model.ErrConnectionFailed}, http.StatusServiceUnavailable, "CONNECTION_FAILED"},
		{"quota", model.ErrQuotaExceeded, http.StatusRequestEntityTooLarge, "QUOTA_EXCEEDED"},
		{"not archived", fmt.Errorf("restore: %w", model.ErrNotArchived), http.StatusConflict, "NOT_ARCHIVED"},
		{"already archived", model.ErrAlreadyArchived, http.StatusConflict, "ALREADY_ARCHIVED"},
		{"bad credentials", model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"needs code", model.ErrTwoFactorRequired, http.StatusUnauthorized, "TWO_FACTOR_REQUIRED"},
		{"expired", model.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{"kind", fmt.Errorf("%w: \"photos\"", model.ErrKindMismatch), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeBody(t, rec)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteError_StoreMessageSurfaced(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &model.StoreError{
		Op:      "create category",
		Kind:    model.ErrConstraintViolation,
		Message: `duplicate key value violates unique constraint "categories_title_key"`,
	})

	resp := decodeBody(t, rec)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Details, "categories_title_key")
}

func TestWriteError_DenialCarriesRules(t *testing.T) {
	err := permission.Check(model.Session{SubjectID: "u1", Role: model.RoleUser}, permission.ActionArchive, permission.Folder("u1"))
	require.Error(t, err)

	rec := httptest.NewRecorder()
	writeError(rec, err)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeBody(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "PERMISSION_DENIED", resp.Error.Code)
	assert.Equal(t, permission.Rules, resp.Error.Rules)
}

func TestParseHelpers(t *testing.T) {
	assert.Equal(t, 7, parseIntOrDefault("7", 1))
	assert.Equal(t, 1, parseIntOrDefault("x", 1))
	assert.Equal(t, 1, parseIntOrDefault(" ", 1))

	assert.Nil(t, parseOptionalBool(""))
	require.NotNil(t, parseOptionalBool("true"))
	assert.True(t, *parseOptionalBool("true"))
	assert.False(t, *parseOptionalBool("0"))

	assert.Equal(t, "512 B", humanizeBytes(512))
	assert.Equal(t, "1.5 KiB", humanizeBytes(1536))
	assert.Equal(t, "2.0 MiB", humanizeBytes(2<<20))
}
