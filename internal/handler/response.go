package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-case-records/internal/blob"
	"go-case-records/internal/middleware"
	"go-case-records/internal/model"
	"go-case-records/internal/permission"
	"go-case-records/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// errorMapping pairs a sentinel with the response it produces. Order
// matters: the first match wins.
var errorMapping = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
	{model.ErrTwoFactorRequired, http.StatusUnauthorized, "TWO_FACTOR_REQUIRED", "A two-factor code is required"},
	{model.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired, please sign in again"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required"},
	{model.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Record not found"},
	{model.ErrConstraintViolation, http.StatusConflict, "CONSTRAINT_VIOLATION", "The change conflicts with existing records"},
	{model.ErrConnectionFailed, http.StatusServiceUnavailable, "CONNECTION_FAILED", "Record store unavailable"},
	{model.ErrQuotaExceeded, http.StatusRequestEntityTooLarge, "QUOTA_EXCEEDED", "Storage quota exceeded"},
	{model.ErrInvalidPath, http.StatusBadRequest, "INVALID_PATH", "Invalid storage path"},
	{model.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"},
	{model.ErrKindMismatch, http.StatusBadRequest, "VALIDATION_FAILED", "Unknown file kind"},
	{model.ErrNotArchived, http.StatusConflict, "NOT_ARCHIVED", "Record is not archived"},
	{model.ErrAlreadyArchived, http.StatusConflict, "ALREADY_ARCHIVED", "Record is already archived"},
	{model.ErrTwoFactorNotPending, http.StatusConflict, "TWO_FACTOR_NOT_PENDING", "Two-factor enrolment has not been started"},
	{blob.ErrInvalidToken, http.StatusForbidden, "INVALID_TOKEN", "Link is invalid or has expired"},
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}

	var apiErr *apierror.APIError
	var denial *permission.Denial
	var storeErr *model.StoreError

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Status()
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
	case errors.As(err, &denial):
		status = http.StatusForbidden
		body.Code = "PERMISSION_DENIED"
		body.Message = "You do not have permission to " + string(denial.Action) + " this record"
		body.Rules = denial.Rules
	default:
		matched := false
		for _, m := range errorMapping {
			if errors.Is(err, m.target) {
				status, body.Code, body.Message = m.status, m.code, m.message
				matched = true
				break
			}
		}
		if !matched {
			slog.Error("unhandled error in writeError", "error", err.Error())
		}
		if errors.As(err, &storeErr) && storeErr.Message != "" {
			body.Details = storeErr.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}

// requireSession returns the session placed by the auth middleware. A route
// mounted without it answers 401.
func requireSession(w http.ResponseWriter, r *http.Request) (model.Session, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return model.Session{}, false
	}
	return session, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, apierror.BadRequest("request body is required", ""))
			return false
		}
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return false
	}
	return true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apierror.BadRequest(name+" must be a positive integer", raw))
		return 0, false
	}
	return id, true
}

func fileRefParam(w http.ResponseWriter, r *http.Request) (model.FileRef, bool) {
	kind, err := model.ParseFileKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, apierror.Validation("unknown file kind", chi.URLParam(r, "kind")))
		return model.FileRef{}, false
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return model.FileRef{}, false
	}
	return model.FileRef{Kind: kind, ID: id}, true
}

func parseIntOrDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func parseOptionalBool(raw string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &v
}
