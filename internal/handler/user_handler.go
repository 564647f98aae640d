package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-case-records/internal/model"
	"go-case-records/internal/service"
	"go-case-records/pkg/apierror"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	users, err := h.service.List(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, users, nil)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var payload model.RegisterRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.Register(r.Context(), session, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	user, err := h.service.Get(r.Context(), session, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var payload model.UpdateProfileRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), session, userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	var payload model.ChangeRoleRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	user, err := h.service.ChangeRole(r.Context(), session, userID, payload.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), session, userID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"deleted": true}, nil)
}

func userIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(chi.URLParam(r, "id"))
	if userID == "" {
		writeError(w, apierror.BadRequest("user id is required", "id"))
		return "", false
	}
	return userID, true
}
