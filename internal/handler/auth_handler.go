package handler

import (
	"context"
	"net/http"
	"time"

	"go-case-records/internal/middleware"
	"go-case-records/internal/model"
	"go-case-records/internal/service"
)

type AuthHandler struct {
	service      *service.AuthService
	secureCookie bool
}

func NewAuthHandler(service *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

type loginResponse struct {
	User      model.UserView `json:"user"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	middleware.SetSessionCookie(w, result.Token, result.ExpiresAt, h.secureCookie)
	writeSuccess(w, http.StatusOK, loginResponse{User: result.User, ExpiresAt: result.ExpiresAt}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), session.SessionID); err != nil {
		writeError(w, err)
		return
	}

	middleware.ClearSessionCookie(w, h.secureCookie)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	user, err := h.service.Me(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *AuthHandler) BeginTwoFactor(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	setup, err := h.service.BeginTwoFactor(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, setup, nil)
}

func (h *AuthHandler) ConfirmTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.twoFactorCode(w, r, h.service.ConfirmTwoFactor, true)
}

func (h *AuthHandler) DisableTwoFactor(w http.ResponseWriter, r *http.Request) {
	h.twoFactorCode(w, r, h.service.DisableTwoFactor, false)
}

func (h *AuthHandler) twoFactorCode(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, session model.Session, code string) error, enabled bool) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var payload model.TwoFactorCodeRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := apply(r.Context(), session, payload.Code); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"two_factor_enabled": enabled}, nil)
}
