package handler

import (
	"net/http"
	"strconv"
	"strings"

	"go-case-records/internal/model"
	"go-case-records/internal/service"
)

type FolderHandler struct {
	service *service.FolderService
}

func NewFolderHandler(service *service.FolderService) *FolderHandler {
	return &FolderHandler{service: service}
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := model.FolderFilter{
		Status:       model.FolderStatus(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		IsBlotter:    parseOptionalBool(query.Get("is_blotter")),
		IsWomenCase:  parseOptionalBool(query.Get("is_womencase")),
		IsExtraction: parseOptionalBool(query.Get("is_extraction")),
		Search:       strings.TrimSpace(query.Get("q")),
	}
	if raw := strings.TrimSpace(query.Get("category_id")); raw != "" {
		filter.CategoryID, _ = strconv.ParseInt(raw, 10, 64)
	}

	folders, err := h.service.ListActive(r.Context(), session, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, folders, nil)
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var payload model.CreateFolderRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	folder, err := h.service.Create(r.Context(), session, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, folder, nil)
}

func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	folder, err := h.service.Get(r.Context(), session, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, folder, nil)
}

func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var payload model.UpdateFolderRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	folder, err := h.service.Update(r.Context(), session, id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, folder, nil)
}

func (h *FolderHandler) Archive(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Archive(r.Context(), session, id); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"archived": true, "id": id}, nil)
}
