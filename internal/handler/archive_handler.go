package handler

import (
	"net/http"

	"go-case-records/internal/model"
	"go-case-records/internal/service"
)

type ArchiveHandler struct {
	service *service.ArchiveService
}

func NewArchiveHandler(service *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{service: service}
}

func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	listing, err := h.service.ListArchived(r.Context(), session)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, listing, nil)
}

// Restore answers with the refreshed archive listing so the page can
// replace its state in one step.
func (h *ArchiveHandler) Restore(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	var payload model.RestoreRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.service.Restore(r.Context(), session, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}
