package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-case-records/internal/model"
	"go-case-records/internal/service"
	"go-case-records/pkg/apierror"
)

// maxFieldSize bounds the text parts of an upload form.
const maxFieldSize = 64 << 10

type FileHandler struct {
	service       *service.FileService
	maxUploadSize int64
}

func NewFileHandler(service *service.FileService, maxUploadSize int64) *FileHandler {
	return &FileHandler{service: service, maxUploadSize: maxUploadSize}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	kind, err := model.ParseFileKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, apierror.Validation("unknown file kind", chi.URLParam(r, "kind")))
		return
	}

	var folderID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("folder_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, apierror.BadRequest("folder_id must be a positive integer", raw))
			return
		}
		folderID = &id
	}

	files, err := h.service.ListActive(r.Context(), session, kind, folderID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, files, nil)
}

// Upload reads a multipart form whose text fields (title, incident_summary,
// folder_id) precede the "file" part. The file part is streamed straight to
// the blob store.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}

	kind, err := model.ParseFileKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, apierror.Validation("unknown file kind", chi.URLParam(r, "kind")))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.BadRequest("invalid multipart body", ""))
		return
	}

	in := service.Upload{Kind: kind}
	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			writeMultipartError(w, nextErr)
			return
		}

		if part.FormName() == "file" && strings.TrimSpace(part.FileName()) != "" {
			in.Filename = part.FileName()
			in.Body = part

			view, uploadErr := h.service.Upload(r.Context(), session, in)
			_ = part.Close()
			if uploadErr != nil {
				if isPayloadTooLarge(uploadErr) {
					writeMultipartError(w, uploadErr)
					return
				}
				writeError(w, uploadErr)
				return
			}

			writeSuccess(w, http.StatusCreated, view, nil)
			return
		}

		value, fieldErr := readField(part)
		if fieldErr != nil {
			writeMultipartError(w, fieldErr)
			return
		}
		switch part.FormName() {
		case "title":
			in.Title = value
		case "incident_summary":
			in.IncidentSummary = value
		case "folder_id":
			if value == "" {
				continue
			}
			id, err := strconv.ParseInt(value, 10, 64)
			if err != nil || id <= 0 {
				writeError(w, apierror.BadRequest("folder_id must be a positive integer", value))
				return
			}
			in.FolderID = &id
		}
	}

	writeError(w, apierror.Validation("file content is required", "file"))
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	ref, ok := fileRefParam(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), session, ref)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, view, nil)
}

// Update accepts either a JSON body or, when the content is replaced, a
// multipart form laid out like Upload.
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	ref, ok := fileRefParam(w, r)
	if !ok {
		return
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var payload model.UpdateFileRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		h.applyUpdate(w, r, session, ref, service.FileChange{Title: payload.Title, IncidentSummary: payload.IncidentSummary})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, apierror.BadRequest("invalid multipart body", ""))
		return
	}

	var change service.FileChange
	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			writeMultipartError(w, nextErr)
			return
		}

		if part.FormName() == "file" && strings.TrimSpace(part.FileName()) != "" {
			change.Replacement = &service.Replacement{Filename: part.FileName(), Body: part}
			h.applyUpdate(w, r, session, ref, change)
			_ = part.Close()
			return
		}

		value, fieldErr := readField(part)
		if fieldErr != nil {
			writeMultipartError(w, fieldErr)
			return
		}
		switch part.FormName() {
		case "title":
			change.Title = &value
		case "incident_summary":
			change.IncidentSummary = &value
		}
	}

	h.applyUpdate(w, r, session, ref, change)
}

func (h *FileHandler) applyUpdate(w http.ResponseWriter, r *http.Request, session model.Session, ref model.FileRef, change service.FileChange) {
	view, err := h.service.Update(r.Context(), session, ref, change)
	if err != nil {
		if isPayloadTooLarge(err) {
			writeMultipartError(w, err)
			return
		}
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, view, nil)
}

func (h *FileHandler) Archive(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	ref, ok := fileRefParam(w, r)
	if !ok {
		return
	}

	if err := h.service.Archive(r.Context(), session, ref); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"archived": true, "kind": ref.Kind, "id": ref.ID}, nil)
}

// Access issues a signed link for the mode in the path and records the
// activity on the row.
func (h *FileHandler) Access(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	ref, ok := fileRefParam(w, r)
	if !ok {
		return
	}

	mode := service.AccessMode(strings.ToLower(chi.URLParam(r, "mode")))
	access, err := h.service.Access(r.Context(), session, ref, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, access, nil)
}

func readField(part *multipart.Part) (string, error) {
	defer part.Close()

	raw, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func writeMultipartError(w http.ResponseWriter, err error) {
	if isPayloadTooLarge(err) {
		writeError(w, apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge))
		return
	}
	writeError(w, apierror.BadRequest("invalid multipart stream", err.Error()))
}

func isPayloadTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "request body too large")
}
