package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-case-records/internal/blob"
	"go-case-records/internal/config"
	"go-case-records/internal/middleware"
	"go-case-records/internal/model"
)

func withSession(r *http.Request, role model.Role) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), model.Session{SubjectID: "user-1", Role: role}))
}

func routed(method string, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	return r
}

func TestHandlers_RequireSession(t *testing.T) {
	folders := NewFolderHandler(nil)
	archive := NewArchiveHandler(nil)
	files := NewFileHandler(nil, 1024)

	for name, h := range map[string]http.HandlerFunc{
		"folders": folders.List,
		"archive": archive.List,
		"restore": archive.Restore,
		"files":   files.List,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestFolderHandler_BadID(t *testing.T) {
	h := routed(http.MethodGet, "/folders/{id}", NewFolderHandler(nil).Get)

	for _, id := range []string{"abc", "0", "-3"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/folders/"+id, nil), model.RoleAdmin))
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
}

func TestFileHandler_UnknownKind(t *testing.T) {
	h := routed(http.MethodGet, "/files/{kind}/{id}", NewFileHandler(nil, 1024).Get)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/files/photos/3", nil), model.RoleAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}

func TestFileHandler_UploadWithoutFilePart(t *testing.T) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("title", "Statement"))
	require.NoError(t, form.WriteField("folder_id", "4"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/regular", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	routed(http.MethodPost, "/files/{kind}", NewFileHandler(nil, 1<<20).Upload).ServeHTTP(rec, withSession(req, model.RoleAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "file content is required")
}

func TestFileHandler_UploadBadFolderID(t *testing.T) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("folder_id", "nope"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/files/regular", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	routed(http.MethodPost, "/files/{kind}", NewFileHandler(nil, 1<<20).Upload).ServeHTTP(rec, withSession(req, model.RoleAdmin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "folder_id")
}

func TestArchiveHandler_RestoreBadJSON(t *testing.T) {
	req := withSession(httptest.NewRequest(http.MethodPost, "/archive/restore", strings.NewReader("{")), model.RoleAdmin)
	rec := httptest.NewRecorder()

	NewArchiveHandler(nil).Restore(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func newBlobStore(t *testing.T) *blob.Store {
	t.Helper()
	store, err := blob.New(t.TempDir(), config.DefaultBuckets(1<<20), blob.NewSigner("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return store
}

func TestStorageHandler_SignedDownload(t *testing.T) {
	store := newBlobStore(t)
	ctx := context.Background()

	_, err := store.Upload(ctx, model.BucketFiles, "folder_2/report.txt", strings.NewReader("blotter entry"))
	require.NoError(t, err)
	link, err := store.SignedURL(ctx, model.BucketFiles, "folder_2/report.txt", blob.ShortTTL)
	require.NoError(t, err)

	h := routed(http.MethodGet, "/blobs/{bucket}/*", NewStorageHandler(store).Download)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, link, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blotter entry", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "inline"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, link+"&download=1", nil))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/files/folder_2/report.txt?token=forged", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// a token for one object does not open another
	_, err = store.Upload(ctx, model.BucketFiles, "folder_2/other.txt", strings.NewReader("x"))
	require.NoError(t, err)
	other := strings.Replace(link, "report.txt", "other.txt", 1)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, other, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStorageHandler_StatsAdminOnly(t *testing.T) {
	store := newBlobStore(t)
	h := NewStorageHandler(store)

	rec := httptest.NewRecorder()
	h.Stats(rec, withSession(httptest.NewRequest(http.MethodGet, "/storage", nil), model.RoleUser))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.Stats(rec, withSession(httptest.NewRequest(http.MethodGet, "/storage", nil), model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bucket":"files"`)
	assert.Contains(t, rec.Body.String(), `"bucket":"womenchildren_files"`)
}

type fakeDB struct{ err error }

func (f fakeDB) Health(context.Context) error { return f.err }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(fakeDB{}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(fakeDB{err: assert.AnError}).Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "CONNECTION_FAILED")
}
