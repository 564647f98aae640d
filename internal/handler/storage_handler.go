package handler

import (
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-case-records/internal/model"
	"go-case-records/internal/permission"
	"go-case-records/internal/util"
)

type blobReader interface {
	Open(bucket string, object string) (*os.File, fs.FileInfo, error)
	VerifySigned(token string, bucket string, object string) error
	Usage() map[string][2]int64
}

// StorageHandler serves signed blob links and bucket usage.
type StorageHandler struct {
	store blobReader
}

func NewStorageHandler(store blobReader) *StorageHandler {
	return &StorageHandler{store: store}
}

// Download serves /blobs/{bucket}/* when the token query parameter covers
// exactly that object and has not expired.
func (h *StorageHandler) Download(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	object, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || object == "" {
		writeError(w, model.ErrInvalidPath)
		return
	}

	if err := h.store.VerifySigned(r.URL.Query().Get("token"), bucket, object); err != nil {
		writeError(w, err)
		return
	}

	file, info, err := h.store.Open(bucket, object)
	if err != nil {
		writeError(w, err)
		return
	}
	defer file.Close()

	name := path.Base(object)
	mimeType := mime.TypeByExtension(util.Extension(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	disposition := "attachment"
	if util.IsInlineMIME(mimeType) && r.URL.Query().Get("download") != "1" {
		disposition = "inline"
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", util.AttachmentHeader(disposition, name))
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeContent(w, r, name, info.ModTime(), file)
}

type bucketUsage struct {
	Bucket     string `json:"bucket"`
	UsedBytes  int64  `json:"used_bytes"`
	UsedHuman  string `json:"used_human"`
	QuotaBytes int64  `json:"quota_bytes,omitempty"`
}

// Stats reports bytes used per bucket. Admin only.
func (h *StorageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	session, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := permission.Check(session, permission.ActionAudit, permission.Target{}); err != nil {
		writeError(w, err)
		return
	}

	usage := h.store.Usage()
	stats := make([]bucketUsage, 0, len(usage))
	for name, u := range usage {
		stats = append(stats, bucketUsage{Bucket: name, UsedBytes: u[0], UsedHuman: humanizeBytes(u[0]), QuotaBytes: u[1]})
	}
	sort.Slice(stats, func(i, j int) bool { return strings.Compare(stats[i].Bucket, stats[j].Bucket) < 0 })

	writeSuccess(w, http.StatusOK, stats, nil)
}

func humanizeBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
