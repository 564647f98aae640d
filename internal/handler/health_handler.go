package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-case-records/pkg/apierror"
)

type healthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	db          healthChecker
	promHandler http.Handler
}

func NewHealthHandler(db healthChecker) *HealthHandler {
	return &HealthHandler{db: db, promHandler: promhttp.Handler()}
}

type healthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Health answers 503 while the record store does not respond to a ping.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		writeError(w, apierror.New("CONNECTION_FAILED", "record store unavailable", err.Error(), http.StatusServiceUnavailable))
		return
	}

	writeSuccess(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)}, nil)
}

func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}
