package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go-case-records/internal/model"
)

var (
	archiveOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cases_archive_operations_total",
		Help: "Archive and restore attempts by target and outcome.",
	}, []string{"operation", "target", "outcome"})

	activityStampFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cases_activity_stamp_failures_total",
		Help: "Activity stamps that could not be written.",
	}, []string{"activity"})
)

// outcome buckets an error into a low-cardinality label value.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrPermissionDenied):
		return "denied"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrNotArchived), errors.Is(err, model.ErrAlreadyArchived):
		return "unchanged"
	case errors.Is(err, model.ErrConnectionFailed):
		return "unavailable"
	default:
		return "error"
	}
}
