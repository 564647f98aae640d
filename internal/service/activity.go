package service

import (
	"context"
	"log/slog"

	"go-case-records/internal/model"
)

type stamper interface {
	Stamp(ctx context.Context, ref model.FileRef, activity model.Activity, actorID string) error
}

// ActivityTracker records the latest actor of a view, download or print.
// Stamps are best-effort: a failure is logged and counted, never returned.
type ActivityTracker struct {
	files stamper
}

func NewActivityTracker(files stamper) *ActivityTracker {
	return &ActivityTracker{files: files}
}

func (t *ActivityTracker) Stamp(ctx context.Context, ref model.FileRef, activity model.Activity, actorID string) {
	if err := t.files.Stamp(ctx, ref, activity, actorID); err != nil {
		activityStampFailures.WithLabelValues(activity.String()).Inc()
		slog.Warn("activity stamp failed",
			"file", ref.String(),
			"activity", activity.String(),
			"actor_id", actorID,
			"error", err,
		)
	}
}
