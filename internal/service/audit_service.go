package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go-case-records/internal/model"
	"go-case-records/internal/permission"
	"go-case-records/pkg/apierror"
)

const (
	auditStatusSuccess = "success"
	auditStatusFailed  = "failed"
)

type AuditService struct {
	store auditStore
}

func NewAuditService(store auditStore) *AuditService {
	return &AuditService{store: store}
}

// Log records one mutation outcome. It never fails the caller.
func (s *AuditService) Log(ctx context.Context, action string, session model.Session, resource string, before any, after any, opErr error) {
	if s == nil || s.store == nil {
		return
	}

	entry := model.AuditEntry{
		Action:     action,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:      model.ActorFromSession(session),
		Status:     auditStatusSuccess,
		Resource:   resource,
		Before:     before,
		After:      after,
	}
	if opErr != nil {
		entry.Status = auditStatusFailed
		entry.Error = opErr.Error()
	}

	if err := s.store.Log(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("audit entry not written", "action", action, "resource", resource, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, session model.Session, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	if err := permission.Check(session, permission.ActionAudit, permission.Target{}); err != nil {
		return nil, model.Meta{}, err
	}

	if _, err := parseOptionalAuditTime(query.From); err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'from' datetime format", query.From)
	}
	if _, err := parseOptionalAuditTime(query.To); err != nil {
		return nil, model.Meta{}, apierror.BadRequest("invalid 'to' datetime format", query.To)
	}

	return s.store.Query(ctx, query)
}

func parseOptionalAuditTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}

	if value, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return value.UTC(), nil
	}

	value, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return value.UTC(), nil
}
