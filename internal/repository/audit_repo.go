package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Log stores one mutation record. Snapshots are written as JSONB.
func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	occurredAt := time.Now().UTC()
	if entry.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, entry.OccurredAt)
		if err != nil {
			return fmt.Errorf("audit occurred_at: %w", err)
		}
		occurredAt = parsed
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_entries
		 (action, occurred_at, actor_user_id, actor_name, actor_role, actor_ip,
		  status, resource, before_data, after_data, error_text)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.Action, occurredAt,
		entry.Actor.UserID, entry.Actor.Name, entry.Actor.Role, entry.Actor.IP,
		entry.Status, entry.Resource, entry.Before, entry.After, entry.Error)
	if err != nil {
		return classify("log audit entry", err)
	}
	return nil
}

func auditFilter(query model.AuditQuery) conditions {
	var cond conditions
	if action := strings.TrimSpace(query.Action); action != "" {
		cond.add("lower(action) = lower($%d)", action)
	}
	if actorID := strings.TrimSpace(query.ActorID); actorID != "" {
		cond.add("actor_user_id = $%d", actorID)
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		cond.add("lower(status) = lower($%d)", status)
	}
	if resource := strings.TrimSpace(query.Resource); resource != "" {
		cond.add("lower(resource) LIKE lower($%d)", "%"+resource+"%")
	}
	if from := strings.TrimSpace(query.From); from != "" {
		cond.add("occurred_at >= $%d::timestamptz", from)
	}
	if to := strings.TrimSpace(query.To); to != "" {
		cond.add("occurred_at <= $%d::timestamptz", to)
	}
	return cond
}

// Query pages through the log, newest first. The total comes from a window
// count on the page itself; only a page past the end needs a second query.
func (r *AuditRepository) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	query.Page = max(query.Page, 1)
	if query.Limit <= 0 {
		query.Limit = defaultAuditLimit
	}
	query.Limit = min(query.Limit, maxAuditLimit)

	cond := auditFilter(query)
	dataQuery := fmt.Sprintf(
		`SELECT action, occurred_at, actor_user_id, actor_name, actor_role, actor_ip,
		        status, resource, before_data, after_data, error_text,
		        count(*) OVER () AS total
		 FROM audit_entries %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`, cond.where(), cond.next(), cond.next()+1)
	args := append(cond.args, query.Limit, (query.Page-1)*query.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, model.Meta{}, classify("query audit entries", err)
	}

	var total int
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AuditEntry, error) {
		var e model.AuditEntry
		var occurredAt time.Time
		err := row.Scan(
			&e.Action, &occurredAt,
			&e.Actor.UserID, &e.Actor.Name, &e.Actor.Role, &e.Actor.IP,
			&e.Status, &e.Resource, &e.Before, &e.After, &e.Error, &total,
		)
		e.OccurredAt = occurredAt.UTC().Format(time.RFC3339Nano)
		return e, err
	})
	if err != nil {
		return nil, model.Meta{}, classify("scan audit entries", err)
	}

	if len(entries) == 0 && query.Page > 1 {
		if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM audit_entries "+cond.where(), cond.args...).Scan(&total); err != nil {
			return nil, model.Meta{}, classify("count audit entries", err)
		}
	}

	meta := model.Meta{Page: query.Page, Limit: query.Limit, Total: total}
	if total > 0 {
		meta.TotalPages = (total + query.Limit - 1) / query.Limit
	}
	return entries, meta, nil
}
