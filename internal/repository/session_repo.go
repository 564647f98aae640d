package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) Create(ctx context.Context, s model.SessionRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, last_validated_at)
		 VALUES ($1, $2, $3, $4, $3)`,
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return classify("create session", err)
	}
	return nil
}

// Validate returns the session if it is neither revoked nor expired.
func (r *SessionRepository) Validate(ctx context.Context, id string) (model.SessionRecord, error) {
	var s model.SessionRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at, last_validated_at
		 FROM sessions
		 WHERE id = $1 AND revoked_at IS NULL AND expires_at > now()`, id).
		Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt, &s.LastValidatedAt)
	if err != nil {
		return model.SessionRecord{}, classify("validate session", err)
	}
	return s, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sessions SET last_validated_at = now() WHERE id = $1`, id)
	if err != nil {
		return classify("touch session", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("touch session")
	}
	return nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL`, id)
	if err != nil {
		return classify("revoke session", err)
	}
	return nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sessions SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return classify("revoke user sessions", err)
	}
	return nil
}

// CleanExpired deletes expired and revoked sessions and reports how many went.
func (r *SessionRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM sessions WHERE expires_at <= now() OR revoked_at IS NOT NULL`)
	if err != nil {
		return 0, classify("clean expired sessions", err)
	}
	return tag.RowsAffected(), nil
}
