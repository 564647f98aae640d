package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

const userColumns = `id, auth_subject, name, email, password_hash, role,
	two_factor_secret, two_factor_enabled, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.AuthSubject, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.TwoFactorSecret, &u.TwoFactorEnabled, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return model.User{}, classify("find user by id", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if err != nil {
		return model.User{}, classify("find user by email", err)
	}
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	created, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (id, auth_subject, name, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING `+userColumns,
		u.ID, u.AuthSubject, u.Name, u.Email, u.PasswordHash, string(u.Role)))
	if err != nil {
		return model.User{}, classify("create user", err)
	}
	return created, nil
}

// ProfileUpdate holds the columns a profile edit may change. Nil leaves the column as is.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id string, change ProfileUpdate) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET
		    name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    password_hash = COALESCE($4, password_hash),
		    updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, change.Name, change.Email, change.PasswordHash))
	if err != nil {
		return model.User{}, classify("update user profile", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		id, string(role)))
	if err != nil {
		return model.User{}, classify("update user role", err)
	}
	return u, nil
}

// SetTwoFactor stores the TOTP secret and whether it is active. A nil
// secret clears enrolment.
func (r *UserRepository) SetTwoFactor(ctx context.Context, id string, secret *string, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET two_factor_secret = $2, two_factor_enabled = $3, updated_at = now() WHERE id = $1`,
		id, secret, enabled)
	if err != nil {
		return classify("set two-factor", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("set two-factor")
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return classify("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("delete user")
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY lower(name)`)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

// NamesByIDs returns display names for the given ids. Unknown ids are absent.
func (r *UserRepository) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, classify("resolve user names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, classify("scan user name", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve user names: %w", err)
	}
	return names, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, classify("count users", err)
	}
	return count, nil
}
