package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func scanCategory(row pgx.Row) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Title, &c.CreatedBy, &c.CreatedAt)
	return c, err
}

// Create inserts a category. A title clashing case-insensitively with an
// existing one is a constraint violation.
func (r *CategoryRepository) Create(ctx context.Context, title string, actorID string) (model.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`INSERT INTO categories (title, created_by, created_at)
		 VALUES ($1, $2, now())
		 RETURNING id, title, created_by, created_at`, strings.TrimSpace(title), actorID))
	if err != nil {
		return model.Category{}, classify("create category", err)
	}
	return c, nil
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, created_by, created_at FROM categories ORDER BY lower(title)`)
	if err != nil {
		return nil, classify("list categories", err)
	}
	defer rows.Close()

	categories := make([]model.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, classify("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByTitle(ctx context.Context, title string) (model.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT id, title, created_by, created_at FROM categories WHERE lower(title) = lower($1)`,
		strings.TrimSpace(title)))
	if err != nil {
		return model.Category{}, classify("find category", err)
	}
	return c, nil
}
