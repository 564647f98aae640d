package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

const folderColumns = `id, title, status, created_by, updated_by, created_at, updated_at,
	is_archived, is_blotter, is_womencase, is_extraction`

type FolderRepository struct {
	pool *pgxpool.Pool
}

func NewFolderRepository(pool *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

func scanFolder(row pgx.Row) (model.Folder, error) {
	var f model.Folder
	var status string
	err := row.Scan(&f.ID, &f.Title, &status, &f.CreatedBy, &f.UpdatedBy, &f.CreatedAt, &f.UpdatedAt,
		&f.IsArchived, &f.IsBlotter, &f.IsWomenCase, &f.IsExtraction)
	f.Status = model.FolderStatus(status)
	return f, err
}

func collectFolders(rows pgx.Rows) ([]model.Folder, error) {
	defer rows.Close()

	out := make([]model.Folder, 0)
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CategorySelection names existing categories and titles to create on the fly.
type CategorySelection struct {
	IDs       []int64
	NewTitles []string
}

// CreateWithCategories inserts the folder, any new categories and the
// association rows in one transaction.
func (r *FolderRepository) CreateWithCategories(ctx context.Context, f model.Folder, sel CategorySelection) (model.Folder, error) {
	var created model.Folder

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = scanFolder(tx.QueryRow(ctx,
			`INSERT INTO folders (title, status, created_by, created_at, updated_at, is_blotter, is_womencase, is_extraction)
			 VALUES ($1, $2, $3, now(), now(), $4, $5, $6)
			 RETURNING `+folderColumns,
			f.Title, string(f.Status), f.CreatedBy, f.IsBlotter, f.IsWomenCase, f.IsExtraction))
		if err != nil {
			return err
		}

		ids, err := ensureCategories(ctx, tx, sel, f.CreatedBy)
		if err != nil {
			return err
		}
		return linkCategories(ctx, tx, created.ID, ids)
	})
	if err != nil {
		return model.Folder{}, classify("create folder", err)
	}
	return created, nil
}

// FolderUpdate holds the columns an edit may change. Nil leaves the column as is.
type FolderUpdate struct {
	Title             *string
	Status            *model.FolderStatus
	ReplaceCategories bool
	Categories        CategorySelection
}

// UpdateWithCategories updates the folder row and, when requested, replaces
// its category links, in one transaction.
func (r *FolderRepository) UpdateWithCategories(ctx context.Context, id int64, change FolderUpdate, actorID string) (model.Folder, error) {
	var status *string
	if change.Status != nil {
		s := string(*change.Status)
		status = &s
	}

	var updated model.Folder
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		updated, err = scanFolder(tx.QueryRow(ctx,
			`UPDATE folders SET
			    title = COALESCE($2, title),
			    status = COALESCE($3, status),
			    updated_by = $4, updated_at = now()
			 WHERE id = $1
			 RETURNING `+folderColumns,
			id, change.Title, status, actorID))
		if err != nil {
			return err
		}

		if !change.ReplaceCategories {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM folder_categories WHERE folder_id = $1`, id); err != nil {
			return err
		}
		ids, err := ensureCategories(ctx, tx, change.Categories, actorID)
		if err != nil {
			return err
		}
		return linkCategories(ctx, tx, id, ids)
	})
	if err != nil {
		return model.Folder{}, classify("update folder", err)
	}
	return updated, nil
}

// ensureCategories returns the selected ids followed by the ids of the new
// titles. A new title matching an existing category reuses it.
func ensureCategories(ctx context.Context, q querier, sel CategorySelection, actorID string) ([]int64, error) {
	ids := make([]int64, 0, len(sel.IDs)+len(sel.NewTitles))
	seen := make(map[int64]struct{}, cap(ids))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, id := range sel.IDs {
		add(id)
	}

	for _, title := range sel.NewTitles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		var id int64
		err := q.QueryRow(ctx,
			`INSERT INTO categories (title, created_by, created_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT ((lower(title))) DO UPDATE SET title = categories.title
			 RETURNING id`, title, actorID).Scan(&id)
		if err != nil {
			return nil, err
		}
		add(id)
	}

	return ids, nil
}

func linkCategories(ctx context.Context, tx pgx.Tx, folderID int64, categoryIDs []int64) error {
	if len(categoryIDs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, categoryID := range categoryIDs {
		batch.Queue(`INSERT INTO folder_categories (folder_id, category_id) VALUES ($1, $2)`, folderID, categoryID)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func (r *FolderRepository) FindByID(ctx context.Context, id int64) (model.Folder, error) {
	f, err := scanFolder(r.pool.QueryRow(ctx, `SELECT `+folderColumns+` FROM folders WHERE id = $1`, id))
	if err != nil {
		return model.Folder{}, classify(fmt.Sprintf("find folder %d", id), err)
	}
	return f, nil
}

func (r *FolderRepository) ListActive(ctx context.Context, filter model.FolderFilter) ([]model.Folder, error) {
	var cond conditions
	cond.addRaw("is_archived = false")
	if filter.Status != "" {
		cond.add("status = $%d", string(filter.Status))
	}
	if filter.CategoryID > 0 {
		cond.add("EXISTS (SELECT 1 FROM folder_categories fc WHERE fc.folder_id = folders.id AND fc.category_id = $%d)", filter.CategoryID)
	}
	if filter.IsBlotter != nil {
		cond.add("is_blotter = $%d", *filter.IsBlotter)
	}
	if filter.IsWomenCase != nil {
		cond.add("is_womencase = $%d", *filter.IsWomenCase)
	}
	if filter.IsExtraction != nil {
		cond.add("is_extraction = $%d", *filter.IsExtraction)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		cond.add("title ILIKE $%d", "%"+search+"%")
	}

	query := `SELECT ` + folderColumns + ` FROM folders ` + cond.where() + ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, cond.args...)
	if err != nil {
		return nil, classify("list active folders", err)
	}
	folders, err := collectFolders(rows)
	if err != nil {
		return nil, classify("scan folders", err)
	}
	return folders, nil
}

func (r *FolderRepository) ListArchived(ctx context.Context) ([]model.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE is_archived = true ORDER BY created_at DESC`)
	if err != nil {
		return nil, classify("list archived folders", err)
	}
	folders, err := collectFolders(rows)
	if err != nil {
		return nil, classify("scan folders", err)
	}
	return folders, nil
}

const categoryLinksQuery = `SELECT fc.folder_id, c.id, c.title, c.created_by, c.created_at
	FROM folder_categories fc
	JOIN categories c ON c.id = fc.category_id
	WHERE fc.folder_id = ANY($1)
	ORDER BY fc.id`

func collectLinks(rows pgx.Rows) ([]model.FolderCategory, error) {
	defer rows.Close()

	out := make([]model.FolderCategory, 0)
	for rows.Next() {
		var link model.FolderCategory
		if err := rows.Scan(&link.FolderID, &link.Category.ID, &link.Category.Title,
			&link.Category.CreatedBy, &link.Category.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

func (r *FolderRepository) CategoriesFor(ctx context.Context, folderID int64) ([]model.FolderCategory, error) {
	return r.CategoriesForMany(ctx, []int64{folderID})
}

func (r *FolderRepository) CategoriesForMany(ctx context.Context, folderIDs []int64) ([]model.FolderCategory, error) {
	if len(folderIDs) == 0 {
		return []model.FolderCategory{}, nil
	}

	rows, err := r.pool.Query(ctx, categoryLinksQuery, folderIDs)
	if err != nil {
		return nil, classify("list folder categories", err)
	}
	links, err := collectLinks(rows)
	if err != nil {
		return nil, classify("scan folder categories", err)
	}
	return links, nil
}

// FolderChildren is everything hanging off a set of folders.
type FolderChildren struct {
	Links []model.FolderCategory
	Files []model.FileRecord
}

// LoadChildren fetches category links and files of every kind for the given
// folders in a single batch round trip.
func (r *FolderRepository) LoadChildren(ctx context.Context, folderIDs []int64) (FolderChildren, error) {
	children := FolderChildren{Links: []model.FolderCategory{}, Files: []model.FileRecord{}}
	if len(folderIDs) == 0 {
		return children, nil
	}

	batch := &pgx.Batch{}
	batch.Queue(categoryLinksQuery, folderIDs)
	for _, kind := range model.FileKinds {
		query, err := byFoldersQuery(kind)
		if err != nil {
			return FolderChildren{}, err
		}
		batch.Queue(query, folderIDs)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	rows, err := results.Query()
	if err != nil {
		return FolderChildren{}, classify("load folder categories", err)
	}
	if children.Links, err = collectLinks(rows); err != nil {
		return FolderChildren{}, classify("scan folder categories", err)
	}

	for _, kind := range model.FileKinds {
		rows, err := results.Query()
		if err != nil {
			return FolderChildren{}, classify("load "+string(kind)+" files", err)
		}
		files, err := collectFiles(kind, rows)
		if err != nil {
			return FolderChildren{}, classify("scan "+string(kind)+" files", err)
		}
		children.Files = append(children.Files, files...)
	}

	return children, nil
}

// SetArchived flips the archive flag with the same outcome rules as files.
func (r *FolderRepository) SetArchived(ctx context.Context, id int64, archived bool, actorID string) error {
	op := fmt.Sprintf("set archived folder %d", id)

	tag, err := r.pool.Exec(ctx,
		`UPDATE folders SET is_archived = $2, updated_by = $3, updated_at = now()
		 WHERE id = $1 AND is_archived <> $2`, id, archived, actorID)
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	return unchangedArchiveState(op, exists, archived)
}

func (r *FolderRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM folders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, classify("check folder exists", err)
	}
	return exists, nil
}
