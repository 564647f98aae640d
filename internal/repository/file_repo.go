package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-case-records/internal/model"
)

const fileColumns = `folder_id, title, incident_summary, storage_path, is_archived,
	created_by, updated_by, created_at, updated_at,
	viewed_by, viewed_at, downloaded_by, downloaded_at, printed_by, printed_at`

// FileRepository serves all four kind tables. Every statement is built from
// the kind's table and primary key.
type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

func selectFiles(table model.KindTable) string {
	return fmt.Sprintf(`SELECT t.%s, %s FROM %s t`, table.PrimaryKey, prefixed("t", fileColumns), table.Table)
}

func scanFile(kind model.FileKind, row pgx.Row) (model.FileRecord, error) {
	rec := model.FileRecord{Kind: kind}
	err := row.Scan(
		&rec.ID, &rec.FolderID, &rec.Title, &rec.IncidentSummary, &rec.StoragePath, &rec.IsArchived,
		&rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Viewed.By, &rec.Viewed.At,
		&rec.Downloaded.By, &rec.Downloaded.At,
		&rec.Printed.By, &rec.Printed.At,
	)
	return rec, err
}

func collectFiles(kind model.FileKind, rows pgx.Rows) ([]model.FileRecord, error) {
	defer rows.Close()

	out := make([]model.FileRecord, 0)
	for rows.Next() {
		rec, err := scanFile(kind, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *FileRepository) Create(ctx context.Context, rec model.FileRecord) (model.FileRecord, error) {
	table, err := rec.Kind.Table()
	if err != nil {
		return model.FileRecord{}, err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (folder_id, title, incident_summary, storage_path, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())
		 RETURNING %s, %s`, table.Table, table.PrimaryKey, fileColumns)

	created, err := scanFile(rec.Kind, r.pool.QueryRow(ctx, query,
		rec.FolderID, rec.Title, rec.IncidentSummary, rec.StoragePath, rec.CreatedBy))
	if err != nil {
		return model.FileRecord{}, classify("create "+string(rec.Kind)+" file", err)
	}
	return created, nil
}

func (r *FileRepository) FindByID(ctx context.Context, ref model.FileRef) (model.FileRecord, error) {
	table, err := ref.Kind.Table()
	if err != nil {
		return model.FileRecord{}, err
	}

	query := selectFiles(table) + fmt.Sprintf(` WHERE t.%s = $1`, table.PrimaryKey)
	rec, err := scanFile(ref.Kind, r.pool.QueryRow(ctx, query, ref.ID))
	if err != nil {
		return model.FileRecord{}, classify("find file "+ref.String(), err)
	}
	return rec, nil
}

// ListActive returns unarchived rows outside archived folders, optionally
// restricted to one folder.
func (r *FileRepository) ListActive(ctx context.Context, kind model.FileKind, folderID *int64) ([]model.FileRecord, error) {
	table, err := kind.Table()
	if err != nil {
		return nil, err
	}

	query := selectFiles(table) + `
		WHERE t.is_archived = false
		  AND NOT EXISTS (SELECT 1 FROM folders f WHERE f.id = t.folder_id AND f.is_archived)`
	args := []any{}
	if folderID != nil {
		query += ` AND t.folder_id = $1`
		args = append(args, *folderID)
	}
	query += ` ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list active "+string(kind)+" files", err)
	}
	recs, err := collectFiles(kind, rows)
	if err != nil {
		return nil, classify("scan "+string(kind)+" files", err)
	}
	return recs, nil
}

// ListArchived returns archived rows whose parent folder, if any, is not
// itself archived. Those are listed under the folder instead.
func (r *FileRepository) ListArchived(ctx context.Context, kind model.FileKind) ([]model.FileRecord, error) {
	table, err := kind.Table()
	if err != nil {
		return nil, err
	}

	query := selectFiles(table) + `
		WHERE t.is_archived = true
		  AND NOT EXISTS (SELECT 1 FROM folders f WHERE f.id = t.folder_id AND f.is_archived)
		ORDER BY t.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, classify("list archived "+string(kind)+" files", err)
	}
	recs, err := collectFiles(kind, rows)
	if err != nil {
		return nil, classify("scan "+string(kind)+" files", err)
	}
	return recs, nil
}

func byFoldersQuery(kind model.FileKind) (string, error) {
	table, err := kind.Table()
	if err != nil {
		return "", err
	}
	return selectFiles(table) + ` WHERE t.folder_id = ANY($1) ORDER BY t.created_at DESC`, nil
}

// FileUpdate holds the columns an edit may change. Nil leaves the column as is.
type FileUpdate struct {
	Title           *string
	IncidentSummary *string
	StoragePath     *string
}

// Update applies the change and records the editor in the same statement.
func (r *FileRepository) Update(ctx context.Context, ref model.FileRef, change FileUpdate, actorID string) (model.FileRecord, error) {
	table, err := ref.Kind.Table()
	if err != nil {
		return model.FileRecord{}, err
	}
	byCol, atCol, err := model.ActivityEdit.Columns()
	if err != nil {
		return model.FileRecord{}, err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET
		    title = COALESCE($2, title),
		    incident_summary = COALESCE($3, incident_summary),
		    storage_path = COALESCE($4, storage_path),
		    %s = $5, %s = now()
		 WHERE %s = $1
		 RETURNING %s, %s`,
		table.Table, byCol, atCol, table.PrimaryKey, table.PrimaryKey, fileColumns)

	rec, err := scanFile(ref.Kind, r.pool.QueryRow(ctx, query,
		ref.ID, change.Title, change.IncidentSummary, change.StoragePath, actorID))
	if err != nil {
		return model.FileRecord{}, classify("update file "+ref.String(), err)
	}
	return rec, nil
}

// SetArchived flips the archive flag. A row already in the requested state
// reports ErrAlreadyArchived or ErrNotArchived; a missing row ErrNotFound.
func (r *FileRepository) SetArchived(ctx context.Context, ref model.FileRef, archived bool, actorID string) error {
	table, err := ref.Kind.Table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`UPDATE %s SET is_archived = $2, updated_by = $3, updated_at = now()
		 WHERE %s = $1 AND is_archived <> $2`, table.Table, table.PrimaryKey)

	tag, err := r.pool.Exec(ctx, query, ref.ID, archived, actorID)
	if err != nil {
		return classify("set archived "+ref.String(), err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.exists(ctx, table, ref.ID)
	if err != nil {
		return err
	}
	return unchangedArchiveState("set archived "+ref.String(), exists, archived)
}

func (r *FileRepository) exists(ctx context.Context, table model.KindTable, id int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, table.Table, table.PrimaryKey)
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, classify("check file exists", err)
	}
	return exists, nil
}

// Stamp records actorID as the latest performer of activity.
func (r *FileRepository) Stamp(ctx context.Context, ref model.FileRef, activity model.Activity, actorID string) error {
	table, err := ref.Kind.Table()
	if err != nil {
		return err
	}
	byCol, atCol, err := activity.Columns()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = now() WHERE %s = $1`,
		table.Table, byCol, atCol, table.PrimaryKey)

	tag, err := r.pool.Exec(ctx, query, ref.ID, actorID)
	if err != nil {
		return classify("stamp "+activity.String()+" "+ref.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("stamp " + activity.String() + " " + ref.String())
	}
	return nil
}

func unchangedArchiveState(op string, exists bool, archived bool) error {
	switch {
	case !exists:
		return notFound(op)
	case archived:
		return fmt.Errorf("%s: %w", op, model.ErrAlreadyArchived)
	default:
		return fmt.Errorf("%s: %w", op, model.ErrNotArchived)
	}
}

// prefixed qualifies each column in a comma separated list with alias.
func prefixed(alias string, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}
