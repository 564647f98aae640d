package service

import (
	"context"
	"io"
	"time"

	"go-case-records/internal/model"
	"go-case-records/internal/repository"
)

type folderStore interface {
	CreateWithCategories(ctx context.Context, f model.Folder, sel repository.CategorySelection) (model.Folder, error)
	UpdateWithCategories(ctx context.Context, id int64, change repository.FolderUpdate, actorID string) (model.Folder, error)
	FindByID(ctx context.Context, id int64) (model.Folder, error)
	ListActive(ctx context.Context, filter model.FolderFilter) ([]model.Folder, error)
	ListArchived(ctx context.Context) ([]model.Folder, error)
	CategoriesFor(ctx context.Context, folderID int64) ([]model.FolderCategory, error)
	LoadChildren(ctx context.Context, folderIDs []int64) (repository.FolderChildren, error)
	SetArchived(ctx context.Context, id int64, archived bool, actorID string) error
}

type fileStore interface {
	Create(ctx context.Context, rec model.FileRecord) (model.FileRecord, error)
	FindByID(ctx context.Context, ref model.FileRef) (model.FileRecord, error)
	ListActive(ctx context.Context, kind model.FileKind, folderID *int64) ([]model.FileRecord, error)
	ListArchived(ctx context.Context, kind model.FileKind) ([]model.FileRecord, error)
	Update(ctx context.Context, ref model.FileRef, change repository.FileUpdate, actorID string) (model.FileRecord, error)
	SetArchived(ctx context.Context, ref model.FileRef, archived bool, actorID string) error
	Stamp(ctx context.Context, ref model.FileRef, activity model.Activity, actorID string) error
}

type categoryStore interface {
	Create(ctx context.Context, title string, actorID string) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	FindByTitle(ctx context.Context, title string) (model.Category, error)
}

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	UpdateProfile(ctx context.Context, id string, change repository.ProfileUpdate) (model.User, error)
	UpdateRole(ctx context.Context, id string, role model.Role) (model.User, error)
	SetTwoFactor(ctx context.Context, id string, secret *string, enabled bool) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

type sessionStore interface {
	Create(ctx context.Context, s model.SessionRecord) error
	Validate(ctx context.Context, id string) (model.SessionRecord, error)
	Touch(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	CleanExpired(ctx context.Context) (int64, error)
}

type nameSource interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

type blobStore interface {
	Upload(ctx context.Context, bucket string, object string, body io.Reader) (int64, error)
	Remove(ctx context.Context, bucket string, object string) error
	SignedURL(ctx context.Context, bucket string, object string, ttl time.Duration) (string, error)
}
