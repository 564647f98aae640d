package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"go-case-records/internal/model"
	"go-case-records/internal/repository"
)

type mockFolders struct{ mock.Mock }

func (m *mockFolders) CreateWithCategories(ctx context.Context, f model.Folder, sel repository.CategorySelection) (model.Folder, error) {
	args := m.Called(ctx, f, sel)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *mockFolders) UpdateWithCategories(ctx context.Context, id int64, change repository.FolderUpdate, actorID string) (model.Folder, error) {
	args := m.Called(ctx, id, change, actorID)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *mockFolders) FindByID(ctx context.Context, id int64) (model.Folder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Folder), args.Error(1)
}

func (m *mockFolders) ListActive(ctx context.Context, filter model.FolderFilter) ([]model.Folder, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *mockFolders) ListArchived(ctx context.Context) ([]model.Folder, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Folder), args.Error(1)
}

func (m *mockFolders) CategoriesFor(ctx context.Context, folderID int64) ([]model.FolderCategory, error) {
	args := m.Called(ctx, folderID)
	return args.Get(0).([]model.FolderCategory), args.Error(1)
}

func (m *mockFolders) LoadChildren(ctx context.Context, folderIDs []int64) (repository.FolderChildren, error) {
	args := m.Called(ctx, folderIDs)
	return args.Get(0).(repository.FolderChildren), args.Error(1)
}

func (m *mockFolders) SetArchived(ctx context.Context, id int64, archived bool, actorID string) error {
	return m.Called(ctx, id, archived, actorID).Error(0)
}

type mockFiles struct{ mock.Mock }

func (m *mockFiles) Create(ctx context.Context, rec model.FileRecord) (model.FileRecord, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(model.FileRecord), args.Error(1)
}

func (m *mockFiles) FindByID(ctx context.Context, ref model.FileRef) (model.FileRecord, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(model.FileRecord), args.Error(1)
}

func (m *mockFiles) ListActive(ctx context.Context, kind model.FileKind, folderID *int64) ([]model.FileRecord, error) {
	args := m.Called(ctx, kind, folderID)
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *mockFiles) ListArchived(ctx context.Context, kind model.FileKind) ([]model.FileRecord, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).([]model.FileRecord), args.Error(1)
}

func (m *mockFiles) Update(ctx context.Context, ref model.FileRef, change repository.FileUpdate, actorID string) (model.FileRecord, error) {
	args := m.Called(ctx, ref, change, actorID)
	return args.Get(0).(model.FileRecord), args.Error(1)
}

func (m *mockFiles) SetArchived(ctx context.Context, ref model.FileRef, archived bool, actorID string) error {
	return m.Called(ctx, ref, archived, actorID).Error(0)
}

func (m *mockFiles) Stamp(ctx context.Context, ref model.FileRef, activity model.Activity, actorID string) error {
	return m.Called(ctx, ref, activity, actorID).Error(0)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) FindByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) UpdateProfile(ctx context.Context, id string, change repository.ProfileUpdate) (model.User, error) {
	args := m.Called(ctx, id, change)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) UpdateRole(ctx context.Context, id string, role model.Role) (model.User, error) {
	args := m.Called(ctx, id, role)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUsers) SetTwoFactor(ctx context.Context, id string, secret *string, enabled bool) error {
	return m.Called(ctx, id, secret, enabled).Error(0)
}

func (m *mockUsers) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUsers) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUsers) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockUsers) NamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]string), args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) Create(ctx context.Context, s model.SessionRecord) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSessions) Validate(ctx context.Context, id string) (model.SessionRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.SessionRecord), args.Error(1)
}

func (m *mockSessions) Touch(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessions) Revoke(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessions) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessions) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockAudit struct{ mock.Mock }

func (m *mockAudit) Log(ctx context.Context, entry model.AuditEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockAudit) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]model.AuditEntry), args.Get(1).(model.Meta), args.Error(2)
}

type mockCategories struct{ mock.Mock }

func (m *mockCategories) Create(ctx context.Context, title string, actorID string) (model.Category, error) {
	args := m.Called(ctx, title, actorID)
	return args.Get(0).(model.Category), args.Error(1)
}

func (m *mockCategories) List(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *mockCategories) FindByTitle(ctx context.Context, title string) (model.Category, error) {
	args := m.Called(ctx, title)
	return args.Get(0).(model.Category), args.Error(1)
}

// staticNames answers every lookup from a fixed map.
type staticNames map[string]string

func (n staticNames) NamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range ids {
		if name, ok := n[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func sessionFor(role model.Role, id string) model.Session {
	return model.Session{SubjectID: id, Role: role, Name: string(role), SessionID: "sess-" + id}
}
