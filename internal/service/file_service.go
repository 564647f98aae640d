package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"go-case-records/internal/blob"
	"go-case-records/internal/event"
	"go-case-records/internal/model"
	"go-case-records/internal/normalize"
	"go-case-records/internal/permission"
	"go-case-records/internal/repository"
	"go-case-records/internal/util"
	"go-case-records/pkg/apierror"
)

type FileService struct {
	files   fileStore
	folders folderStore
	blobs   blobStore
	tracker *ActivityTracker
	archive *ArchiveService
	names   *NameResolver
	bus     event.Bus
}

func NewFileService(files fileStore, folders folderStore, blobs blobStore, tracker *ActivityTracker, archive *ArchiveService, names *NameResolver, bus event.Bus) *FileService {
	return &FileService{files: files, folders: folders, blobs: blobs, tracker: tracker, archive: archive, names: names, bus: bus}
}

// Upload describes a new file record and its content.
type Upload struct {
	Kind            model.FileKind
	FolderID        *int64
	Title           string
	IncidentSummary string
	Filename        string
	Body            io.Reader
}

// Replacement is new content for an existing record.
type Replacement struct {
	Filename string
	Body     io.Reader
}

// FileChange is an edit of a file record. Nil fields are left unchanged.
type FileChange struct {
	Title           *string
	IncidentSummary *string
	Replacement     *Replacement
}

func canView(session model.Session, kind model.FileKind) bool {
	return permission.CanPerform(session.Role, permission.ActionView, permission.File(kind, ""), session.SubjectID)
}

// visibleFiles drops records the session may not see.
func visibleFiles(session model.Session, recs []model.FileRecord) []model.FileRecord {
	out := make([]model.FileRecord, 0, len(recs))
	for _, rec := range recs {
		if canView(session, rec.Kind) {
			out = append(out, rec)
		}
	}
	return out
}

// newestFirst orders records of mixed kinds by creation time, latest first.
func newestFirst(recs []model.FileRecord) {
	sort.SliceStable(recs, func(i int, j int) bool {
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
}

// Upload stores the content first and then inserts the row. If the insert
// fails the stored object is removed again.
func (s *FileService) Upload(ctx context.Context, session model.Session, in Upload) (model.FileView, error) {
	table, err := in.Kind.Table()
	if err != nil {
		return model.FileView{}, apierror.Validation("unknown file kind", string(in.Kind))
	}
	if err := permission.Check(session, permission.ActionAdd, permission.File(in.Kind, session.SubjectID)); err != nil {
		return model.FileView{}, err
	}
	if err := permission.Check(session, permission.ActionView, permission.File(in.Kind, session.SubjectID)); err != nil {
		return model.FileView{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.FileView{}, apierror.Validation("title is required", "")
	}
	if in.Body == nil {
		return model.FileView{}, apierror.Validation("file content is required", "")
	}
	filename, err := util.SanitizeFilename(in.Filename)
	if err != nil {
		return model.FileView{}, err
	}

	if in.FolderID != nil {
		folder, err := s.folders.FindByID(ctx, *in.FolderID)
		if err != nil {
			return model.FileView{}, err
		}
		if folder.IsArchived {
			return model.FileView{}, apierror.Validation("folder is archived", folder.Title)
		}
	}

	object := blob.ObjectName(in.Kind, in.FolderID, filename)
	if _, err := s.blobs.Upload(ctx, table.Bucket, object, in.Body); err != nil {
		return model.FileView{}, err
	}

	rec, err := s.files.Create(ctx, model.FileRecord{
		Kind:            in.Kind,
		FolderID:        in.FolderID,
		Title:           title,
		IncidentSummary: strings.TrimSpace(in.IncidentSummary),
		StoragePath:     object,
		CreatedBy:       session.SubjectID,
	})
	if err != nil {
		s.discard(ctx, table.Bucket, object)
		return model.FileView{}, err
	}

	s.publish(event.TypeFileCreated, session, rec.Ref())
	return s.view(ctx, rec), nil
}

// Update edits the row. A replacement is uploaded before the row changes and
// the previous object is removed only once the row points at the new one.
func (s *FileService) Update(ctx context.Context, session model.Session, ref model.FileRef, change FileChange) (model.FileView, error) {
	table, err := ref.Kind.Table()
	if err != nil {
		return model.FileView{}, apierror.Validation("unknown file kind", string(ref.Kind))
	}
	if err := permission.Check(session, permission.ActionEdit, permission.File(ref.Kind, "")); err != nil {
		return model.FileView{}, err
	}
	if change.Title != nil && strings.TrimSpace(*change.Title) == "" {
		return model.FileView{}, apierror.Validation("title cannot be empty", "")
	}

	current, err := s.files.FindByID(ctx, ref)
	if err != nil {
		return model.FileView{}, err
	}

	update := repository.FileUpdate{Title: trimmed(change.Title), IncidentSummary: trimmed(change.IncidentSummary)}

	var uploaded string
	if change.Replacement != nil {
		filename, err := util.SanitizeFilename(change.Replacement.Filename)
		if err != nil {
			return model.FileView{}, err
		}
		uploaded = blob.ObjectName(ref.Kind, current.FolderID, filename)
		if _, err := s.blobs.Upload(ctx, table.Bucket, uploaded, change.Replacement.Body); err != nil {
			return model.FileView{}, err
		}
		update.StoragePath = &uploaded
	}

	rec, err := s.files.Update(ctx, ref, update, session.SubjectID)
	if err != nil {
		if uploaded != "" {
			s.discard(ctx, table.Bucket, uploaded)
		}
		return model.FileView{}, err
	}

	if uploaded != "" && current.StoragePath != "" {
		s.discard(ctx, table.Bucket, current.StoragePath)
	}

	s.publish(event.TypeFileUpdated, session, rec.Ref())
	return s.view(ctx, rec), nil
}

func (s *FileService) Get(ctx context.Context, session model.Session, ref model.FileRef) (model.FileView, error) {
	if _, err := ref.Kind.Table(); err != nil {
		return model.FileView{}, apierror.Validation("unknown file kind", string(ref.Kind))
	}
	if err := permission.Check(session, permission.ActionView, permission.File(ref.Kind, "")); err != nil {
		return model.FileView{}, err
	}

	rec, err := s.files.FindByID(ctx, ref)
	if err != nil {
		return model.FileView{}, err
	}
	return s.view(ctx, rec), nil
}

func (s *FileService) ListActive(ctx context.Context, session model.Session, kind model.FileKind, folderID *int64) ([]model.FileView, error) {
	if _, err := kind.Table(); err != nil {
		return nil, apierror.Validation("unknown file kind", string(kind))
	}
	if err := permission.Check(session, permission.ActionView, permission.File(kind, "")); err != nil {
		return nil, err
	}

	recs, err := s.files.ListActive(ctx, kind, folderID)
	if err != nil {
		return nil, err
	}
	names := s.names.Names(ctx, normalize.ActorIDs(nil, recs))
	return normalize.Files(recs, names), nil
}

func (s *FileService) Archive(ctx context.Context, session model.Session, ref model.FileRef) error {
	if _, err := ref.Kind.Table(); err != nil {
		return apierror.Validation("unknown file kind", string(ref.Kind))
	}
	return s.archive.ArchiveFile(ctx, session, ref)
}

// AccessMode is how the caller intends to use a signed link.
type AccessMode string

const (
	AccessView     AccessMode = "view"
	AccessDownload AccessMode = "download"
	AccessPrint    AccessMode = "print"
	AccessPreview  AccessMode = "preview"
)

// terms returns the link lifetime and the activity a mode stamps, if any.
func (m AccessMode) terms() (time.Duration, model.Activity, error) {
	switch m {
	case AccessView:
		return blob.ShortTTL, model.ActivityView, nil
	case AccessDownload:
		return blob.ShortTTL, model.ActivityDownload, nil
	case AccessPrint:
		return blob.ShortTTL, model.ActivityPrint, nil
	case AccessPreview:
		return blob.PreviewTTL, 0, nil
	default:
		return 0, 0, apierror.Validation("unknown access mode", string(m))
	}
}

// Access issues a signed link to the record's content and then stamps the
// matching activity on the row.
func (s *FileService) Access(ctx context.Context, session model.Session, ref model.FileRef, mode AccessMode) (model.AccessResponse, error) {
	ttl, activity, err := mode.terms()
	if err != nil {
		return model.AccessResponse{}, err
	}
	table, err := ref.Kind.Table()
	if err != nil {
		return model.AccessResponse{}, apierror.Validation("unknown file kind", string(ref.Kind))
	}
	if err := permission.Check(session, permission.ActionView, permission.File(ref.Kind, "")); err != nil {
		return model.AccessResponse{}, err
	}

	rec, err := s.files.FindByID(ctx, ref)
	if err != nil {
		return model.AccessResponse{}, err
	}
	if rec.StoragePath == "" {
		return model.AccessResponse{}, apierror.New(apierror.CodeNotFound, "record has no stored content", ref.String(), http.StatusNotFound)
	}

	url, err := s.blobs.SignedURL(ctx, table.Bucket, rec.StoragePath, ttl)
	if err != nil {
		return model.AccessResponse{}, err
	}

	if activity != 0 {
		s.tracker.Stamp(ctx, ref, activity, session.SubjectID)
	}

	view := s.view(ctx, rec)
	view.URL = url
	return model.AccessResponse{URL: url, ExpiresIn: int64(ttl.Seconds()), File: view}, nil
}

func (s *FileService) view(ctx context.Context, rec model.FileRecord) model.FileView {
	names := s.names.Names(ctx, rec.ActorIDs())
	return normalize.File(rec, names)
}

// discard removes an object that is no longer referenced. Failures only leave
// an orphan behind, so they are logged.
func (s *FileService) discard(ctx context.Context, bucket string, object string) {
	if err := s.blobs.Remove(context.WithoutCancel(ctx), bucket, object); err != nil && !errors.Is(err, model.ErrNotFound) {
		slog.Warn("remove unreferenced object", "bucket", bucket, "object", object, "error", err)
	}
}

func (s *FileService) publish(typ event.Type, session model.Session, ref model.FileRef) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, session.SubjectID, event.Change{Kind: string(ref.Kind), ID: ref.ID}))
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	t := strings.TrimSpace(*value)
	return &t
}
