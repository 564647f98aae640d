package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"go-case-records/internal/event"
	"go-case-records/internal/model"
	"go-case-records/internal/normalize"
	"go-case-records/internal/permission"
	"go-case-records/internal/repository"
	"go-case-records/pkg/apierror"
)

// ArchiveService moves folders and files between the active and archived
// states and builds the archive listing.
type ArchiveService struct {
	folders folderStore
	files   fileStore
	names   *NameResolver
	audit   *AuditService
	bus     event.Bus
}

func NewArchiveService(folders folderStore, files fileStore, names *NameResolver, audit *AuditService, bus event.Bus) *ArchiveService {
	return &ArchiveService{folders: folders, files: files, names: names, audit: audit, bus: bus}
}

// ListArchived returns archived folders with their categories and files,
// plus archived files of every kind that are not inside an archived folder.
func (s *ArchiveService) ListArchived(ctx context.Context, session model.Session) (model.ArchiveListing, error) {
	folders, err := s.folders.ListArchived(ctx)
	if err != nil {
		return model.ArchiveListing{}, err
	}

	folderIDs := make([]int64, 0, len(folders))
	for _, f := range folders {
		folderIDs = append(folderIDs, f.ID)
	}

	var children repository.FolderChildren
	perKind := make([][]model.FileRecord, len(model.FileKinds))

	g, gctx := errgroup.WithContext(ctx)
	if len(folderIDs) > 0 {
		g.Go(func() error {
			loaded, err := s.folders.LoadChildren(gctx, folderIDs)
			if err != nil {
				return err
			}
			children = loaded
			return nil
		})
	}
	for i, kind := range model.FileKinds {
		g.Go(func() error {
			recs, err := s.files.ListArchived(gctx, kind)
			if err != nil {
				return err
			}
			perKind[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.ArchiveListing{}, err
	}

	loose := make([]model.FileRecord, 0)
	for _, recs := range perKind {
		loose = append(loose, visibleFiles(session, recs)...)
	}
	newestFirst(loose)
	nested := visibleFiles(session, children.Files)
	newestFirst(nested)

	referenced := make([]model.FileRecord, 0, len(nested)+len(loose))
	referenced = append(referenced, nested...)
	referenced = append(referenced, loose...)
	names := s.names.Names(ctx, normalize.ActorIDs(folders, referenced))

	listing := model.ArchiveListing{
		Folders: make([]model.FolderView, 0, len(folders)),
		Files:   normalize.Files(loose, names),
	}
	for _, f := range folders {
		listing.Folders = append(listing.Folders, normalize.FolderWithFiles(f, names, children.Links, nested))
	}
	return listing, nil
}

func (s *ArchiveService) ArchiveFolder(ctx context.Context, session model.Session, id int64) error {
	err := permission.Check(session, permission.ActionArchive, permission.Folder(""))
	if err == nil {
		err = s.folders.SetArchived(ctx, id, true, session.SubjectID)
	}
	s.record(ctx, session, "archive", "folder", fmt.Sprintf("folder/%d", id), err)
	if err != nil {
		return err
	}

	s.publish(event.TypeFolderArchived, session, event.Change{Kind: "folder", ID: id})
	return nil
}

func (s *ArchiveService) ArchiveFile(ctx context.Context, session model.Session, ref model.FileRef) error {
	err := permission.Check(session, permission.ActionArchive, permission.File(ref.Kind, ""))
	if err == nil {
		err = s.files.SetArchived(ctx, ref, true, session.SubjectID)
	}
	s.record(ctx, session, "archive", "file", ref.String(), err)
	if err != nil {
		return err
	}

	s.publish(event.TypeFileArchived, session, event.Change{Kind: string(ref.Kind), ID: ref.ID})
	return nil
}

func (s *ArchiveService) RestoreFolder(ctx context.Context, session model.Session, id int64) error {
	err := permission.Check(session, permission.ActionRestore, permission.Folder(""))
	if err == nil {
		err = s.folders.SetArchived(ctx, id, false, session.SubjectID)
	}
	s.record(ctx, session, "restore", "folder", fmt.Sprintf("folder/%d", id), err)
	if err != nil {
		return err
	}

	s.publish(event.TypeFolderRestored, session, event.Change{Kind: "folder", ID: id})
	return nil
}

// RestoreFile flips the row in the table the kind maps to, keyed by that
// table's own primary key.
func (s *ArchiveService) RestoreFile(ctx context.Context, session model.Session, ref model.FileRef) error {
	err := permission.Check(session, permission.ActionRestore, permission.File(ref.Kind, ""))
	if err == nil {
		err = s.files.SetArchived(ctx, ref, false, session.SubjectID)
	}
	s.record(ctx, session, "restore", "file", ref.String(), err)
	if err != nil {
		return err
	}

	s.publish(event.TypeFileRestored, session, event.Change{Kind: string(ref.Kind), ID: ref.ID})
	return nil
}

// Restore handles a restore request from the archive page and answers with
// the archive listing as it stands afterwards.
func (s *ArchiveService) Restore(ctx context.Context, session model.Session, req model.RestoreRequest) (model.RestoreResponse, error) {
	if req.ID <= 0 {
		return model.RestoreResponse{}, apierror.Validation("id must be a positive integer", "")
	}

	switch req.Target {
	case model.RestoreTargetFolder:
		req.Kind = ""
		if err := s.RestoreFolder(ctx, session, req.ID); err != nil {
			return model.RestoreResponse{}, err
		}
	case model.RestoreTargetFile:
		kind, err := model.ParseFileKind(string(req.Kind))
		if err != nil {
			return model.RestoreResponse{}, apierror.Validation("unknown file kind", string(req.Kind))
		}
		req.Kind = kind
		if err := s.RestoreFile(ctx, session, model.FileRef{Kind: kind, ID: req.ID}); err != nil {
			return model.RestoreResponse{}, err
		}
	default:
		return model.RestoreResponse{}, apierror.Validation("target must be folder or file", string(req.Target))
	}

	listing, err := s.ListArchived(ctx, session)
	if err != nil {
		return model.RestoreResponse{}, fmt.Errorf("restored %s %d, refresh archive: %w", req.Target, req.ID, err)
	}
	return model.RestoreResponse{Restored: req, Archive: listing}, nil
}

func (s *ArchiveService) record(ctx context.Context, session model.Session, operation string, target string, resource string, err error) {
	archiveOperations.WithLabelValues(operation, target, outcome(err)).Inc()
	s.audit.Log(ctx, target+"."+operation, session, resource, nil, nil, err)
}

func (s *ArchiveService) publish(typ event.Type, session model.Session, change event.Change) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, session.SubjectID, change))
}
