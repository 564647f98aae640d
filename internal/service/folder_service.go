package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-case-records/internal/event"
	"go-case-records/internal/model"
	"go-case-records/internal/normalize"
	"go-case-records/internal/permission"
	"go-case-records/internal/repository"
	"go-case-records/pkg/apierror"
)

type FolderService struct {
	folders folderStore
	archive *ArchiveService
	names   *NameResolver
	bus     event.Bus
}

func NewFolderService(folders folderStore, archive *ArchiveService, names *NameResolver, bus event.Bus) *FolderService {
	return &FolderService{folders: folders, archive: archive, names: names, bus: bus}
}

// Create inserts the folder together with its category links. New category
// titles are created on the way.
func (s *FolderService) Create(ctx context.Context, session model.Session, req model.CreateFolderRequest) (model.FolderView, error) {
	if err := permission.Check(session, permission.ActionAdd, permission.Folder(session.SubjectID)); err != nil {
		return model.FolderView{}, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.FolderView{}, apierror.Validation("title is required", "")
	}
	status := req.Status
	if status == "" {
		status = model.StatusPending
	}
	if !status.Valid() {
		return model.FolderView{}, apierror.Validation("invalid folder status", string(status))
	}

	created, err := s.folders.CreateWithCategories(ctx, model.Folder{
		Title:        title,
		Status:       status,
		CreatedBy:    session.SubjectID,
		IsBlotter:    req.IsBlotter,
		IsWomenCase:  req.IsWomenCase,
		IsExtraction: req.IsExtraction,
	}, repository.CategorySelection{IDs: req.CategoryIDs, NewTitles: req.NewCategoryTitles})
	if err != nil {
		return model.FolderView{}, err
	}

	s.publish(event.TypeFolderCreated, session, created.ID)
	return s.withCategories(ctx, created)
}

func (s *FolderService) Update(ctx context.Context, session model.Session, id int64, req model.UpdateFolderRequest) (model.FolderView, error) {
	if err := permission.Check(session, permission.ActionEdit, permission.Folder("")); err != nil {
		return model.FolderView{}, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return model.FolderView{}, apierror.Validation("title cannot be empty", "")
	}
	if req.Status != nil && !req.Status.Valid() {
		return model.FolderView{}, apierror.Validation("invalid folder status", string(*req.Status))
	}

	updated, err := s.folders.UpdateWithCategories(ctx, id, repository.FolderUpdate{
		Title:             trimmed(req.Title),
		Status:            req.Status,
		ReplaceCategories: req.ReplaceCategories,
		Categories:        repository.CategorySelection{IDs: req.CategoryIDs, NewTitles: req.NewCategoryTitles},
	}, session.SubjectID)
	if err != nil {
		return model.FolderView{}, err
	}

	s.publish(event.TypeFolderUpdated, session, updated.ID)
	return s.withCategories(ctx, updated)
}

// Get returns the folder with its categories and the files the session may see.
func (s *FolderService) Get(ctx context.Context, session model.Session, id int64) (model.FolderView, error) {
	folder, err := s.folders.FindByID(ctx, id)
	if err != nil {
		return model.FolderView{}, err
	}

	children, err := s.folders.LoadChildren(ctx, []int64{id})
	if err != nil {
		return model.FolderView{}, err
	}
	files := visibleFiles(session, children.Files)
	newestFirst(files)

	names := s.names.Names(ctx, normalize.ActorIDs([]model.Folder{folder}, files))
	return normalize.FolderWithFiles(folder, names, children.Links, files), nil
}

// ListActive returns unarchived folders matching filter. Each folder's
// categories are fetched concurrently into its own slot.
func (s *FolderService) ListActive(ctx context.Context, session model.Session, filter model.FolderFilter) ([]model.FolderView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apierror.Validation("invalid folder status", string(filter.Status))
	}

	folders, err := s.folders.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}

	links := make([][]model.FolderCategory, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, folder := range folders {
		g.Go(func() error {
			found, err := s.folders.CategoriesFor(gctx, folder.ID)
			if err != nil {
				return err
			}
			links[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := s.names.Names(ctx, normalize.ActorIDs(folders, nil))
	views := make([]model.FolderView, 0, len(folders))
	for i, folder := range folders {
		views = append(views, normalize.Folder(folder, names, links[i]))
	}
	return views, nil
}

func (s *FolderService) Archive(ctx context.Context, session model.Session, id int64) error {
	return s.archive.ArchiveFolder(ctx, session, id)
}

func (s *FolderService) withCategories(ctx context.Context, folder model.Folder) (model.FolderView, error) {
	links, err := s.folders.CategoriesFor(ctx, folder.ID)
	if err != nil {
		return model.FolderView{}, err
	}
	names := s.names.Names(ctx, folder.ActorIDs())
	return normalize.Folder(folder, names, links), nil
}

func (s *FolderService) publish(typ event.Type, session model.Session, id int64) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.New(typ, session.SubjectID, event.Change{Kind: "folder", ID: id}))
}
