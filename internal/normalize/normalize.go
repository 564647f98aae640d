// Package normalize turns raw store rows into view entities.
package normalize

import "go-case-records/internal/model"

// Names maps user ids to display names.
type Names map[string]string

// Resolve returns the display name for id, or id itself when unknown.
func (n Names) Resolve(id string) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return id
}

func (n Names) resolvePtr(id *string) string {
	if id == nil {
		return ""
	}
	return n.Resolve(*id)
}

func (n Names) stamp(s model.ActivityStamp) *model.StampView {
	if s.By == nil && s.At == nil {
		return nil
	}
	return &model.StampView{By: n.resolvePtr(s.By), At: s.At}
}

// Folder shapes a folder row. Categories are taken from links belonging to
// the folder, in link order.
func Folder(row model.Folder, names Names, links []model.FolderCategory) model.FolderView {
	categories := make([]model.Category, 0)
	for _, link := range links {
		if link.FolderID == row.ID {
			categories = append(categories, link.Category)
		}
	}

	return model.FolderView{
		ID:           row.ID,
		Title:        row.Title,
		Status:       row.Status,
		CreatedBy:    names.Resolve(row.CreatedBy),
		UpdatedBy:    names.resolvePtr(row.UpdatedBy),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		IsArchived:   row.IsArchived,
		IsBlotter:    row.IsBlotter,
		IsWomenCase:  row.IsWomenCase,
		IsExtraction: row.IsExtraction,
		Categories:   categories,
	}
}

// FolderWithFiles is Folder plus the files whose folder reference points at row.
func FolderWithFiles(row model.Folder, names Names, links []model.FolderCategory, files []model.FileRecord) model.FolderView {
	view := Folder(row, names, links)
	for _, file := range files {
		if file.FolderID != nil && *file.FolderID == row.ID {
			view.Files = append(view.Files, File(file, names))
		}
	}
	return view
}

func File(row model.FileRecord, names Names) model.FileView {
	return model.FileView{
		Kind:            row.Kind,
		ID:              row.ID,
		FolderID:        row.FolderID,
		Title:           row.Title,
		IncidentSummary: row.IncidentSummary,
		StoragePath:     row.StoragePath,
		IsArchived:      row.IsArchived,
		CreatedBy:       names.Resolve(row.CreatedBy),
		UpdatedBy:       names.resolvePtr(row.UpdatedBy),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		Viewed:          names.stamp(row.Viewed),
		Downloaded:      names.stamp(row.Downloaded),
		Printed:         names.stamp(row.Printed),
	}
}

func Files(rows []model.FileRecord, names Names) []model.FileView {
	views := make([]model.FileView, 0, len(rows))
	for _, row := range rows {
		views = append(views, File(row, names))
	}
	return views
}

func User(u model.User) model.UserView {
	return model.UserView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// ActorIDs collects the distinct user ids referenced by folders and files.
func ActorIDs(folders []model.Folder, files []model.FileRecord) []string {
	seen := map[string]struct{}{}
	ids := make([]string, 0)
	add := func(list []string) {
		for _, id := range list {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	for _, folder := range folders {
		add(folder.ActorIDs())
	}
	for _, file := range files {
		add(file.ActorIDs())
	}
	return ids
}
