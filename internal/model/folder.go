package model

import "time"

type FolderStatus string

const (
	StatusPending            FolderStatus = "pending"
	StatusResolved           FolderStatus = "resolved"
	StatusDismissed          FolderStatus = "dismissed"
	StatusUnderInvestigation FolderStatus = "under_investigation"
)

func (s FolderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusDismissed, StatusUnderInvestigation:
		return true
	default:
		return false
	}
}

// Folder is a raw folders row. Actor fields hold user ids.
type Folder struct {
	ID           int64
	Title        string
	Status       FolderStatus
	CreatedBy    string
	UpdatedBy    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsArchived   bool
	IsBlotter    bool
	IsWomenCase  bool
	IsExtraction bool
}

// ActorIDs returns every user id referenced by the row.
func (f Folder) ActorIDs() []string {
	ids := []string{f.CreatedBy}
	if f.UpdatedBy != nil {
		ids = append(ids, *f.UpdatedBy)
	}
	return ids
}

type Category struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderCategory is one folder_categories association row joined with its category.
type FolderCategory struct {
	FolderID int64
	Category Category
}

type FolderFilter struct {
	Status       FolderStatus
	CategoryID   int64
	IsBlotter    *bool
	IsWomenCase  *bool
	IsExtraction *bool
	Search       string
}

// FolderView is a folder shaped for display: actor ids replaced by names.
type FolderView struct {
	ID           int64        `json:"id"`
	Title        string       `json:"title"`
	Status       FolderStatus `json:"status"`
	CreatedBy    string       `json:"created_by"`
	UpdatedBy    string       `json:"updated_by,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	IsArchived   bool         `json:"is_archived"`
	IsBlotter    bool         `json:"is_blotter"`
	IsWomenCase  bool         `json:"is_womencase"`
	IsExtraction bool         `json:"is_extraction"`
	Categories   []Category   `json:"categories"`
	Files        []FileView   `json:"files,omitempty"`
}
