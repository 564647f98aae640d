package model

type CreateFolderRequest struct {
	Title             string       `json:"title"`
	Status            FolderStatus `json:"status"`
	IsBlotter         bool         `json:"is_blotter"`
	IsWomenCase       bool         `json:"is_womencase"`
	IsExtraction      bool         `json:"is_extraction"`
	CategoryIDs       []int64      `json:"category_ids"`
	NewCategoryTitles []string     `json:"new_categories"`
}

type UpdateFolderRequest struct {
	Title             *string       `json:"title"`
	Status            *FolderStatus `json:"status"`
	CategoryIDs       []int64       `json:"category_ids"`
	NewCategoryTitles []string      `json:"new_categories"`
	ReplaceCategories bool          `json:"replace_categories"`
}

type CreateCategoryRequest struct {
	Title string `json:"title"`
}

type UpdateFileRequest struct {
	Title           *string `json:"title"`
	IncidentSummary *string `json:"incident_summary"`
}

// RestoreTarget selects which kind of entity a restore addresses.
type RestoreTarget string

const (
	RestoreTargetFolder RestoreTarget = "folder"
	RestoreTargetFile   RestoreTarget = "file"
)

// RestoreRequest mirrors the archive page's restore dialog state.
type RestoreRequest struct {
	Target           RestoreTarget `json:"target"`
	Kind             FileKind      `json:"kind,omitempty"`
	ID               int64         `json:"id"`
	InArchivedFolder bool          `json:"in_archived_folder,omitempty"`
}

type RestoreResponse struct {
	Restored RestoreRequest `json:"restored"`
	Archive  ArchiveListing `json:"archive"`
}

type AccessResponse struct {
	URL       string   `json:"url"`
	ExpiresIn int64    `json:"expires_in"`
	File      FileView `json:"file"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}
