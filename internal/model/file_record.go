package model

import (
	"fmt"
	"strings"
	"time"
)

// FileKind discriminates the four parallel file tables.
type FileKind string

const (
	KindRegular       FileKind = "regular"
	KindEblotter      FileKind = "eblotter"
	KindExtraction    FileKind = "extraction"
	KindWomenChildren FileKind = "womenchildren"
)

// FileKinds lists every kind in display order.
var FileKinds = []FileKind{KindRegular, KindEblotter, KindExtraction, KindWomenChildren}

const (
	BucketFiles         = "files"
	BucketWomenChildren = "womenchildren_files"
)

// KindTable describes where a kind lives in the record and blob stores.
type KindTable struct {
	Table      string
	PrimaryKey string
	Bucket     string
}

// Table is the single dispatch point from a kind to its storage location.
func (k FileKind) Table() (KindTable, error) {
	switch k {
	case KindRegular:
		return KindTable{Table: "files", PrimaryKey: "file_id", Bucket: BucketFiles}, nil
	case KindEblotter:
		return KindTable{Table: "eblotter_file", PrimaryKey: "blotter_id", Bucket: BucketFiles}, nil
	case KindExtraction:
		return KindTable{Table: "extraction", PrimaryKey: "extraction_id", Bucket: BucketFiles}, nil
	case KindWomenChildren:
		return KindTable{Table: "womenchildren_file", PrimaryKey: "womenchildren_id", Bucket: BucketWomenChildren}, nil
	default:
		return KindTable{}, fmt.Errorf("%w: %q", ErrKindMismatch, string(k))
	}
}

func ParseFileKind(raw string) (FileKind, error) {
	kind := FileKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, err := kind.Table(); err != nil {
		return "", err
	}
	return kind, nil
}

// FileRef addresses one row in one kind table.
type FileRef struct {
	Kind FileKind `json:"kind"`
	ID   int64    `json:"id"`
}

func (r FileRef) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Activity is an action whose most recent actor is recorded on the row.
type Activity int

const (
	ActivityView Activity = iota + 1
	ActivityDownload
	ActivityPrint
	ActivityEdit
)

func (a Activity) String() string {
	switch a {
	case ActivityView:
		return "view"
	case ActivityDownload:
		return "download"
	case ActivityPrint:
		return "print"
	case ActivityEdit:
		return "edit"
	default:
		return "unknown"
	}
}

// Columns returns the actor and timestamp columns stamped by the activity.
func (a Activity) Columns() (byColumn string, atColumn string, err error) {
	switch a {
	case ActivityView:
		return "viewed_by", "viewed_at", nil
	case ActivityDownload:
		return "downloaded_by", "downloaded_at", nil
	case ActivityPrint:
		return "printed_by", "printed_at", nil
	case ActivityEdit:
		return "updated_by", "updated_at", nil
	default:
		return "", "", fmt.Errorf("%w: unknown activity %d", ErrValidationFailed, int(a))
	}
}

func ParseActivity(raw string) (Activity, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "view":
		return ActivityView, nil
	case "download":
		return ActivityDownload, nil
	case "print":
		return ActivityPrint, nil
	default:
		return 0, fmt.Errorf("%w: unknown activity %q", ErrValidationFailed, raw)
	}
}

// ActivityStamp is the most recent actor and time for one activity.
type ActivityStamp struct {
	By *string
	At *time.Time
}

// FileRecord is a raw row from any of the kind tables.
type FileRecord struct {
	Kind            FileKind
	ID              int64
	FolderID        *int64
	Title           string
	IncidentSummary string
	StoragePath     string
	IsArchived      bool
	CreatedBy       string
	UpdatedBy       *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Viewed          ActivityStamp
	Downloaded      ActivityStamp
	Printed         ActivityStamp
}

func (f FileRecord) Ref() FileRef {
	return FileRef{Kind: f.Kind, ID: f.ID}
}

// ActorIDs returns every user id referenced by the row.
func (f FileRecord) ActorIDs() []string {
	ids := []string{f.CreatedBy}
	for _, ref := range []*string{f.UpdatedBy, f.Viewed.By, f.Downloaded.By, f.Printed.By} {
		if ref != nil {
			ids = append(ids, *ref)
		}
	}
	return ids
}

// StampView is the display form of an ActivityStamp.
type StampView struct {
	By string     `json:"by,omitempty"`
	At *time.Time `json:"at,omitempty"`
}

type FileView struct {
	Kind            FileKind   `json:"kind"`
	ID              int64      `json:"id"`
	FolderID        *int64     `json:"folder_id,omitempty"`
	Title           string     `json:"title"`
	IncidentSummary string     `json:"incident_summary"`
	StoragePath     string     `json:"storage_path"`
	URL             string     `json:"url,omitempty"`
	IsArchived      bool       `json:"is_archived"`
	CreatedBy       string     `json:"created_by"`
	UpdatedBy       string     `json:"updated_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Viewed          *StampView `json:"viewed,omitempty"`
	Downloaded      *StampView `json:"downloaded,omitempty"`
	Printed         *StampView `json:"printed,omitempty"`
}

// ArchiveListing is everything currently archived, grouped for the archive page.
type ArchiveListing struct {
	Folders []FolderView `json:"folders"`
	Files   []FileView   `json:"files"`
}
