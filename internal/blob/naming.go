package blob

import (
	"fmt"

	"github.com/google/uuid"

	"go-case-records/internal/model"
	"go-case-records/internal/util"
)

// ObjectName picks a fresh object name for an upload. Extractions go under
// extractions/, files in a folder under folder_{id}/, the rest under unfiled/.
func ObjectName(kind model.FileKind, folderID *int64, filename string) string {
	name := uuid.NewString() + util.Extension(filename)
	switch {
	case kind == model.KindExtraction:
		return "extractions/" + name
	case folderID != nil:
		return fmt.Sprintf("folder_%d/%s", *folderID, name)
	default:
		return "unfiled/" + name
	}
}
