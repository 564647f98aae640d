package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKindTable(t *testing.T) {
	tests := []struct {
		kind   FileKind
		table  string
		pk     string
		bucket string
	}{
		{KindRegular, "files", "file_id", BucketFiles},
		{KindEblotter, "eblotter_file", "blotter_id", BucketFiles},
		{KindExtraction, "extraction", "extraction_id", BucketFiles},
		{KindWomenChildren, "womenchildren_file", "womenchildren_id", BucketWomenChildren},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			meta, err := tt.kind.Table()
			require.NoError(t, err)
			assert.Equal(t, tt.table, meta.Table)
			assert.Equal(t, tt.pk, meta.PrimaryKey)
			assert.Equal(t, tt.bucket, meta.Bucket)
		})
	}
}

func TestFileKindTable_Unknown(t *testing.T) {
	_, err := FileKind("blotter").Table()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrKindMismatch))
}

func TestParseFileKind(t *testing.T) {
	kind, err := ParseFileKind("  EBlotter ")
	require.NoError(t, err)
	assert.Equal(t, KindEblotter, kind)

	_, err = ParseFileKind("")
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestActivityColumns(t *testing.T) {
	by, at, err := ActivityDownload.Columns()
	require.NoError(t, err)
	assert.Equal(t, "downloaded_by", by)
	assert.Equal(t, "downloaded_at", at)

	by, at, err = ActivityEdit.Columns()
	require.NoError(t, err)
	assert.Equal(t, "updated_by", by)
	assert.Equal(t, "updated_at", at)

	_, _, err = Activity(99).Columns()
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestParseActivity_RejectsEdit(t *testing.T) {
	_, err := ParseActivity("edit")
	assert.ErrorIs(t, err, ErrValidationFailed)

	a, err := ParseActivity("Print")
	require.NoError(t, err)
	assert.Equal(t, ActivityPrint, a)
}

func TestFileRecordActorIDs(t *testing.T) {
	updater := "u2"
	printer := "u3"
	rec := FileRecord{CreatedBy: "u1", UpdatedBy: &updater, Printed: ActivityStamp{By: &printer}}

	assert.Equal(t, []string{"u1", "u2", "u3"}, rec.ActorIDs())
}
