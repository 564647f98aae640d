package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	t.Run("sanitizes invalid characters", func(t *testing.T) {
		actual, err := SanitizeFilename(` report<2026>?.pdf `)
		require.NoError(t, err)
		require.Equal(t, "report_2026__.pdf", actual)
	})

	t.Run("rejects empty filenames", func(t *testing.T) {
		_, err := SanitizeFilename("   ")
		require.Error(t, err)
	})

	t.Run("strips leading dots", func(t *testing.T) {
		actual, err := SanitizeFilename("..blotter.pdf")
		require.NoError(t, err)
		require.Equal(t, "blotter.pdf", actual)
	})

	t.Run("strips invisible characters", func(t *testing.T) {
		actual, err := SanitizeFilename("state\u200bment.pdf")
		require.NoError(t, err)
		require.Equal(t, "statement.pdf", actual)
	})

	t.Run("truncates by runes", func(t *testing.T) {
		actual, err := SanitizeFilename(strings.Repeat("é", 300))
		require.NoError(t, err)
		require.True(t, utf8.ValidString(actual))
		require.Equal(t, 255, utf8.RuneCountInString(actual))
	})
}

func TestExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".pdf", Extension("Report.PDF"))
	require.Equal(t, ".jpeg", Extension(" photo.jpeg "))
	require.Equal(t, "", Extension("noext"))
	require.Equal(t, "", Extension("evil.p/df"))
	require.Equal(t, "", Extension("weird.ex t"))
}

func TestAttachmentHeader(t *testing.T) {
	t.Parallel()

	require.Equal(t, `attachment; filename="a_b.pdf"`, AttachmentHeader("attachment", "a/b.pdf"))
	require.Equal(t, `inline; filename="download"`, AttachmentHeader("inline", "   "))
}
