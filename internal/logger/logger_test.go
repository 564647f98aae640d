package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "json", "info")

	log.Debug("hidden")
	log.Info("restored", "kind", "eblotter", "id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "restored", line["msg"])
	assert.Equal(t, "eblotter", line["kind"])
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "pretty", "warn").With("request_id", "r-1").WithGroup("file")

	log.Info("hidden")
	log.Warn("stamp failed", "id", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "stamp failed")
	assert.Contains(t, out, "request_id")
	assert.NotContains(t, out, "file.request_id")
	assert.Contains(t, out, "file.id")
}

func TestPrettyHandler_GroupsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, nil))

	log.Info("restore", slog.Group("ref", "kind", "womenchildren", "id", 4), "error", assert.AnError)

	out := buf.String()
	assert.Contains(t, out, "ref.kind")
	assert.Contains(t, out, "womenchildren")
	assert.Contains(t, out, assert.AnError.Error())
}
