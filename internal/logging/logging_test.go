package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)
	log.Debug("hidden")
	log.Info("stage complete", "stage", "dedup", "removed", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "stage complete", entry["msg"])
	assert.Equal(t, "dedup", entry["stage"])
	assert.Equal(t, "lifeexp", entry["app"])
	assert.EqualValues(t, 2, entry["removed"])
}

func TestNewTextDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "text", &buf)
	log.Debug("filled", "country", "Chad")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "country=Chad")
}

func TestNewUnknownLevelWarns(t *testing.T) {
	var buf bytes.Buffer
	New("loud", "text", &buf)
	assert.Contains(t, buf.String(), "falling back to info level")
}
