package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests in this file mutate the package logger and must not run in parallel.

func TestLog_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	Info("draft submitted", "event_id", "ev-1", "step", 3, "dangling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "draft submitted", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "ev-1", line["event_id"])
	assert.EqualValues(t, 3, line["step"])
	assert.NotContains(t, line, "dangling")
}

func TestLog_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)

	Error("api call failed", errors.New("boom"), "path", "/events")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["err"])
	assert.Equal(t, "/events", line["path"])
}

func TestLog_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelError)
	defer SetLevel(LevelInfo)

	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	assert.Empty(t, buf.String())

	Error("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
