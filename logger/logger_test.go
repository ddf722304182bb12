package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(
		WithFormat(FormatJSON),
		WithOutput(&buf),
		WithAttr(slog.String("service", "trafficlight")),
	)

	log.Info("traffic light", "state", "Green")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "traffic light", rec["msg"])
	assert.Equal(t, "Green", rec["state"])
	assert.Equal(t, "trafficlight", rec["service"])
}

func TestNewLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(WithLevel(slog.LevelWarn), WithOutput(&buf))

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
}

func TestUnknownFormatFallsBackToText(t *testing.T) {
	var buf bytes.Buffer
	New(WithFormat("xml"), WithOutput(&buf), WithOutput(nil)).Info("hello")

	assert.True(t, strings.Contains(buf.String(), "msg=hello"))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
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
