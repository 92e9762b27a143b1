package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetupJSONToFile(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "flowscout.log")
	logger, closer, err := Setup(Options{Level: "warn", File: file, JSON: true, Stdout: &console})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("flow stuck", "step", 3)
	require.NoError(t, closer.Close())

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(console.Bytes()), &rec))
	assert.Equal(t, "flow stuck", rec["msg"])
	assert.Equal(t, "flowscout", rec["service"])
	assert.EqualValues(t, 3, rec["step"])

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, console.String(), string(data))
}

func TestSetupText(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var console bytes.Buffer
	_, closer, err := Setup(Options{Stdout: &console})
	require.NoError(t, err)
	defer closer.Close()

	slog.Info("crawl finished", "pages", 7)
	assert.Contains(t, console.String(), "msg=\"crawl finished\"")
	assert.Contains(t, console.String(), "pages=7")
}
