package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileAndConsoleCores(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, closeFn, err := New(Options{Dir: dir, Console: &console})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("trial finished", zap.String("task", "test_nback"), zap.Int("trial", 3))
	require.NoError(t, closeFn())

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "trial finished", entry["message"])
	assert.Equal(t, "test_nback", entry["task"])
	assert.EqualValues(t, 3, entry["trial"])

	assert.Contains(t, console.String(), "trial finished")
	assert.NotContains(t, console.String(), "hidden")
}

func TestDebugLevel(t *testing.T) {
	var console bytes.Buffer
	logger, closeFn, err := New(Options{Console: &console, Debug: true})
	require.NoError(t, err)
	logger.Debug("frame overrun")
	require.NoError(t, closeFn())
	assert.Contains(t, console.String(), "frame overrun")
}

func TestNoCores(t *testing.T) {
	logger, closeFn, err := New(Options{})
	require.NoError(t, err)
	logger.Info("dropped")
	assert.NoError(t, closeFn())
}
