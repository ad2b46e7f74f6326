package outputs

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOutputs(t *testing.T) {
	dir := t.TempDir()
	clip := filepath.Join(dir, "frames_20240102_030405", "clip")
	require.NoError(t, os.MkdirAll(clip, 0755))
	for _, name := range []string{"frame_0001.png", "frame_0002.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(clip, name), []byte("img"), 0644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "unrelated"), 0755))

	var buf bytes.Buffer
	require.NoError(t, listOutputs(&buf, dir, "frames"))

	out := buf.String()
	assert.Contains(t, out, "frames_20240102_030405")
	assert.Contains(t, out, "complete")
	assert.NotContains(t, out, "unrelated")
}

func TestListOutputsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listOutputs(&buf, t.TempDir(), ""))
	assert.Contains(t, buf.String(), "No batch outputs found")
}

func TestListOutputsMissingDir(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, listOutputs(&buf, filepath.Join(t.TempDir(), "missing"), ""))
}
