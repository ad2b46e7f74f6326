package frames

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlFileRoundTrip(t *testing.T) {
	c, err := CreateControlFile(t.TempDir(), "run-1")
	require.NoError(t, err)

	state, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, ControlRunning, state)

	require.NoError(t, c.Write(ControlPaused))
	state, err = OpenControlFile(c.Path()).Read()
	require.NoError(t, err)
	assert.Equal(t, ControlPaused, state)

	require.NoError(t, c.Remove())
	assert.NoFileExists(t, c.Path())
	assert.NoFileExists(t, c.Path()+".lock")

	state, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, ControlCancelled, state, "a removed control file means the batch is over")
	require.NoError(t, c.Remove())
}

func TestControlFileRejectsGarbage(t *testing.T) {
	c, err := CreateControlFile(t.TempDir(), "run-2")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.Path(), []byte(`{"state":"sleeping"}`), 0644))

	_, err = c.Read()
	assert.Error(t, err)
}

func TestControlGateFollowsControlFile(t *testing.T) {
	c, err := CreateControlFile(t.TempDir(), "run-3")
	require.NoError(t, err)

	gate := NewControlGate(c.Path())
	defer gate.Close()
	require.NoError(t, gate.Checkpoint())

	require.NoError(t, c.Write(ControlPaused))
	passed := make(chan error, 1)
	go func() { passed <- gate.Checkpoint() }()

	select {
	case <-passed:
		t.Fatal("gate passed while paused")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, c.Write(ControlRunning))
	select {
	case err := <-passed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("gate did not notice resume")
	}

	require.NoError(t, c.Write(ControlPaused))
	go func() { passed <- gate.Checkpoint() }()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, c.Write(ControlCancelled))
	select {
	case err := <-passed:
		assert.ErrorIs(t, err, ErrCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("gate did not notice stop")
	}
}
