package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0600))

	var calls atomic.Int32
	w, err := New(target, func() { calls.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(target, []byte(`{"HONEYPOT_PORT": 9090}`), 0600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(target, []byte(`{}`), 0600))

	var calls atomic.Int32
	w, err := New(target, func() { calls.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0600))

	time.Sleep(5 * DefaultDebounce)
	assert.Zero(t, calls.Load())
}

func TestWatcherStartMissingDirectory(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "missing", "settings.json"), func() {})
	require.NoError(t, err)
	assert.Error(t, w.Start())
	assert.NoError(t, w.Stop())
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "settings.json"), func() {})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
