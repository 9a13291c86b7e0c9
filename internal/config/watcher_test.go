package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[signals]\nreduced_motion = \"auto\"\n"), 0644))

	var mu sync.Mutex
	var got []*Config

	w, err := NewWatcher(path, func(cfg *Config) {
		mu.Lock()
		got = append(got, cfg)
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("[signals]\nreduced_motion = \"on\"\n"), 0644))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1].Signals.ReducedMotion == "on"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	var mu sync.Mutex
	calls := 0

	w, err := NewWatcher(path, func(*Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("[background]\nfps = 0\n"), 0644))

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	var mu sync.Mutex
	calls := 0

	w, err := NewWatcher(path, func(*Config) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1\n"), 0644))

	assert.Never(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls > 0
	}, 300*time.Millisecond, 20*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "config.toml"), nil, nil)
	require.NoError(t, err)

	assert.NoError(t, w.Stop(), "stop before start")
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
