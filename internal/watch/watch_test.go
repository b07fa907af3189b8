package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRerunsOnWrite(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.entql")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(schema, []byte("model A { id Int @id }"), 0644))

	var runs atomic.Int32
	w, err := NewWatcher(func() error {
		runs.Add(1)
		return nil
	}, schema)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(schema, []byte("model A { id Int @id  n Int }"), 0644))
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherReportsCallbackErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "q.yaml")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	w, err := NewWatcher(func() error { return assert.AnError }, file)
	require.NoError(t, err)

	errs := make(chan error, 1)
	w.OnError = func(err error) {
		select {
		case errs <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, assert.AnError)
	case <-time.After(time.Second):
		t.Fatal("callback error was not reported")
	}
}

func TestNewWatcherMissingDir(t *testing.T) {
	_, err := NewWatcher(func() error { return nil }, filepath.Join(t.TempDir(), "missing", "schema.entql"))
	assert.Error(t, err)
}
