package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.Path(), []byte("[output]\nlanguage = \"nl\"\n"), 0600))

	tests := []struct {
		name     string
		event    fsnotify.Event
		reloaded bool
	}{
		{"write", fsnotify.Event{Name: store.Path(), Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: store.Path(), Op: fsnotify.Create}, true},
		{"chmod ignored", fsnotify.Event{Name: store.Path(), Op: fsnotify.Chmod}, false},
		{"other file ignored", fsnotify.Event{Name: filepath.Join(dir, "factura.log"), Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.reloaded, store.handleEvent(tt.event))
		})
	}
	assert.Equal(t, "nl", store.GetString("output.language"))
}

func TestHandleEvent_InvalidFileKeepsValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("output.language", "nl"))

	require.NoError(t, os.WriteFile(store.Path(), []byte("[output\nbroken"), 0600))
	assert.False(t, store.handleEvent(fsnotify.Event{Name: store.Path(), Op: fsnotify.Write}))
	assert.Equal(t, "nl", store.GetString("output.language"))
}

func TestHandleEvent_RemoveClears(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("debug", true))

	require.NoError(t, os.Remove(store.Path()))
	assert.True(t, store.handleEvent(fsnotify.Event{Name: store.Path(), Op: fsnotify.Remove}))
	assert.Empty(t, store.Keys())
}

func TestWatch_ReloadsExternalEdit(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(store.Path(), []byte("[fetch]\nmax_retries = 7\n"), 0600))

	assert.Eventually(t, func() bool {
		return store.GetInt("fetch.max_retries") == 7
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload signal")
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	reloaded, err := store.Watch(ctx)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-reloaded:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
