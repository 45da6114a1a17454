package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohaibmokhliss/spotifyPLdownloader/config"
)

func TestLocalStorageSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "music")
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	path, err := s.Save(context.Background(), "Artist - Song.mp3", strings.NewReader("audio"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Artist - Song.mp3"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file should not be left behind")
}

func TestLocalStorageOverwrites(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "a.mp3", strings.NewReader("first"))
	require.NoError(t, err)
	path, err := s.Save(context.Background(), "a.mp3", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocalStorageRejectsInvalidNames(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../escape.mp3", `dir\file.mp3`, "sub/file.mp3"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Save(context.Background(), name, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestLocalStorageCancelledContext(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Save(ctx, "a.mp3", strings.NewReader("audio"))
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}

func TestNewLocal(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), config.StorageConfig{Type: "local", OutputDir: dir})
	require.NoError(t, err)
	defer s.Close()

	local, ok := s.(*LocalStorage)
	require.True(t, ok)
	assert.Equal(t, dir, local.Dir())
}
