package adminsession

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)

	// Empty store loads as nil.
	session, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, session)

	saved := &Session{
		Email:     "admin@example.com",
		Token:     "cdsk_abc.1748768400",
		ExpiresAt: time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC),
	}
	require.NoError(t, storage.Save(saved))

	loaded, err := storage.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Email, loaded.Email)
	assert.Equal(t, saved.Token, loaded.Token)
	assert.True(t, saved.ExpiresAt.Equal(loaded.ExpiresAt))
}

func TestFileStorage_Clear(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)

	require.NoError(t, storage.Save(&Session{Email: "a@b.com", Token: "t"}))
	require.NoError(t, storage.Clear())

	session, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, session)

	// Clearing an already-empty store is not an error.
	require.NoError(t, storage.Clear())
}

func TestFileStorage_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)

	path := filepath.Join(dir, StorageKey+".json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	_, err := storage.Load()
	assert.Error(t, err)
}

func TestFileStorage_Permissions(t *testing.T) {
	dir := t.TempDir()
	storage := NewFileStorage(dir)

	require.NoError(t, storage.Save(&Session{Email: "a@b.com", Token: "t"}))

	info, err := os.Stat(filepath.Join(dir, StorageKey+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
