package storage

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLocalStorage(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "objects")

	storage, err := NewLocalStorage(tempDir, "http://localhost:8080/files/")
	require.NoError(t, err)
	require.NotNil(t, storage)
	require.Equal(t, tempDir, storage.basePath)
	require.Equal(t, "http://localhost:8080/files", storage.publicBase)

	_, err = os.Stat(tempDir)
	require.NoError(t, err, "Base directory should be created")
}

func TestLocalStorage_PutGet(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	key := "4f1c/1718000000000-0-beach.jpg"
	content := "jpeg bytes"

	storedPath, err := storage.Put(key, strings.NewReader(content))
	require.NoError(t, err)
	require.Equal(t, key, storedPath)

	fileInfo, err := os.Stat(storage.getPathFromKey(storedPath))
	require.NoError(t, err, "File should exist after put")
	require.Equal(t, int64(len(content)), fileInfo.Size())

	readCloser, err := storage.Get(storedPath)
	require.NoError(t, err)
	retrieved, err := io.ReadAll(readCloser)
	require.NoError(t, err)
	readCloser.Close()
	require.Equal(t, content, string(retrieved))
}

func TestLocalStorage_PutExistingKeyFails(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	_, err = storage.Put("s/one.jpg", strings.NewReader("first"))
	require.NoError(t, err)

	_, err = storage.Put("s/one.jpg", strings.NewReader("second"))
	require.Error(t, err)

	rc, err := storage.Get("s/one.jpg")
	require.NoError(t, err)
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	require.Equal(t, "first", string(got))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestLocalStorage_PutRemovesPartialObject(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	_, err = storage.Put("s/broken.jpg", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	require.Error(t, err)

	_, err = os.Stat(storage.getPathFromKey("s/broken.jpg"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.jpg", "a/../../escape.jpg", "a/./b.jpg", "a\\b.jpg", "a//b.jpg"} {
		_, err := storage.Put(key, strings.NewReader("x"))
		require.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}

	_, err = storage.Get("../etc/passwd")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorage_PublicURL(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "https://photos.example.com/files")
	require.NoError(t, err)

	require.Equal(t, "https://photos.example.com/files/abc/1-0-my%20photo.jpg", storage.PublicURL("abc/1-0-my photo.jpg"))
}

func TestLocalStorage_GetNonExistent(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	_, err = storage.Get("non/existent.jpg")
	require.ErrorIs(t, err, fs.ErrNotExist)

	_, err = storage.Put("dir/photo.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = storage.Get("dir")
	require.ErrorIs(t, err, fs.ErrNotExist, "directories are not objects")
}

func TestLocalStorage_PutLargeData(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/files")
	require.NoError(t, err)

	largeContent := bytes.Repeat([]byte{'a'}, 1024*1024)
	storedPath, err := storage.Put("large/blob.bin", bytes.NewReader(largeContent))
	require.NoError(t, err)

	fileInfo, err := os.Stat(storage.getPathFromKey(storedPath))
	require.NoError(t, err)
	require.Equal(t, int64(len(largeContent)), fileInfo.Size())
}
