package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var ErrInvalidKey = errors.New("invalid object key")

// LocalStorage keeps objects on disk under basePath and hands out URLs below
// publicBase, which the HTTP server maps back onto the same directory.
type LocalStorage struct {
	basePath   string
	publicBase string
}

func NewLocalStorage(basePath, publicBase string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{
		basePath:   basePath,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

func cleanKey(key string) (string, error) {
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(cleaned, "/") {
		if part == ".." || part == "." {
			return "", ErrInvalidKey
		}
	}
	return cleaned, nil
}

func (ls *LocalStorage) getPathFromKey(key string) string {
	return filepath.Join(ls.basePath, filepath.FromSlash(key))
}

// Put stores data under key and returns the stored path to pass to PublicURL.
// A partially written file is removed on failure.
func (ls *LocalStorage) Put(key string, data io.Reader) (string, error) {
	storedPath, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	filePath := ls.getPathFromKey(storedPath)

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return "", err
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create object %s: %w", storedPath, err)
	}

	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write object %s: %w", storedPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write object %s: %w", storedPath, err)
	}

	return storedPath, nil
}

func (ls *LocalStorage) PublicURL(storedPath string) string {
	segments := strings.Split(storedPath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return ls.publicBase + "/" + strings.Join(segments, "/")
}

func (ls *LocalStorage) Get(storedPath string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(storedPath)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(ls.getPathFromKey(cleaned))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object %s not found: %w", cleaned, err)
		}
		return nil, err
	}
	if info, err := file.Stat(); err != nil || info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("object %s not found: %w", cleaned, fs.ErrNotExist)
	}

	return file, nil
}
