package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore implements PhotoStore on the local filesystem. Objects are
// written under baseDir and served by the HTTP layer at baseURL, so the
// returned URL is baseURL + "/" + object key. Keys are prefixed with a
// random uuid, which keeps distinct uploads of the same filename apart.
type FileStore struct {
	baseDir string
	baseURL string
}

var _ PhotoStore = (*FileStore)(nil)

// NewFileStore creates the base directory if needed and returns the store.
func NewFileStore(baseDir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "movie"), 0o755); err != nil {
		return nil, fmt.Errorf("init photo store: %w", err)
	}
	return &FileStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Store writes data under a fresh "movie/<uuid>-<filename>" key and returns
// its public URL. The write goes to a temp file first and is renamed into
// place so a failed write never leaves a half-stored photo.
func (s *FileStore) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := "movie/" + uuid.NewString() + "-" + sanitizeFilename(filename)
	dst := filepath.Join(s.baseDir, filepath.FromSlash(key))

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store photo: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// sanitizeFilename strips any path components and characters that are not
// safe inside an object key, keeping the extension intact.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "photo"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
