package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore writes files below Root and serves them under WebPath
type LocalStore struct {
	Root    string
	WebPath string
	now     func() time.Time
}

func NewLocalStore(root, webPath string) *LocalStore {
	return &LocalStore{
		Root:    root,
		WebPath: "/" + strings.Trim(webPath, "/"),
		now:     time.Now,
	}
}

func (s *LocalStore) Save(ctx context.Context, restaurantID uint, kind Kind, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := ObjectKey(restaurantID, kind, ext, s.now())
	full := filepath.Join(s.Root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path.Join(s.WebPath, key), nil
}

func (s *LocalStore) Delete(_ context.Context, url string) error {
	if url == "" {
		return nil
	}
	rel, ok := strings.CutPrefix(url, strings.TrimSuffix(s.WebPath, "/")+"/")
	if !ok {
		return fmt.Errorf("url %q is not served by this store", url)
	}

	cleaned := path.Clean("/" + rel)
	full := filepath.Join(s.Root, filepath.FromSlash(cleaned))

	err := os.Remove(full)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}
