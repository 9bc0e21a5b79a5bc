package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// OSFileStore is a FileStore rooted at a real directory on disk.
type OSFileStore struct {
	root string
}

// NewOSFileStore creates a FileStore rooted at root, which must be an
// absolute or cwd-relative path to an existing directory.
func NewOSFileStore(root string) (*OSFileStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repo root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat repo root %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repo root %q is not a directory", abs)
	}
	return &OSFileStore{root: abs}, nil
}

func (s *OSFileStore) Root() string { return s.root }

func (s *OSFileStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
}

func (s *OSFileStore) Glob(pattern string) ([]string, error) {
	fsys := os.DirFS(s.root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sortedCopy := append([]string(nil), matches...)
	sort.Strings(sortedCopy)
	return sortedCopy, nil
}

func (s *OSFileStore) Remove(path string) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %q: %w", path, err)
	}
	return nil
}

func (s *OSFileStore) WriteFile(path string, data []byte) error {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent directories for %q: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
