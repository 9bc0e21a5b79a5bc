package store

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// MemoryFileStore is an in-memory FileStore for tests, keyed by
// repository-root-relative path.
type MemoryFileStore struct {
	files map[string][]byte
}

// NewMemoryFileStore creates an empty in-memory working tree.
func NewMemoryFileStore() *MemoryFileStore {
	return &MemoryFileStore{files: make(map[string][]byte)}
}

// Set writes (or overwrites) a file's contents.
func (m *MemoryFileStore) Set(path string, data []byte) {
	m.files[path] = data
}

// Root returns the placeholder "<memory>": an in-memory store has no
// directory on disk.
func (m *MemoryFileStore) Root() string { return "<memory>" }

func (m *MemoryFileStore) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	return data, nil
}

func (m *MemoryFileStore) Glob(pattern string) ([]string, error) {
	var matches []string
	for path := range m.files {
		ok, err := doublestar.Match(pattern, path)
		if err != nil {
			return nil, fmt.Errorf("match %q against %q: %w", pattern, path, err)
		}
		if ok {
			matches = append(matches, path)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

func (m *MemoryFileStore) WriteFile(path string, data []byte) error {
	m.files[path] = data
	return nil
}

func (m *MemoryFileStore) Remove(path string) error {
	delete(m.files, path)
	return nil
}

// MemoryVersionedStore is an in-memory VersionedStore for tests: a single
// flat snapshot standing in for "the base revision", diffed byte-for-byte
// against a live FileStore.
type MemoryVersionedStore struct {
	base    map[string][]byte
	working FileStore
}

// NewMemoryVersionedStore creates a VersionedStore whose single snapshot,
// base, is diffed against working. ListChanged and ReadAt ignore the
// revision name they are given and always use this snapshot.
func NewMemoryVersionedStore(base map[string][]byte, working FileStore) *MemoryVersionedStore {
	copied := make(map[string][]byte, len(base))
	for k, v := range base {
		copied[k] = v
	}
	return &MemoryVersionedStore{base: copied, working: working}
}

func (m *MemoryVersionedStore) ListChanged(revision string) ([]string, error) {
	mfs, ok := m.working.(*MemoryFileStore)
	if !ok {
		return nil, fmt.Errorf("MemoryVersionedStore requires a MemoryFileStore working tree")
	}

	seen := make(map[string]bool)
	var changed []string

	for path, baseData := range m.base {
		seen[path] = true
		workingData, err := mfs.ReadFile(path)
		if err != nil || string(workingData) != string(baseData) {
			changed = append(changed, path)
		}
	}
	for path := range mfs.files {
		if !seen[path] {
			changed = append(changed, path)
		}
	}

	sort.Strings(changed)
	return changed, nil
}

func (m *MemoryVersionedStore) ReadAt(revision, path string) ([]byte, error) {
	data, ok := m.base[path]
	if !ok {
		return nil, nil
	}
	return data, nil
}
