package entity

import (
	"encoding/json"
	"path"
	"sort"
	"strings"

	"github.com/labki-org/labki-schemas/internal/store"
)

// excludedSegments names path segments that are never entity files, even
// when they match "**/*.json" under a type directory.
var excludedSegments = map[string]bool{
	"node_modules": true,
}

// BuildIndex discovers, parses, and indexes every entity file under fs's
// root. Discovery walks "<kind>/**/*.json" for each of the six type
// directories, excluding "_schema.json", anything under "versions/",
// "node_modules/", and dot-directories. Files that fail to parse or lack an
// "id" field are skipped silently — the schema validator reports those.
//
// Discovery order (and therefore Index insertion order) is the
// lexicographic sort of "<kind>/<relative path>", independent of any
// particular kind's internal file layout.
func BuildIndex(fs store.FileStore) (*Index, error) {
	idx := NewIndex()

	files, err := DiscoverFiles(fs)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		data, err := fs.ReadFile(f.Path)
		if err != nil {
			continue
		}

		var body map[string]any
		if err := json.Unmarshal(data, &body); err != nil {
			continue
		}

		id, ok := body["id"].(string)
		if !ok || id == "" {
			continue
		}

		idx.Insert(&Entity{Kind: f.Kind, ID: id, Path: f.Path, Data: body})
	}

	return idx, nil
}

// DiscoveredFile names a candidate entity file before it is parsed.
type DiscoveredFile struct {
	Kind Kind
	Path string
}

// DiscoverFiles globs every type directory for candidate entity files,
// applying the same exclusions BuildIndex does, without parsing them. The
// schema validator uses this (rather than the built index) so that files
// which fail to parse still get a diagnostic instead of silently
// disappearing.
func DiscoverFiles(fs store.FileStore) ([]DiscoveredFile, error) {
	var files []DiscoveredFile

	for _, kind := range Kinds {
		matches, err := fs.Glob(string(kind) + "/**/*.json")
		if err != nil {
			return nil, err
		}
		for _, p := range matches {
			if isExcluded(p) {
				continue
			}
			files = append(files, DiscoveredFile{Kind: kind, Path: p})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// KindOfPath reports the entity kind a repository-root-relative path
// belongs to, if any: its first path segment must name one of the six type
// directories and the path must not be excluded (see isExcluded). Used by
// the change detector to filter a revision-control diff down to entity
// files without duplicating the discovery exclusion rules.
func KindOfPath(p string) (Kind, bool) {
	if isExcluded(p) {
		return "", false
	}
	seg, _, ok := strings.Cut(p, "/")
	if !ok {
		return "", false
	}
	for _, k := range Kinds {
		if string(k) == seg {
			return k, true
		}
	}
	return "", false
}

// isExcluded reports whether a discovered path should never be treated as
// an entity file.
func isExcluded(p string) bool {
	if path.Base(p) == "_schema.json" {
		return true
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if excludedSegments[seg] {
			return true
		}
		if strings.HasPrefix(seg, ".") {
			return true
		}
		if seg == "versions" {
			return true
		}
	}
	return false
}
