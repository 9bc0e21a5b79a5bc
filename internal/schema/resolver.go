package schema

import (
	"strings"

	"github.com/labki-org/labki-schemas/internal/store"
)

// schemaFileName is the fixed name every type directory's schema carries.
const schemaFileName = "_schema.json"

// findSchemaDir walks upward from filePath's containing directory looking
// for a directory that holds "_schema.json", per §4.2's "schema resolution
// walks upward from the file's directory." Returns ("", false) if no
// ancestor directory (down to the repository root) carries one.
func findSchemaDir(fs store.FileStore, filePath string) (string, bool) {
	dir := parentDir(filePath)
	for {
		candidate := joinPath(dir, schemaFileName)
		if _, err := fs.ReadFile(candidate); err == nil {
			return dir, true
		}
		if dir == "" {
			return "", false
		}
		dir = parentDir(dir)
	}
}

// expectedID computes the id a file is expected to declare, given the
// schema directory that governs it: the file's path relative to that
// directory, with ".json" stripped. Nested ids (e.g. templates) naturally
// retain their "/" separators.
func expectedID(schemaDir, filePath string) string {
	rel := filePath
	if schemaDir != "" {
		rel = strings.TrimPrefix(filePath, schemaDir+"/")
	}
	return strings.TrimSuffix(rel, ".json")
}

func parentDir(p string) string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return ""
	}
	return p[:i]
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
