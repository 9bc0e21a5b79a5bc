// Package ontology handles the single repository-root VERSION file: the
// ontology's own semantic version, separate from any module or bundle's.
package ontology

import (
	"strings"

	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/semver"
	"github.com/labki-org/labki-schemas/internal/store"
)

const versionFile = "VERSION"

// ReadVersion reads and parses the root VERSION file. A missing or malformed
// file is not a Go error: it is reported as a diagnostic and "" is returned,
// so callers can still proceed (the cascade engine treats a null current
// version the same way it treats any other unparsable entity version).
func ReadVersion(fs store.FileStore) (string, []report.Diagnostic) {
	data, err := fs.ReadFile(versionFile)
	if err != nil {
		if store.IsNotExist(err) {
			return "", []report.Diagnostic{report.Error(report.CodeMissingVersion, versionFile, "VERSION file is missing")}
		}
		return "", []report.Diagnostic{report.ErrorWithDetail(report.CodeMissingVersion, versionFile, "VERSION file could not be read", err.Error())}
	}

	raw := strings.TrimSpace(string(data))
	if _, err := semver.Parse(raw); err != nil {
		return "", []report.Diagnostic{report.ErrorWithDetail(report.CodeInvalidVersion, versionFile, "VERSION file does not hold a valid MAJOR.MINOR.PATCH version", err.Error())}
	}
	return raw, nil
}

// WriteVersion overwrites the root VERSION file with v, trimmed and followed
// by a single trailing newline.
func WriteVersion(fs store.FileStore, v string) error {
	return fs.WriteFile(versionFile, []byte(strings.TrimSpace(v)+"\n"))
}

// Apply computes the new ontology version from current given bump, mirroring
// the per-module/per-bundle version computation in the cascade engine. An
// empty bump or an unparsable current version yields "" (no change).
func Apply(current string, bump semver.BumpClass) string {
	if bump == "" || current == "" {
		return ""
	}
	v, err := semver.Parse(current)
	if err != nil {
		return ""
	}
	nv, err := semver.Apply(v, bump)
	if err != nil {
		return ""
	}
	return nv.String()
}
