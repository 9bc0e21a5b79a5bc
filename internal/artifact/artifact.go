// Package artifact implements the Artifact Generator of §4.8: it renders a
// module or bundle at a given version into a self-contained JSON file and
// writes it under <kind>/<id>/versions/<version>.json.
package artifact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/store"
)

const schemaURL = "https://labki.org/schemas/ontology-artifact/v1"

// Module renders a module artifact for idx's module m at the version it
// currently holds, and writes it to modules/<id>/versions/<version>.json
// via fs. A missing referenced entity or dependency is a hard error.
func Module(fs store.FileStore, idx *entity.Index, m *entity.Entity, now time.Time) error {
	body := map[string]any{
		"$schema":   schemaURL,
		"id":        m.ID,
		"version":   m.Version(),
		"generated": formatTimestamp(now),
	}

	deps := make(map[string]string, len(m.Dependencies()))
	for _, depID := range m.Dependencies() {
		dep, ok := idx.Get(entity.KindModule, depID)
		if !ok {
			return fmt.Errorf("module %q declares unknown dependency %q", m.ID, depID)
		}
		deps[depID] = dep.Version()
	}
	body["dependencies"] = deps

	for kind, ids := range m.Contents() {
		contents := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			e, ok := idx.Get(kind, id)
			if !ok {
				return fmt.Errorf("module %q references unknown %s %q", m.ID, kind, id)
			}
			contents = append(contents, e.Data)
		}
		body[string(kind)] = contents
	}

	path := fmt.Sprintf("modules/%s/versions/%s.json", m.ID, m.Version())
	return writeJSON(fs, path, body)
}

// Bundle renders a bundle artifact for idx's bundle b at the version it
// currently holds, resolving each member module's current version and the
// ontology version, and writes it to bundles/<id>/versions/<version>.json.
func Bundle(fs store.FileStore, idx *entity.Index, b *entity.Entity, ontologyVersion string, now time.Time) error {
	modules := make(map[string]string, len(b.BundleModules()))
	for _, moduleID := range b.BundleModules() {
		m, ok := idx.Get(entity.KindModule, moduleID)
		if !ok {
			return fmt.Errorf("bundle %q references unknown module %q", b.ID, moduleID)
		}
		modules[moduleID] = m.Version()
	}

	body := map[string]any{
		"$schema":         schemaURL,
		"id":              b.ID,
		"version":         b.Version(),
		"generated":       formatTimestamp(now),
		"ontologyVersion": ontologyVersion,
		"modules":         modules,
	}
	if desc, ok := b.Description(); ok {
		body["description"] = desc
	}

	path := fmt.Sprintf("bundles/%s/versions/%s.json", b.ID, b.Version())
	return writeJSON(fs, path, body)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func writeJSON(fs store.FileStore, path string, body any) error {
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact %q: %w", path, err)
	}
	data = append(data, '\n')
	if err := fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("write artifact %q: %w", path, err)
	}
	return nil
}
