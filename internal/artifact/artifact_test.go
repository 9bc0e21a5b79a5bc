package artifact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/store"
)

func TestModuleWritesExpectedArtifact(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(&entity.Entity{Kind: entity.KindProperty, ID: "name", Path: "properties/name.json",
		Data: map[string]any{"id": "name", "label": "Name", "datatype": "string"}})
	idx.Insert(&entity.Entity{Kind: entity.KindModule, ID: "base", Path: "modules/base.json",
		Data: map[string]any{"id": "base", "label": "Base", "version": "1.0.0"}})
	core := &entity.Entity{Kind: entity.KindModule, ID: "core", Path: "modules/core.json",
		Data: map[string]any{
			"id": "core", "label": "Core", "version": "1.2.0",
			"properties":   []any{"name"},
			"dependencies": []any{"base"},
		}}
	idx.Insert(core)

	fs := store.NewMemoryFileStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := Module(fs, idx, core, now); err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile("modules/core/versions/1.2.0.json")
	if err != nil {
		t.Fatal(err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}

	if body["id"] != "core" || body["version"] != "1.2.0" {
		t.Errorf("unexpected header fields: %+v", body)
	}
	if body["generated"] != "2026-01-02T03:04:05.000Z" {
		t.Errorf("unexpected generated timestamp: %v", body["generated"])
	}
	deps, ok := body["dependencies"].(map[string]any)
	if !ok || deps["base"] != "1.0.0" {
		t.Errorf("unexpected dependencies: %+v", body["dependencies"])
	}
	props, ok := body["properties"].([]any)
	if !ok || len(props) != 1 {
		t.Fatalf("unexpected properties array: %+v", body["properties"])
	}
}

func TestModuleMissingDependencyIsHardError(t *testing.T) {
	idx := entity.NewIndex()
	m := &entity.Entity{Kind: entity.KindModule, ID: "core", Path: "modules/core.json",
		Data: map[string]any{"id": "core", "label": "Core", "version": "1.0.0", "dependencies": []any{"ghost"}}}
	idx.Insert(m)

	fs := store.NewMemoryFileStore()
	if err := Module(fs, idx, m, time.Now()); err == nil {
		t.Fatal("expected error for missing dependency")
	}
}

func TestBundleWritesExpectedArtifact(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(&entity.Entity{Kind: entity.KindModule, ID: "core", Path: "modules/core.json",
		Data: map[string]any{"id": "core", "label": "Core", "version": "1.0.0"}})
	b := &entity.Entity{Kind: entity.KindBundle, ID: "release", Path: "bundles/release.json",
		Data: map[string]any{"id": "release", "label": "Release", "version": "2.0.0", "modules": []any{"core"}, "description": "main release"}}
	idx.Insert(b)

	fs := store.NewMemoryFileStore()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := Bundle(fs, idx, b, "3.0.0", now); err != nil {
		t.Fatal(err)
	}

	data, err := fs.ReadFile("bundles/release/versions/2.0.0.json")
	if err != nil {
		t.Fatal(err)
	}

	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatal(err)
	}

	if body["ontologyVersion"] != "3.0.0" {
		t.Errorf("unexpected ontologyVersion: %v", body["ontologyVersion"])
	}
	if body["description"] != "main release" {
		t.Errorf("unexpected description: %v", body["description"])
	}
	modules, ok := body["modules"].(map[string]any)
	if !ok || modules["core"] != "1.0.0" {
		t.Errorf("unexpected modules: %+v", body["modules"])
	}
}
