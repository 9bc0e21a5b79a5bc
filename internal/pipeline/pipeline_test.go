package pipeline

import (
	"testing"

	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/semver"
	"github.com/labki-org/labki-schemas/internal/store"
)

const propSchema = `{"type":"object","required":["id","label","datatype"],"properties":{"id":{"type":"string"},"label":{"type":"string"},"datatype":{"type":"string"}}}`
const catSchema = `{"type":"object","required":["id","label"],"properties":{"id":{"type":"string"},"label":{"type":"string"}}}`
const moduleSchema = `{"type":"object","required":["id","label","version"]}`

func baseFixture() map[string][]byte {
	return map[string][]byte{
		"VERSION":                 []byte("1.0.0\n"),
		"properties/_schema.json": []byte(propSchema),
		"categories/_schema.json": []byte(catSchema),
		"modules/_schema.json":    []byte(moduleSchema),
		"properties/name.json":    []byte(`{"id":"name","label":"Name","datatype":"string"}`),
		"categories/Person.json":  []byte(`{"id":"Person","label":"Person","required_properties":["name"]}`),
		"modules/core.json":       []byte(`{"id":"core","label":"Core","version":"1.0.0","categories":["Person"],"properties":["name"]}`),
	}
}

func newWorkingTree(base map[string][]byte) *store.MemoryFileStore {
	fs := store.NewMemoryFileStore()
	for path, data := range base {
		fs.Set(path, data)
	}
	return fs
}

func TestValidateOnlyRunFindsNoErrorsOnValidRepo(t *testing.T) {
	fs := newWorkingTree(baseFixture())

	result, err := Run(nil, fs, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if result.Report.Failed() {
		t.Fatalf("expected no errors, got %+v", result.Report)
	}
	if result.OntologyVersion != "1.0.0" {
		t.Fatalf("expected ontology version 1.0.0, got %q", result.OntologyVersion)
	}
}

func TestMissingVersionFileIsFatal(t *testing.T) {
	base := baseFixture()
	delete(base, "VERSION")
	fs := newWorkingTree(base)

	result, err := Run(nil, fs, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Report.Failed() {
		t.Fatal("expected missing VERSION file to fail the run")
	}
	found := false
	for _, e := range result.Report.Errors {
		if e.Code == report.CodeMissingVersion {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected missing-version error, got %+v", result.Report.Errors)
	}
}

func TestOntologyVersionCascadesWithBump(t *testing.T) {
	base := baseFixture()
	working := newWorkingTree(base)
	working.Set("properties/name.json", []byte(`{"id":"name","label":"Name","datatype":"number"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if result.OntologyNew != "2.0.0" {
		t.Fatalf("expected ontology to bump to 2.0.0, got %q", result.OntologyNew)
	}
}

func TestLeafBreakingChangeCascades(t *testing.T) {
	base := baseFixture()
	base["modules/leaf.json"] = []byte(`{"id":"leaf","label":"Leaf","version":"1.0.0","properties":["age"]}`)
	base["properties/age.json"] = []byte(`{"id":"age","label":"Age","datatype":"number"}`)
	base["modules/core.json"] = []byte(`{"id":"core","label":"Core","version":"1.0.0","categories":["Person"],"properties":["name"],"dependencies":["leaf"]}`)

	working := newWorkingTree(base)
	working.Set("properties/age.json", []byte(`{"id":"age","label":"Age","datatype":"string"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cascade == nil {
		t.Fatal("expected cascade result")
	}
	if result.Cascade.ModuleBumps["leaf"] != semver.Major {
		t.Fatalf("expected leaf major bump, got %v", result.Cascade.ModuleBumps)
	}
	if result.Cascade.ModuleBumps["core"] != semver.Major {
		t.Fatalf("expected core to inherit major bump, got %v", result.Cascade.ModuleBumps)
	}
}

func TestAdditivePropertyIsMinor(t *testing.T) {
	base := baseFixture()
	working := newWorkingTree(base)
	working.Set("properties/name.json", []byte(`{"id":"name","label":"Name","datatype":"string","description":"a person's name"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cascade.ModuleBumps["core"] != semver.Minor {
		t.Fatalf("expected minor bump, got %v", result.Cascade.ModuleBumps)
	}
}

func TestOverrideDowngradeWarns(t *testing.T) {
	base := baseFixture()
	working := newWorkingTree(base)
	working.Set("properties/name.json", []byte(`{"id":"name","label":"Name","datatype":"number"}`))
	working.Set("VERSION_OVERRIDES.json", []byte(`{"core":"patch"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD", OverridesPath: "VERSION_OVERRIDES.json"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cascade.ModuleBumps["core"] != semver.Patch {
		t.Fatalf("expected override to downgrade to patch, got %v", result.Cascade.ModuleBumps)
	}
	found := false
	for _, w := range result.Report.Warnings {
		if w.Code == report.CodeOverrideDowngrade {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected override-downgrade warning, got %+v", result.Report.Warnings)
	}
}

func TestOrphanChangeDoesNotBumpOntology(t *testing.T) {
	base := baseFixture()
	base["properties/unclaimed.json"] = []byte(`{"id":"unclaimed","label":"Unclaimed","datatype":"string"}`)
	working := newWorkingTree(base)
	working.Set("properties/unclaimed.json", []byte(`{"id":"unclaimed","label":"Unclaimed","datatype":"number"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Cascade.OntologyBump != "" {
		t.Fatalf("expected null ontology bump, got %v", result.Cascade.OntologyBump)
	}
	if len(result.Cascade.OrphanChanges) != 1 {
		t.Fatalf("expected one orphan change, got %v", result.Cascade.OrphanChanges)
	}
}

func TestScopeViolationIsFatal(t *testing.T) {
	base := baseFixture()
	base["properties/secret.json"] = []byte(`{"id":"secret","label":"Secret","datatype":"string"}`)
	base["categories/Person.json"] = []byte(`{"id":"Person","label":"Person","required_properties":["name","secret"]}`)
	base["modules/other.json"] = []byte(`{"id":"other","label":"Other","version":"1.0.0","properties":["secret"]}`)

	working := newWorkingTree(base)

	result, err := Run(nil, working, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Report.Failed() {
		t.Fatal("expected scope violation to fail the run")
	}
	found := false
	for _, e := range result.Report.Errors {
		if e.Code == report.CodeScopeViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected scope-violation error, got %+v", result.Report.Errors)
	}
}

func TestCycleInModuleDependenciesIsFatalAndCascadeDegrades(t *testing.T) {
	base := baseFixture()
	base["properties/flag.json"] = []byte(`{"id":"flag","label":"Flag","datatype":"number"}`)
	base["modules/a.json"] = []byte(`{"id":"a","label":"A","version":"1.0.0","dependencies":["b"]}`)
	base["modules/b.json"] = []byte(`{"id":"b","label":"B","version":"1.0.0","properties":["flag"],"dependencies":["a"]}`)

	working := newWorkingTree(base)
	working.Set("properties/flag.json", []byte(`{"id":"flag","label":"Flag","datatype":"string"}`))

	vs := store.NewMemoryVersionedStore(base, working)
	result, err := Run(nil, working, vs, Options{Base: "HEAD"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Report.Failed() {
		t.Fatal("expected cycle to fail the run")
	}
	if result.Cascade.ModuleBumps["a"] != "" {
		t.Fatalf("expected a to remain unbumped (no dependency cascade in a cycle), got %v", result.Cascade.ModuleBumps)
	}
	if result.Cascade.ModuleBumps["b"] != semver.Major {
		t.Fatalf("expected b's own bump preserved, got %v", result.Cascade.ModuleBumps)
	}
}
