// Package schema enforces per-type structural validity and id/filename
// consistency (§4.2). Schema compilation is delegated to
// github.com/santhosh-tekuri/jsonschema/v5, a JSON Schema 2020-12
// implementation; each Validator caches its compiled schemas, keyed by the
// directory that owns them, so one Validator compiles each schema once and
// reuses it across files. A new Validator starts with an empty cache.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/store"
)

// Validator validates entity files against their type's compiled schema.
type Validator struct {
	fs       store.FileStore
	compiler *jsonschema.Compiler
	compiled map[string]*jsonschema.Schema // keyed by schema directory
}

// NewValidator creates a Validator reading schemas and entity files from fs.
func NewValidator(fs store.FileStore) *Validator {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	return &Validator{
		fs:       fs,
		compiler: c,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// ValidateFiles runs the per-file procedure of §4.2 against each path in
// files, in the given order, and returns the accumulated diagnostics.
func (v *Validator) ValidateFiles(files []string) []report.Diagnostic {
	var diags []report.Diagnostic
	for _, path := range files {
		diags = append(diags, v.validateFile(path)...)
	}
	return diags
}

func (v *Validator) validateFile(path string) []report.Diagnostic {
	var diags []report.Diagnostic

	schemaDir, found := findSchemaDir(v.fs, path)
	if !found {
		diags = append(diags, report.Error(report.CodeNoSchema, path, "no schema found for this entity's type directory"))
	}

	data, err := v.fs.ReadFile(path)
	if err != nil {
		diags = append(diags, report.Error(report.CodeParse, path, fmt.Sprintf("read file: %v", err)))
		return diags
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		diags = append(diags, report.Error(report.CodeParse, path, fmt.Sprintf("invalid JSON: %v", err)))
		return diags
	}

	if !found {
		return diags
	}

	sch, err := v.compile(schemaDir)
	if err != nil {
		diags = append(diags, report.ErrorWithDetail(report.CodeNoSchema, path, "failed to compile schema", err.Error()))
		return diags
	}

	if err := sch.Validate(instance); err != nil {
		diags = append(diags, report.ErrorWithDetail(report.CodeSchema, path, "does not conform to schema", formatValidationError(err)))
	}

	body, ok := instance.(map[string]any)
	if !ok {
		return diags
	}
	id, _ := body["id"].(string)
	want := expectedID(schemaDir, path)
	if id != want {
		diags = append(diags, report.Error(report.CodeIDMismatch, path,
			fmt.Sprintf("entity id %q does not match path-derived id %q", id, want)))
	}

	return diags
}

// compile returns the cached schema for schemaDir, compiling and caching it
// on first use. The cache lives as long as v does; pipeline.Run creates one
// Validator per run.
func (v *Validator) compile(schemaDir string) (*jsonschema.Schema, error) {
	if sch, ok := v.compiled[schemaDir]; ok {
		return sch, nil
	}

	data, err := v.fs.ReadFile(joinPath(schemaDir, schemaFileName))
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	url := "mem://" + schemaDir + "/_schema.json"
	if err := v.compiler.AddResource(url, strings.NewReader(string(data))); err != nil {
		return nil, fmt.Errorf("register schema resource: %w", err)
	}

	sch, err := v.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.compiled[schemaDir] = sch
	return sch, nil
}

func formatValidationError(err error) string {
	if ve, ok := err.(*jsonschema.ValidationError); ok {
		return ve.Error()
	}
	return err.Error()
}
