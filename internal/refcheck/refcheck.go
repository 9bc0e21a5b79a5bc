// Package refcheck enforces the non-cycle referential invariants of §4.3:
// reference existence, self-reference, module-scope containment, and
// required/optional disjointness. Cycle-freeness of the three dependency
// relations is a separate concern, owned by package cycle.
package refcheck

import (
	"fmt"
	"sort"

	"github.com/labki-org/labki-schemas/internal/cycle"
	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/graph"
	"github.com/labki-org/labki-schemas/internal/report"
)

// fieldShape distinguishes a scalar reference field from a list one.
type fieldShape int

const (
	shapeList   fieldShape = iota
	shapeScalar
)

// refField is one entry of the reference-field registry table of §4.3: a
// (source kind, field name) pair naming the target kind it references and
// the field's shape.
type refField struct {
	field  string
	target entity.Kind
	shape  fieldShape
}

// registry maps each source kind to the reference fields it declares, in
// the fixed order §4.3's table lists them — this also fixes diagnostic
// emission order within one entity.
var registry = map[entity.Kind][]refField{
	entity.KindCategory: {
		{"parents", entity.KindCategory, shapeList},
		{"required_properties", entity.KindProperty, shapeList},
		{"optional_properties", entity.KindProperty, shapeList},
		{"required_subobjects", entity.KindSubobject, shapeList},
		{"optional_subobjects", entity.KindSubobject, shapeList},
	},
	entity.KindSubobject: {
		{"required_properties", entity.KindProperty, shapeList},
		{"optional_properties", entity.KindProperty, shapeList},
	},
	entity.KindProperty: {
		{"parent_property", entity.KindProperty, shapeScalar},
		{"has_display_template", entity.KindTemplate, shapeScalar},
	},
	entity.KindModule: {
		{"categories", entity.KindCategory, shapeList},
		{"properties", entity.KindProperty, shapeList},
		{"subobjects", entity.KindSubobject, shapeList},
		{"templates", entity.KindTemplate, shapeList},
		{"dependencies", entity.KindModule, shapeList},
	},
	entity.KindBundle: {
		{"modules", entity.KindModule, shapeList},
	},
}

// fieldValues returns the ids e declares in field, regardless of shape.
func fieldValues(e *entity.Entity, field string) []string {
	switch field {
	case "parents":
		return e.Parents()
	case "required_properties":
		return e.RequiredProperties()
	case "optional_properties":
		return e.OptionalProperties()
	case "required_subobjects":
		return e.RequiredSubobjects()
	case "optional_subobjects":
		return e.OptionalSubobjects()
	case "parent_property":
		if v, ok := e.ParentProperty(); ok {
			return []string{v}
		}
		return nil
	case "has_display_template":
		if v, ok := e.HasDisplayTemplate(); ok {
			return []string{v}
		}
		return nil
	case "categories":
		return e.ModuleCategories()
	case "properties":
		return e.ModuleProperties()
	case "subobjects":
		return e.ModuleSubobjects()
	case "templates":
		return e.ModuleTemplates()
	case "dependencies":
		return e.Dependencies()
	case "modules":
		return e.BundleModules()
	default:
		return nil
	}
}

// Check runs the full §4.3 procedure against idx and returns diagnostics in
// insertion order, matching the index's deterministic iteration order.
func Check(idx *entity.Index) []report.Diagnostic {
	var diags []report.Diagnostic

	owner := buildOwner(idx)
	moduleGraph := cycle.Graphs(idx)[entity.KindModule]
	moduleGraphAcyclic := !moduleGraph.HasCycle()

	for _, e := range idx.All() {
		fields, ok := registry[e.Kind]
		if !ok {
			continue
		}
		for _, f := range fields {
			for _, refID := range fieldValues(e, f.field) {
				diags = append(diags, checkReference(idx, owner, moduleGraph, moduleGraphAcyclic, e, f, refID)...)
			}
		}
		diags = append(diags, checkOverlap(e)...)
	}

	return diags
}

func checkReference(idx *entity.Index, owner map[ownerKey]string, moduleGraph *graph.Graph[string], moduleGraphAcyclic bool, e *entity.Entity, f refField, refID string) []report.Diagnostic {
	var diags []report.Diagnostic

	if f.target == e.Kind && refID == e.ID {
		diags = append(diags, report.Error(report.CodeSelfReference, e.Path,
			fmt.Sprintf("%s %q references itself via %q", e.Kind, e.ID, f.field)))
		return diags
	}

	target, found := idx.Get(f.target, refID)
	if !found {
		diags = append(diags, report.Error(report.CodeMissingReference, e.Path,
			fmt.Sprintf("%s %q references unknown %s %q via %q", e.Kind, e.ID, f.target, refID, f.field)))
		return diags
	}

	if isScopeChecked(e.Kind, f.target) {
		if d := checkScope(owner, moduleGraph, moduleGraphAcyclic, e, target, f.field); d != nil {
			diags = append(diags, *d)
		}
	}

	return diags
}

// isScopeChecked reports whether a reference from sourceKind to targetKind
// is subject to the module-scope check: source must be a content-bearing
// kind, and target must not be modules (module-to-module references are
// the dependency graph itself, not a scoped content reference).
func isScopeChecked(sourceKind, targetKind entity.Kind) bool {
	if targetKind == entity.KindModule {
		return false
	}
	switch sourceKind {
	case entity.KindCategory, entity.KindProperty, entity.KindSubobject, entity.KindTemplate:
		return true
	default:
		return false
	}
}

type ownerKey struct {
	kind entity.Kind
	id   string
}

// buildOwner implements §4.7 step 1's reverse module index, reused here for
// the scope check: (type, id) -> owning module id.
func buildOwner(idx *entity.Index) map[ownerKey]string {
	owner := make(map[ownerKey]string)
	for _, m := range idx.OfKind(entity.KindModule) {
		for kind, ids := range m.Contents() {
			for _, id := range ids {
				owner[ownerKey{kind, id}] = m.ID
			}
		}
	}
	return owner
}

// checkScope implements the §4.3 scope check: a reference from an entity
// owned by module M to an entity owned by module N requires N in the
// closure of M. Entities with no owning module are exempt.
func checkScope(owner map[ownerKey]string, moduleGraph *graph.Graph[string], moduleGraphAcyclic bool, source, target *entity.Entity, field string) *report.Diagnostic {
	sourceModule, ok := owner[ownerKey{source.Kind, source.ID}]
	if !ok {
		return nil
	}
	targetModule, ok := owner[ownerKey{target.Kind, target.ID}]
	if !ok {
		return nil
	}
	if !moduleGraphAcyclic {
		// Cycle Detector reports this separately; scope checks degrade to
		// a no-op rather than producing misleading results.
		return nil
	}
	closure := moduleGraph.Closure(sourceModule)
	if closure[targetModule] {
		return nil
	}
	d := report.Error(report.CodeScopeViolation, source.Path,
		fmt.Sprintf("%s %q (module %q) references %s %q (module %q) via %q outside dependency closure",
			source.Kind, source.ID, sourceModule, target.Kind, target.ID, targetModule, field))
	return &d
}

// checkOverlap implements the required/optional disjointness constraints,
// which carry no reference of their own.
func checkOverlap(e *entity.Entity) []report.Diagnostic {
	var diags []report.Diagnostic

	switch e.Kind {
	case entity.KindCategory:
		if overlap := intersect(e.RequiredProperties(), e.OptionalProperties()); len(overlap) > 0 {
			diags = append(diags, report.Error(report.CodePropertyConflict, e.Path,
				fmt.Sprintf("category %q lists %v in both required and optional properties", e.ID, overlap)))
		}
		if overlap := intersect(e.RequiredSubobjects(), e.OptionalSubobjects()); len(overlap) > 0 {
			diags = append(diags, report.Error(report.CodeSubobjectConflict, e.Path,
				fmt.Sprintf("category %q lists %v in both required and optional subobjects", e.ID, overlap)))
		}
	case entity.KindSubobject:
		if overlap := intersect(e.RequiredProperties(), e.OptionalProperties()); len(overlap) > 0 {
			diags = append(diags, report.Error(report.CodePropertyConflict, e.Path,
				fmt.Sprintf("subobject %q lists %v in both required and optional properties", e.ID, overlap)))
		}
	}

	return diags
}

// intersect returns the ids present in both lists, sorted for determinism
// (the source lists are not necessarily comparably ordered with respect to
// each other).
func intersect(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, v := range a {
		inA[v] = true
	}
	var out []string
	seen := make(map[string]bool)
	for _, v := range b {
		if inA[v] && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
