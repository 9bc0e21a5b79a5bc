// Package cascade implements the Cascade Engine of §4.7: it propagates
// per-entity change classes upward through the module dependency graph,
// aggregates to bundles, computes the ontology bump, and applies manual
// overrides.
package cascade

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/labki-org/labki-schemas/internal/change"
	"github.com/labki-org/labki-schemas/internal/cycle"
	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/graph"
	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/semver"
	"github.com/labki-org/labki-schemas/internal/store"
)

// VersionInfo describes one entity's current version, the version the
// cascade computed, and the bump class that produced it.
type VersionInfo struct {
	Current string
	New     string
	Bump    semver.BumpClass
}

// Result is the full output of one cascade run.
type Result struct {
	Changes          []change.Change
	ModuleBumps      map[string]semver.BumpClass
	BundleBumps      map[string]semver.BumpClass
	OntologyBump      semver.BumpClass // "" means null
	OrphanChanges    []change.Change
	Overrides        map[string]semver.BumpClass
	OverrideWarnings []report.Diagnostic
	ModuleVersions   map[string]VersionInfo
	BundleVersions   map[string]VersionInfo
}

type ownerKey struct {
	kind entity.Kind
	id   string
}

// Run executes §4.7 steps 1 through 7 against idx and changes, reading
// overrides (if present) from fs at overridesPath. vs and base are used
// only for the version-bump-insufficient check (§7); pass a nil vs or an
// empty base to skip it.
func Run(idx *entity.Index, changes []change.Change, fs store.FileStore, overridesPath string, vs store.VersionedStore, base string) (Result, error) {
	owner := buildOwner(idx)

	moduleBumps, orphanChanges := aggregateByModule(changes, owner)
	depGraph := cycle.Graphs(idx)[entity.KindModule]
	cascadeDependencies(moduleBumps, depGraph)

	bundleBumps := aggregateBundles(idx, moduleBumps)
	ontologyBump := computeOntologyBump(moduleBumps, bundleBumps)

	overrides, err := loadOverrides(fs, overridesPath)
	if err != nil {
		return Result{}, fmt.Errorf("load overrides: %w", err)
	}

	warnings := applyOverrides(idx, overrides, moduleBumps, bundleBumps, &ontologyBump)

	moduleVersions := computeVersions(idx, entity.KindModule, moduleBumps)
	bundleVersions := computeVersions(idx, entity.KindBundle, bundleBumps)

	if vs != nil && base != "" {
		warnings = append(warnings, checkManualBumps(idx, entity.KindModule, moduleBumps, vs, base)...)
		warnings = append(warnings, checkManualBumps(idx, entity.KindBundle, bundleBumps, vs, base)...)
	}

	return Result{
		Changes:          changes,
		ModuleBumps:      moduleBumps,
		BundleBumps:      bundleBumps,
		OntologyBump:      ontologyBump,
		OrphanChanges:    orphanChanges,
		Overrides:        overrides,
		OverrideWarnings: warnings,
		ModuleVersions:   moduleVersions,
		BundleVersions:   bundleVersions,
	}, nil
}

// checkManualBumps implements the version-bump-insufficient warning: if an
// entity's committed version field was manually moved forward by less than
// the bump its changes require, warn. An entity whose version field was not
// touched at all (the common case, left for apply-versions to handle) is
// not flagged: this only catches a bump that was attempted but fell short.
func checkManualBumps(idx *entity.Index, kind entity.Kind, bumps map[string]semver.BumpClass, vs store.VersionedStore, base string) []report.Diagnostic {
	var warnings []report.Diagnostic
	for id, required := range bumps {
		e, ok := idx.Get(kind, id)
		if !ok {
			continue
		}

		baseData, err := vs.ReadAt(base, e.Path)
		if err != nil || baseData == nil {
			continue
		}
		var baseBody struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(baseData, &baseBody); err != nil {
			continue
		}

		oldV, err := semver.Parse(baseBody.Version)
		if err != nil {
			continue
		}
		newV, err := semver.Parse(e.Version())
		if err != nil {
			continue
		}

		actual := semver.Diff(oldV, newV)
		if actual == "" {
			continue
		}
		if semver.Priority(actual) < semver.Priority(required) {
			warnings = append(warnings, report.Warning(report.CodeVersionBumpInsuff, e.Path,
				fmt.Sprintf("%s %q version bumped %s, but changes require at least %s", kind, id, actual, required)))
		}
	}
	return warnings
}

// buildOwner implements step 1: (type, id) -> owning module id.
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

// aggregateByModule implements step 2: per-module aggregation from changes,
// collecting orphan changes separately.
func aggregateByModule(changes []change.Change, owner map[ownerKey]string) (map[string]semver.BumpClass, []change.Change) {
	bumps := make(map[string]semver.BumpClass)
	var orphans []change.Change

	for _, c := range changes {
		moduleID, ok := owner[ownerKey{c.Kind, c.ID}]
		if !ok {
			orphans = append(orphans, c)
			continue
		}
		bumps[moduleID] = semver.Max(bumps[moduleID], c.Class)
	}

	return bumps, orphans
}

// cascadeDependencies implements step 3: propagate bumps from dependencies
// to dependents in topological order. If the graph is cyclic, bumps is left
// unchanged — the Cycle Detector already reports the cycle.
func cascadeDependencies(bumps map[string]semver.BumpClass, g *graph.Graph[string]) {
	order, ok := g.TopoSort()
	if !ok {
		return
	}

	// order is leaves-first (dependencies before dependents), so a single
	// forward pass sees each module's dependencies already resolved.
	for _, m := range order {
		var depBump semver.BumpClass
		for _, dep := range g.Edges(m) {
			depBump = semver.Max(depBump, bumps[dep])
		}
		if depBump != "" {
			bumps[m] = semver.Max(bumps[m], depBump)
		}
	}
}

// aggregateBundles implements step 4: a bundle's bump is the max over its
// modules' bumps, omitted entirely if no member module bumped.
func aggregateBundles(idx *entity.Index, moduleBumps map[string]semver.BumpClass) map[string]semver.BumpClass {
	bundleBumps := make(map[string]semver.BumpClass)
	for _, b := range idx.OfKind(entity.KindBundle) {
		var bump semver.BumpClass
		for _, moduleID := range b.BundleModules() {
			bump = semver.Max(bump, moduleBumps[moduleID])
		}
		if bump != "" {
			bundleBumps[b.ID] = bump
		}
	}
	return bundleBumps
}

// computeOntologyBump implements step 5.
func computeOntologyBump(moduleBumps, bundleBumps map[string]semver.BumpClass) semver.BumpClass {
	var bump semver.BumpClass
	for _, b := range moduleBumps {
		bump = semver.Max(bump, b)
	}
	for _, b := range bundleBumps {
		bump = semver.Max(bump, b)
	}
	return bump
}

// loadOverrides reads VERSION_OVERRIDES.json if present; a missing file is
// not an error (empty overrides).
func loadOverrides(fs store.FileStore, path string) (map[string]semver.BumpClass, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		if store.IsNotExist(err) {
			return map[string]semver.BumpClass{}, nil
		}
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	overrides := make(map[string]semver.BumpClass, len(raw))
	for id, class := range raw {
		b := semver.BumpClass(class)
		if !semver.Valid(b) {
			return nil, fmt.Errorf("%s: invalid bump class %q for %q", path, class, id)
		}
		overrides[id] = b
	}
	return overrides, nil
}

// applyOverrides implements step 6. Overrides are applied in sorted key
// order for determinism since a JSON object carries no ordering guarantee.
func applyOverrides(idx *entity.Index, overrides map[string]semver.BumpClass, moduleBumps, bundleBumps map[string]semver.BumpClass, ontologyBump *semver.BumpClass) []report.Diagnostic {
	var warnings []report.Diagnostic

	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		class := overrides[id]

		if id == "ontology" {
			if *ontologyBump != "" && semver.Priority(class) < semver.Priority(*ontologyBump) {
				warnings = append(warnings, report.Warning(report.CodeOverrideDowngrade, "",
					fmt.Sprintf("override downgrades ontology bump from %s to %s", *ontologyBump, class)))
			}
			anyBump := len(moduleBumps) > 0 || len(bundleBumps) > 0
			if anyBump {
				*ontologyBump = class
			}
			continue
		}

		if current, ok := moduleBumps[id]; ok {
			if semver.Priority(class) < semver.Priority(current) {
				warnings = append(warnings, report.Warning(report.CodeOverrideDowngrade, "",
					fmt.Sprintf("override downgrades module %q bump from %s to %s", id, current, class)))
			}
			moduleBumps[id] = class
			continue
		}
		if current, ok := bundleBumps[id]; ok {
			if semver.Priority(class) < semver.Priority(current) {
				warnings = append(warnings, report.Warning(report.CodeOverrideDowngrade, "",
					fmt.Sprintf("override downgrades bundle %q bump from %s to %s", id, current, class)))
			}
			bundleBumps[id] = class
			continue
		}

		// id not bumped by anything: escalate from nothing. Ids are
		// scoped per type, so look up which kind actually owns id.
		if _, ok := idx.Get(entity.KindModule, id); ok {
			moduleBumps[id] = class
		} else if _, ok := idx.Get(entity.KindBundle, id); ok {
			bundleBumps[id] = class
		}
	}

	return warnings
}

// computeVersions implements step 7 for one kind.
func computeVersions(idx *entity.Index, kind entity.Kind, bumps map[string]semver.BumpClass) map[string]VersionInfo {
	versions := make(map[string]VersionInfo, len(bumps))
	for id, class := range bumps {
		e, ok := idx.Get(kind, id)
		if !ok {
			continue
		}
		current := e.Version()
		cv, err := semver.Parse(current)
		if err != nil {
			versions[id] = VersionInfo{Current: current, Bump: class}
			continue
		}
		nv, err := semver.Apply(cv, class)
		if err != nil {
			versions[id] = VersionInfo{Current: current, Bump: class}
			continue
		}
		versions[id] = VersionInfo{Current: current, New: nv.String(), Bump: class}
	}
	return versions
}
