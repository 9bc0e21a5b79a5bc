// Package change implements the Change Detector of §4.6: given a base
// revision and the working tree, classify every changed entity file as a
// major, minor, or patch bump using entity-type-specific breaking-change
// rules.
package change

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/semver"
	"github.com/labki-org/labki-schemas/internal/store"
)

// Change is one classified entity change.
type Change struct {
	File   string
	Kind   entity.Kind
	ID     string // the working-tree id, or the base id if the entity was deleted
	Class  semver.BumpClass
	Reason string
}

// Detect compares base against the live working tree fs and returns one
// Change per entity file that differs, in lexicographic path order.
//
// A failure from vs.ListChanged is treated as "no changes" per §5, not an
// error: a missing base revision or a non-git working tree should not
// block validation from running.
func Detect(fs store.FileStore, vs store.VersionedStore, base string) ([]Change, error) {
	paths, err := vs.ListChanged(base)
	if err != nil || len(paths) == 0 {
		return nil, nil
	}

	sort.Strings(paths)

	var changes []Change
	for _, p := range paths {
		kind, ok := entity.KindOfPath(p)
		if !ok {
			continue
		}

		baseData, err := vs.ReadAt(base, p)
		if err != nil {
			baseData = nil
		}
		workingData, err := fs.ReadFile(p)
		if err != nil {
			workingData = nil
		}

		if baseData == nil && workingData == nil {
			continue
		}

		c, err := classify(p, kind, baseData, workingData)
		if err != nil {
			return nil, fmt.Errorf("classify %q: %w", p, err)
		}
		changes = append(changes, c)
	}

	return changes, nil
}

// classify implements the rule list of §4.6, first match wins.
func classify(path string, kind entity.Kind, baseData, workingData []byte) (Change, error) {
	baseBody, baseOK := parse(baseData)
	workBody, workOK := parse(workingData)

	switch {
	case baseOK && !workOK:
		id := idOf(baseBody)
		return Change{File: path, Kind: kind, ID: id, Class: semver.Major,
			Reason: fmt.Sprintf("%s deleted: %s", kind, id)}, nil

	case !baseOK && workOK:
		return Change{File: path, Kind: kind, ID: idOf(workBody), Class: semver.Minor}, nil

	case !baseOK && !workOK:
		return Change{File: path, Kind: kind, ID: "", Class: semver.Patch}, nil
	}

	baseID, workID := idOf(baseBody), idOf(workBody)
	if baseID != workID {
		return Change{File: path, Kind: kind, ID: workID, Class: semver.Major,
			Reason: fmt.Sprintf("id changed: %s -> %s", baseID, workID)}, nil
	}

	class, reason := classifyTypeSpecific(kind, baseBody, workBody)
	if class != "" {
		return Change{File: path, Kind: kind, ID: workID, Class: class, Reason: reason}, nil
	}

	if hasAddedField(baseBody, workBody) {
		return Change{File: path, Kind: kind, ID: workID, Class: semver.Minor}, nil
	}

	return Change{File: path, Kind: kind, ID: workID, Class: semver.Patch}, nil
}

func parse(data []byte) (map[string]any, bool) {
	if data == nil {
		return nil, false
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, false
	}
	return body, true
}

func idOf(body map[string]any) string {
	id, _ := body["id"].(string)
	return id
}

func hasAddedField(base, work map[string]any) bool {
	for k := range work {
		if _, ok := base[k]; !ok {
			return true
		}
	}
	return false
}

func hasRemovedField(base, work map[string]any, fields ...string) bool {
	for _, f := range fields {
		if _, ok := base[f]; ok {
			if _, ok := work[f]; !ok {
				return true
			}
		}
	}
	return false
}

// classifyTypeSpecific implements §4.6's per-kind rules. Returns ("", "") if
// none of them match, signalling the caller to fall through to the generic
// added/updated-field rules.
func classifyTypeSpecific(kind entity.Kind, base, work map[string]any) (semver.BumpClass, string) {
	switch kind {
	case entity.KindProperty:
		return classifyProperty(base, work)
	case entity.KindCategory:
		return classifyCategory(base, work)
	case entity.KindModule, entity.KindBundle:
		return classifyModuleOrBundle(kind, base, work)
	default:
		return "", ""
	}
}

func classifyProperty(base, work map[string]any) (semver.BumpClass, string) {
	if s, ok := base["datatype"].(string); ok {
		if t, ok := work["datatype"].(string); ok && s != t {
			return semver.Major, fmt.Sprintf("datatype changed: %s -> %s", s, t)
		}
	}

	baseCard, _ := base["cardinality"].(string)
	workCard, _ := work["cardinality"].(string)
	if baseCard == "multiple" && workCard == "single" {
		return semver.Major, "cardinality narrowed from multiple to single"
	}

	baseAllowed, baseHas := stringSlice(base["allowed_values"])
	workAllowed, workHas := stringSlice(work["allowed_values"])
	if baseHas && workHas {
		if !subset(baseAllowed, workAllowed) {
			return semver.Major, "a previously allowed value was removed"
		}
		if !subset(workAllowed, baseAllowed) {
			return semver.Minor, "a new allowed value was added"
		}
	}

	return "", ""
}

func classifyCategory(base, work map[string]any) (semver.BumpClass, string) {
	baseReq, _ := stringSlice(base["required_properties"])
	workReq, _ := stringSlice(work["required_properties"])
	if newlyRequired := difference(workReq, baseReq); len(newlyRequired) > 0 {
		return semver.Major, fmt.Sprintf("newly required properties: %v", newlyRequired)
	}

	baseOpt, _ := stringSlice(base["optional_properties"])
	workOpt, _ := stringSlice(work["optional_properties"])
	if removed := difference(baseOpt, workOpt); len(removed) > 0 {
		return semver.Major, fmt.Sprintf("optional properties removed: %v", removed)
	}

	return "", ""
}

func classifyModuleOrBundle(kind entity.Kind, base, work map[string]any) (semver.BumpClass, string) {
	fields := []string{"id", "label", "description", "categories", "properties"}
	if hasRemovedField(base, work, fields...) {
		return semver.Major, fmt.Sprintf("%s lost a structural field", kind)
	}
	return "", ""
}

func stringSlice(raw any) ([]string, bool) {
	list, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// subset reports whether every element of a is present in b.
func subset(a, b []string) bool {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	for _, v := range a {
		if !inB[v] {
			return false
		}
	}
	return true
}

// difference returns the elements of a not present in b.
func difference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []string
	for _, v := range a {
		if !inB[v] {
			out = append(out, v)
		}
	}
	return out
}
