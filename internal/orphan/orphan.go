// Package orphan implements the warning-only check of §4.5: a
// content-bearing entity not claimed by any module's contents.
package orphan

import (
	"fmt"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/report"
)

// Check returns one orphaned-entity warning per content-bearing entity
// that no module's contents list, in index insertion order.
func Check(idx *entity.Index) []report.Diagnostic {
	claimed := make(map[entity.Kind]map[string]bool, len(entity.ContentBearingKinds))
	for _, k := range entity.ContentBearingKinds {
		claimed[k] = make(map[string]bool)
	}
	for _, m := range idx.OfKind(entity.KindModule) {
		for kind, ids := range m.Contents() {
			for _, id := range ids {
				claimed[kind][id] = true
			}
		}
	}

	var diags []report.Diagnostic
	for _, k := range entity.ContentBearingKinds {
		for _, e := range idx.OfKind(k) {
			if !claimed[k][e.ID] {
				diags = append(diags, report.Warning(report.CodeOrphanedEntity, e.Path,
					fmt.Sprintf("%s %q is not claimed by any module's contents", e.Kind, e.ID)))
			}
		}
	}
	return diags
}
