// Package cycle detects cycles in the three acyclicity-checked relations of
// §4.4: category parents, property parent_property, and module
// dependencies. Each relation is built into the shared internal/graph
// primitive and checked independently; dangling references are ignored
// here since package refcheck already reports them as missing-reference.
package cycle

import (
	"fmt"
	"strings"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/graph"
	"github.com/labki-org/labki-schemas/internal/report"
)

// relation names one of the three checked relations: the entity kind whose
// instances are nodes, the field holding the edges, and how to read it.
type relation struct {
	kind  entity.Kind
	field string
	code  report.Code
	edges func(*entity.Entity) []string
}

var relations = []relation{
	{entity.KindCategory, "parents", report.CodeCircularCategory, func(e *entity.Entity) []string { return e.Parents() }},
	{entity.KindProperty, "parent_property", report.CodeCircularProperty, func(e *entity.Entity) []string {
		if v, ok := e.ParentProperty(); ok {
			return []string{v}
		}
		return nil
	}},
	{entity.KindModule, "dependencies", report.CodeCircularModule, func(e *entity.Entity) []string { return e.Dependencies() }},
}

// Check runs the §4.4 procedure for all three relations and returns one
// diagnostic per detected cycle, in relation-declaration then DFS-discovery
// order.
func Check(idx *entity.Index) []report.Diagnostic {
	var diags []report.Diagnostic
	for _, rel := range relations {
		g := buildGraph(idx, rel)
		for _, cyc := range g.Cycles() {
			diags = append(diags, report.Error(rel.code, "",
				fmt.Sprintf("cycle detected in %s via %q: %s", rel.kind, rel.field, formatCycle(cyc))))
		}
	}
	return diags
}

// Graphs builds and returns the three relation graphs. Package refcheck and
// package cascade both need the module dependency graph and call this
// instead of building their own, so the category/property/module relations
// have exactly one construction path.
func Graphs(idx *entity.Index) map[entity.Kind]*graph.Graph[string] {
	out := make(map[entity.Kind]*graph.Graph[string], len(relations))
	for _, rel := range relations {
		out[rel.kind] = buildGraph(idx, rel)
	}
	return out
}

func buildGraph(idx *entity.Index, rel relation) *graph.Graph[string] {
	g := graph.New[string]()
	for _, e := range idx.OfKind(rel.kind) {
		g.AddNode(e.ID)
		for _, target := range rel.edges(e) {
			if _, ok := idx.Get(rel.kind, target); ok {
				g.AddEdge(e.ID, target)
			}
		}
	}
	return g
}

func formatCycle(nodes []string) string {
	return strings.Join(nodes, " -> ")
}
