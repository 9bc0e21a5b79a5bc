package cycle

import (
	"testing"

	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/report"
)

func cat(id string, parents ...string) *entity.Entity {
	data := map[string]any{"id": id, "label": id}
	if len(parents) > 0 {
		list := make([]any, len(parents))
		for i, p := range parents {
			list[i] = p
		}
		data["parents"] = list
	}
	return &entity.Entity{Kind: entity.KindCategory, ID: id, Path: "categories/" + id + ".json", Data: data}
}

func module(id string, deps ...string) *entity.Entity {
	data := map[string]any{"id": id, "label": id}
	if len(deps) > 0 {
		list := make([]any, len(deps))
		for i, d := range deps {
			list[i] = d
		}
		data["dependencies"] = list
	}
	return &entity.Entity{Kind: entity.KindModule, ID: id, Path: "modules/" + id + ".json", Data: data}
}

func codesOf(diags []report.Diagnostic) []report.Code {
	out := make([]report.Code, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestCheckNoCycles(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(cat("Animal"))
	idx.Insert(cat("Dog", "Animal"))
	idx.Insert(module("base"))
	idx.Insert(module("extra", "base"))

	diags := Check(idx)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestCheckCategoryCycle(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(cat("A", "B"))
	idx.Insert(cat("B", "A"))

	diags := Check(idx)
	if len(diags) != 1 || diags[0].Code != report.CodeCircularCategory {
		t.Fatalf("expected one circular-category-inheritance diagnostic, got %v", diags)
	}
}

func TestCheckSelfLoopIsCycle(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(module("self", "self"))

	diags := Check(idx)
	if len(diags) != 1 || diags[0].Code != report.CodeCircularModule {
		t.Fatalf("expected one circular-module-dependency diagnostic, got %v", diags)
	}
}

func TestCheckDanglingReferenceIgnored(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(cat("Dog", "Nonexistent"))

	diags := Check(idx)
	if len(diags) != 0 {
		t.Fatalf("expected dangling references to be ignored here, got %v", diags)
	}
}

func TestGraphsReturnsAllThreeRelations(t *testing.T) {
	idx := entity.NewIndex()
	idx.Insert(module("base"))

	graphs := Graphs(idx)
	for _, k := range []entity.Kind{entity.KindCategory, entity.KindProperty, entity.KindModule} {
		if _, ok := graphs[k]; !ok {
			t.Errorf("expected a graph for kind %q", k)
		}
	}
}
