package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAssemblerSeparatesErrorsAndWarnings(t *testing.T) {
	a := NewAssembler()
	a.Add(Error(CodeParse, "categories/Bad.json", "invalid JSON"))
	a.Add(Warning(CodeOrphanedEntity, "templates/Loose.json", "not claimed by any module"))
	a.Add(Error(CodeMissingReference, "categories/Person.json", "missing reference"))

	r := a.Assemble()

	if len(r.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(r.Errors))
	}
	if len(r.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(r.Warnings))
	}
	if !r.Failed() {
		t.Error("expected Failed() true when errors present")
	}
}

func TestReportNotFailedOnWarningsOnly(t *testing.T) {
	a := NewAssembler()
	a.Add(Warning(CodeOrphanedEntity, "templates/Loose.json", "not claimed"))
	r := a.Assemble()

	if r.Failed() {
		t.Error("expected Failed() false when only warnings present")
	}
}

func TestGroupByFilePreservesFirstSeenOrder(t *testing.T) {
	diags := []Diagnostic{
		Error(CodeParse, "b.json", "x"),
		Error(CodeSchema, "a.json", "y"),
		Error(CodeIDMismatch, "b.json", "z"),
	}

	groups := GroupByFile(diags)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].File != "b.json" || len(groups[0].Diagnostics) != 2 {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].File != "a.json" || len(groups[1].Diagnostics) != 1 {
		t.Errorf("groups[1] = %+v", groups[1])
	}
}

func TestWriteSummaryAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.log")

	r1 := Report{Errors: []Diagnostic{Error(CodeParse, "a.json", "x")}}
	r2 := Report{Warnings: []Diagnostic{Warning(CodeOrphanedEntity, "b.json", "y")}}

	if err := WriteSummary(path, r1); err != nil {
		t.Fatal(err)
	}
	if err := WriteSummary(path, r2); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 appended lines, got %d: %v", len(lines), lines)
	}
}
