// Package report defines the typed diagnostics every validator emits and
// the pure assembler that groups them for output. No validator communicates
// failure by returning a bare error once past its own I/O boundary; errors
// leaving a validator are always []Diagnostic, so the assembler never needs
// to inspect error chains.
package report

import "sort"

// Severity distinguishes fatal findings from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Code enumerates the fixed diagnostic taxonomy.
type Code string

const (
	CodeParse               Code = "parse"
	CodeNoSchema            Code = "no-schema"
	CodeSchema              Code = "schema"
	CodeIDMismatch          Code = "id-mismatch"
	CodeMissingReference    Code = "missing-reference"
	CodeSelfReference       Code = "self-reference"
	CodeScopeViolation      Code = "scope-violation"
	CodePropertyConflict    Code = "property-conflict"
	CodeSubobjectConflict   Code = "subobject-conflict"
	CodeCircularCategory    Code = "circular-category-inheritance"
	CodeCircularModule      Code = "circular-module-dependency"
	CodeCircularProperty    Code = "circular-property-parent_property"
	CodeMissingVersion      Code = "missing-version"
	CodeInvalidVersion      Code = "invalid-version"
	CodeOrphanedEntity      Code = "orphaned-entity"
	CodeVersionBumpInsuff   Code = "version-bump-insufficient"
	CodeOverrideDowngrade   Code = "override-downgrade"
)

// Diagnostic is one finding from a validator.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Message  string   `json:"message"`
	Detail   string   `json:"detail,omitempty"`
}

// Error constructs a SeverityError diagnostic.
func Error(code Code, file, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, File: file, Message: message}
}

// ErrorWithDetail constructs a SeverityError diagnostic carrying extra
// detail (e.g. collected schema-validation error text).
func ErrorWithDetail(code Code, file, message, detail string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, File: file, Message: message, Detail: detail}
}

// Warning constructs a SeverityWarning diagnostic.
func Warning(code Code, file, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, File: file, Message: message}
}

// Report is the fully assembled result of a validate run.
type Report struct {
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
}

// Failed reports whether the report contains any error-severity diagnostic.
// Warnings never fail a run.
func (r Report) Failed() bool {
	return len(r.Errors) > 0
}

// Assembler concatenates diagnostics from each validator in component
// order (the order components are added in, per §2 of the specification)
// and separates them into errors and warnings. It performs no I/O; the
// optional append-only summary sink is written separately by WriteSummary.
type Assembler struct {
	diagnostics []Diagnostic
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add appends diagnostics from one component, preserving the order they
// were produced in within that component.
func (a *Assembler) Add(diags ...Diagnostic) {
	a.diagnostics = append(a.diagnostics, diags...)
}

// Assemble produces the final Report. Within each severity bucket,
// diagnostics retain the order components contributed them in — component
// order is the only ordering guarantee the specification makes (§5).
func (a *Assembler) Assemble() Report {
	var r Report
	for _, d := range a.diagnostics {
		switch d.Severity {
		case SeverityError:
			r.Errors = append(r.Errors, d)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, d)
		}
	}
	return r
}

// GroupByFile groups a diagnostic slice by File, preserving first-seen file
// order and in-file diagnostic order. Diagnostics with no File are grouped
// under the empty string key, listed last.
func GroupByFile(diags []Diagnostic) []FileGroup {
	order := make([]string, 0)
	seen := make(map[string]bool)
	grouped := make(map[string][]Diagnostic)

	for _, d := range diags {
		if !seen[d.File] {
			seen[d.File] = true
			order = append(order, d.File)
		}
		grouped[d.File] = append(grouped[d.File], d)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i] == "" {
			return false
		}
		if order[j] == "" {
			return true
		}
		return false // preserve first-seen order otherwise
	})

	groups := make([]FileGroup, 0, len(order))
	for _, file := range order {
		groups = append(groups, FileGroup{File: file, Diagnostics: grouped[file]})
	}
	return groups
}

// FileGroup is a file path and the diagnostics reported against it.
type FileGroup struct {
	File        string       `json:"file"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}
