// Package pipeline orchestrates components 1 through 7 of §2 and the report
// assembler in their declared dependency order and produces the final
// report plus cascade output. Artifact generation is not run here; the
// apply-versions command drives it from the Result. It is the only package that knows the full component sequence;
// each component package remains independently testable.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/labki-org/labki-schemas/internal/cascade"
	"github.com/labki-org/labki-schemas/internal/change"
	"github.com/labki-org/labki-schemas/internal/cycle"
	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/ontology"
	"github.com/labki-org/labki-schemas/internal/orphan"
	"github.com/labki-org/labki-schemas/internal/refcheck"
	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/schema"
	"github.com/labki-org/labki-schemas/internal/store"
)

// Options controls what a Run executes.
type Options struct {
	// StrictOrphans promotes orphaned-entity warnings to errors.
	StrictOrphans bool
	// Base is the revision the change detector compares the working tree
	// against. Empty skips change detection, cascade, and overrides.
	Base string
	// OverridesPath is passed to the cascade engine; ignored if Base is
	// empty.
	OverridesPath string
}

// Result is everything a pipeline run produced.
type Result struct {
	Index           *entity.Index
	Report          report.Report
	Cascade         *cascade.Result // nil if Options.Base was empty
	OntologyVersion string          // "" if VERSION is missing or malformed
	OntologyNew     string          // "" if OntologyBump is null or OntologyVersion is ""
}

// Run executes components 1 through 7 of §2 against fs (and vs, if a base
// revision is requested), in declared order. It never panics on validation
// findings — those become diagnostics — but returns an error for I/O
// failures that make running impossible at all (the index builder failing
// to glob, a malformed overrides file).
func Run(logger *slog.Logger, fs store.FileStore, vs store.VersionedStore, opts Options) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Debug("building entity index")
	idx, err := entity.BuildIndex(fs)
	if err != nil {
		return Result{}, fmt.Errorf("build entity index: %w", err)
	}
	logger.Debug("entity index built", slog.Int("count", idx.Len()))

	asm := report.NewAssembler()

	logger.Debug("reading ontology version")
	ontologyVersion, versionDiags := ontology.ReadVersion(fs)
	asm.Add(versionDiags...)

	logger.Debug("running schema validator")
	discovered, err := entity.DiscoverFiles(fs)
	if err != nil {
		return Result{}, fmt.Errorf("discover entity files: %w", err)
	}
	paths := make([]string, len(discovered))
	for i, f := range discovered {
		paths[i] = f.Path
	}
	asm.Add(schema.NewValidator(fs).ValidateFiles(paths)...)

	logger.Debug("running reference and constraint validator")
	asm.Add(refcheck.Check(idx)...)

	logger.Debug("running cycle detector")
	asm.Add(cycle.Check(idx)...)

	logger.Debug("running orphan detector")
	orphanDiags := orphan.Check(idx)
	if opts.StrictOrphans {
		orphanDiags = promoteToErrors(orphanDiags)
	}
	asm.Add(orphanDiags...)

	result := Result{Index: idx, OntologyVersion: ontologyVersion}

	if opts.Base != "" && vs != nil {
		logger.Debug("running change detector", slog.String("base", opts.Base))
		changes, err := change.Detect(fs, vs, opts.Base)
		if err != nil {
			return Result{}, fmt.Errorf("detect changes: %w", err)
		}
		logger.Debug("changes detected", slog.Int("count", len(changes)))

		logger.Debug("running cascade engine")
		overridesPath := opts.OverridesPath
		if overridesPath == "" {
			overridesPath = "VERSION_OVERRIDES.json"
		}
		cr, err := cascade.Run(idx, changes, fs, overridesPath, vs, opts.Base)
		if err != nil {
			return Result{}, fmt.Errorf("run cascade: %w", err)
		}
		asm.Add(cr.OverrideWarnings...)
		result.Cascade = &cr
		result.OntologyNew = ontology.Apply(ontologyVersion, cr.OntologyBump)
	}

	result.Report = asm.Assemble()
	return result, nil
}

func promoteToErrors(diags []report.Diagnostic) []report.Diagnostic {
	out := make([]report.Diagnostic, len(diags))
	for i, d := range diags {
		d.Severity = report.SeverityError
		out[i] = d
	}
	return out
}
