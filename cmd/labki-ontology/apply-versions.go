package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/labki-org/labki-schemas/internal/artifact"
	"github.com/labki-org/labki-schemas/internal/cascade"
	"github.com/labki-org/labki-schemas/internal/entity"
	"github.com/labki-org/labki-schemas/internal/ontology"
	"github.com/labki-org/labki-schemas/internal/pipeline"
	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/store"
	"github.com/spf13/cobra"
)

func newApplyVersionsCmd(flags *globalFlags) *cobra.Command {
	var base string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "apply-versions",
		Short: "Cascade version bumps, emit artifacts, and write new version strings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApplyVersions(cmd.Context(), flags, base, dryRun)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Base revision to diff against for change detection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and print the result without writing any file")
	return cmd
}

type applyVersionsResult struct {
	Errors          []report.Diagnostic   `json:"errors"`
	Warnings        []report.Diagnostic   `json:"warnings"`
	ByFile          []report.FileGroup    `json:"byFile"`
	OntologyVersion string                 `json:"ontologyVersion,omitempty"`
	OntologyNew     string                 `json:"ontologyNewVersion,omitempty"`
	ModuleVersions  map[string]versionPair `json:"moduleVersions,omitempty"`
	BundleVersions  map[string]versionPair `json:"bundleVersions,omitempty"`
	DryRun          bool                   `json:"dryRun"`
}

type versionPair struct {
	Current string `json:"current"`
	New     string `json:"new,omitempty"`
	Bump    string `json:"bump"`
}

func runApplyVersions(ctx context.Context, flags *globalFlags, base string, dryRun bool) error {
	cfg, logger, fs, err := loadEnvironment(flags)
	if err != nil {
		return err
	}

	var vs store.VersionedStore
	if base != "" {
		vs = store.NewGitVersionedStore(ctx, fs.Root(), logger)
	}

	result, err := pipeline.Run(logger, fs, vs, pipeline.Options{
		StrictOrphans: cfg.Validation.StrictOrphans,
		Base:          base,
		OverridesPath: cfg.Cascade.OverridesPath,
	})
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	out := applyVersionsResult{
		Errors:          result.Report.Errors,
		Warnings:        result.Report.Warnings,
		OntologyVersion: result.OntologyVersion,
		OntologyNew:     result.OntologyNew,
		DryRun:          dryRun,
	}
	if out.Errors == nil {
		out.Errors = []report.Diagnostic{}
	}
	if out.Warnings == nil {
		out.Warnings = []report.Diagnostic{}
	}
	all := make([]report.Diagnostic, 0, len(out.Errors)+len(out.Warnings))
	all = append(all, out.Errors...)
	all = append(all, out.Warnings...)
	out.ByFile = report.GroupByFile(all)

	if result.Report.Failed() {
		printJSON(out)
		os.Exit(1)
	}

	if result.Cascade != nil {
		out.ModuleVersions = versionPairs(result.Cascade.ModuleVersions)
		out.BundleVersions = versionPairs(result.Cascade.BundleVersions)
	}

	if dryRun || result.Cascade == nil {
		printJSON(out)
		return nil
	}

	if err := writeVersions(fs, result); err != nil {
		return fmt.Errorf("write versions: %w", err)
	}
	if err := emitArtifacts(fs, result); err != nil {
		return fmt.Errorf("emit artifacts: %w", err)
	}
	if result.OntologyNew != "" {
		if err := ontology.WriteVersion(fs, result.OntologyNew); err != nil {
			return fmt.Errorf("write VERSION: %w", err)
		}
	}

	overridesPath := cfg.Cascade.OverridesPath
	if overridesPath == "" {
		overridesPath = "VERSION_OVERRIDES.json"
	}
	if err := fs.Remove(overridesPath); err != nil {
		return fmt.Errorf("remove %s: %w", overridesPath, err)
	}

	printJSON(out)
	return nil
}

// writeVersions rewrites each bumped module's and bundle's file with its new
// version field.
func writeVersions(fs store.FileStore, result pipeline.Result) error {
	for id, info := range result.Cascade.ModuleVersions {
		if info.New == "" {
			continue
		}
		e, ok := result.Index.Get(entity.KindModule, id)
		if !ok {
			continue
		}
		if err := rewriteVersionField(fs, e, info.New); err != nil {
			return err
		}
	}
	for id, info := range result.Cascade.BundleVersions {
		if info.New == "" {
			continue
		}
		e, ok := result.Index.Get(entity.KindBundle, id)
		if !ok {
			continue
		}
		if err := rewriteVersionField(fs, e, info.New); err != nil {
			return err
		}
	}
	return nil
}

func rewriteVersionField(fs store.FileStore, e *entity.Entity, newVersion string) error {
	e.Data["version"] = newVersion
	data, err := json.MarshalIndent(e.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.Path, err)
	}
	data = append(data, '\n')
	return fs.WriteFile(e.Path, data)
}

func emitArtifacts(fs store.FileStore, result pipeline.Result) error {
	now := time.Now()
	for id := range result.Cascade.ModuleVersions {
		if result.Cascade.ModuleVersions[id].New == "" {
			continue
		}
		m, ok := result.Index.Get(entity.KindModule, id)
		if !ok {
			continue
		}
		if err := artifact.Module(fs, result.Index, m, now); err != nil {
			return err
		}
	}

	ontologyVersion := result.OntologyVersion
	if result.OntologyNew != "" {
		ontologyVersion = result.OntologyNew
	}
	for id := range result.Cascade.BundleVersions {
		if result.Cascade.BundleVersions[id].New == "" {
			continue
		}
		b, ok := result.Index.Get(entity.KindBundle, id)
		if !ok {
			continue
		}
		if err := artifact.Bundle(fs, result.Index, b, ontologyVersion, now); err != nil {
			return err
		}
	}
	return nil
}

func versionPairs(in map[string]cascade.VersionInfo) map[string]versionPair {
	out := make(map[string]versionPair, len(in))
	for id, v := range in {
		out[id] = versionPair{Current: v.Current, New: v.New, Bump: string(v.Bump)}
	}
	return out
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
