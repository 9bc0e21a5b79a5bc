package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/labki-org/labki-schemas/internal/pipeline"
	"github.com/labki-org/labki-schemas/internal/report"
	"github.com/labki-org/labki-schemas/internal/store"
	"github.com/spf13/cobra"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the ontology repository and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), flags, base)
		},
	}

	cmd.Flags().StringVar(&base, "base", "", "Base revision to diff against for change detection (default: skip change detection)")
	return cmd
}

func runValidate(ctx context.Context, flags *globalFlags, base string) error {
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

	if cfg.Validation.SummarySinkPath != "" {
		if err := report.WriteSummary(cfg.Validation.SummarySinkPath, result.Report); err != nil {
			logger.Warn("failed to write summary sink", "error", err)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(validateOutput(result)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if result.Report.Failed() {
		os.Exit(1)
	}
	return nil
}

type validateResult struct {
	Errors          []report.Diagnostic `json:"errors"`
	Warnings        []report.Diagnostic `json:"warnings"`
	ByFile          []report.FileGroup  `json:"byFile"`
	OntologyVersion string               `json:"ontologyVersion,omitempty"`
	Cascade         *cascadeSummary      `json:"cascade,omitempty"`
}

type cascadeSummary struct {
	ModuleBumps  map[string]string `json:"moduleBumps"`
	BundleBumps  map[string]string `json:"bundleBumps"`
	OntologyBump string            `json:"ontologyBump,omitempty"`
}

func validateOutput(result pipeline.Result) validateResult {
	out := validateResult{
		Errors:          result.Report.Errors,
		Warnings:        result.Report.Warnings,
		OntologyVersion: result.OntologyVersion,
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

	if result.Cascade != nil {
		s := &cascadeSummary{
			ModuleBumps: make(map[string]string, len(result.Cascade.ModuleBumps)),
			BundleBumps: make(map[string]string, len(result.Cascade.BundleBumps)),
		}
		for id, b := range result.Cascade.ModuleBumps {
			s.ModuleBumps[id] = string(b)
		}
		for id, b := range result.Cascade.BundleBumps {
			s.BundleBumps[id] = string(b)
		}
		s.OntologyBump = string(result.Cascade.OntologyBump)
		out.Cascade = s
	}

	return out
}
