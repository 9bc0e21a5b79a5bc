// Package main provides the labki-ontology binary entry point: a
// continuous-integration validator and versioning engine for a community
// ontology repository.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/labki-org/labki-schemas/internal/buildinfo"
	"github.com/spf13/cobra"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	repoPath   string
	logLevel   string
	logFormat  string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   buildinfo.AppName,
		Short: "Ontology validation and versioning engine",
		Long: `labki-ontology validates a community ontology repository and computes
the semantic-version bump each module, bundle, and the ontology as a whole
requires as a consequence of a proposed change.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.repoPath, "repo", "", "Repository path to operate on (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format (text, json)")

	cmd.AddCommand(newValidateCmd(flags))
	cmd.AddCommand(newApplyVersionsCmd(flags))
	cmd.AddCommand(newInitConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", buildinfo.AppName, buildinfo.Version, buildinfo.BuildTime)
		},
	}
}
