package main

import (
	"fmt"
	"log/slog"

	"github.com/labki-org/labki-schemas/config"
	"github.com/spf13/cobra"
)

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Create the user config file with defaults if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(slog.Default())
			if err := loader.EnsureUserConfig(); err != nil {
				return fmt.Errorf("init config: %w", err)
			}
			return nil
		},
	}
}
