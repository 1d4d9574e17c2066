package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c360studio/pedal/config"
)

// configCmd groups configuration management subcommands.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pedal configuration",
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

// configInitCmd seeds the user-level config file with defaults. An existing
// file is left untouched.
func configInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the user config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(slog.Default())
			if err := loader.EnsureUserConfig(); err != nil {
				return fmt.Errorf("failed to initialize user config: %w", err)
			}
			return nil
		},
	}
}
