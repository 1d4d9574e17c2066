// Package main provides the pedal binary entry point.
// Pedal compiles a declarative requirements document into API, validation
// and database artifacts through a stage-gated pipeline.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/pedal/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "pedal"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "pedal",
		Short: "Schema-driven artifact compiler",
		Long: `Pedal compiles a declarative requirements document into a set of
connected artifacts: a domain model, a CRUD action model, an OpenAPI
document, a Zod validator module, a database schema with its SQL
migration, and a content-addressed distribution manifest.

Stages run strictly in order; generator stages are gated behind an
explicit approval that must be granted before they may run.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	loadCfg := func() (*config.Config, error) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		if logLevel == "" && cfg.Log.Level != "" {
			configureLogging(cfg.Log.Level)
		}
		return cfg, nil
	}

	for _, sc := range stageCommands() {
		cmd.AddCommand(sc)
	}
	cmd.AddCommand(runCmd(loadCfg))
	cmd.AddCommand(runStageCmd(loadCfg))
	cmd.AddCommand(statusCmd(loadCfg))
	cmd.AddCommand(approveCmd(loadCfg))
	cmd.AddCommand(watchCmd(loadCfg))
	cmd.AddCommand(configCmd())

	// Version command
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}

// configureLogging installs the default text logger at the requested level.
func configureLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadConfig resolves the configuration: an explicit file wins, otherwise
// the layered loader (defaults, user config, project pedal.yaml) applies.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		return cfg, nil
	}
	return config.NewLoader(slog.Default()).Load()
}
