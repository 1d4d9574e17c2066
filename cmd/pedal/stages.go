package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c360studio/pedal/manifest"
	"github.com/c360studio/pedal/stage"
)

// stageCommands builds one subcommand per pipeline transformer. Each takes
// the two required artifact path flags and runs the transformer directly,
// outside the orchestrator and its gates.
func stageCommands() []*cobra.Command {
	return []*cobra.Command{
		stageCommand("ingest", "Validate and normalize the requirements document",
			func(logger *slog.Logger) stage.Stage { return stage.NewIngest(logger) }),
		stageCommand("domain-model", "Derive the domain model from validated requirements",
			func(logger *slog.Logger) stage.Stage { return stage.NewDomainModeler(logger) }),
		stageCommand("action-model", "Derive the CRUD action model from the domain model",
			func(logger *slog.Logger) stage.Stage { return stage.NewActionDeriver(logger) }),
		openapiCommand(),
		stageCommand("validators", "Generate the Zod validator module from the OpenAPI document",
			func(logger *slog.Logger) stage.Stage { return stage.NewValidatorGenerator(logger) }),
		stageCommand("db-schema", "Generate the table schema and SQL migration",
			func(logger *slog.Logger) stage.Stage { return stage.NewTableSchemaGenerator(logger) }),
		stageCommand("persist", "Copy artifacts into the distribution root and write the manifest",
			func(logger *slog.Logger) stage.Stage { return manifest.NewBuilder(logger) }),
	}
}

// openapiCommand is stageCommand plus an optional external validator hook.
func openapiCommand() *cobra.Command {
	var validatorCmd []string

	cmd := stageCommand("openapi", "Synthesize the OpenAPI document from the action model",
		func(logger *slog.Logger) stage.Stage {
			s := stage.NewApiSynthesizer(logger)
			s.ValidatorCommand = validatorCmd
			return s
		})
	cmd.Flags().StringSliceVar(&validatorCmd, "validator", nil,
		"External validator command invoked on the emitted document (e.g. spectral,lint)")

	return cmd
}

func stageCommand(use, short string, build func(logger *slog.Logger) stage.Stage) *cobra.Command {
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := build(slog.Default())
			return s.Run(cmd.Context(), inputPath, outputPath)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input artifact path")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output artifact path")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
