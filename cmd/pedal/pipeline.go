package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/c360studio/pedal/config"
	"github.com/c360studio/pedal/pipeline"
)

type configFunc func() (*config.Config, error)

// openPipeline builds the manager over the configured stages and restores
// any state persisted by earlier invocations.
func openPipeline(cfg *config.Config) (*pipeline.Manager, *pipeline.Store, error) {
	manager := pipeline.NewManager(slog.Default(), pipeline.DefaultStages(cfg, slog.Default()))

	statePath := cfg.Pipeline.StateFile
	if !filepath.IsAbs(statePath) {
		statePath = cfg.ArtifactPath(statePath)
	}
	store := pipeline.NewStore(statePath)

	states, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	manager.Restore(states)

	return manager, store, nil
}

func runCmd(loadCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline, force-approving every stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			manager, store, err := openPipeline(cfg)
			if err != nil {
				return err
			}

			runErr := manager.RunAll(cmd.Context())
			if saveErr := store.Save(manager.StageStates()); saveErr != nil {
				slog.Warn("failed to persist pipeline state", slog.String("error", saveErr.Error()))
			}
			return runErr
		},
	}
}

func runStageCmd(loadCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "run-stage <stage>",
		Short: "Run one stage, enforcing dependency and approval gates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			manager, store, err := openPipeline(cfg)
			if err != nil {
				return err
			}

			runErr := manager.RunStage(cmd.Context(), args[0])
			if saveErr := store.Save(manager.StageStates()); saveErr != nil {
				slog.Warn("failed to persist pipeline state", slog.String("error", saveErr.Error()))
			}
			return runErr
		},
	}
}

func statusCmd(loadCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status [stage]",
		Short: "Show stage states and the aggregate pipeline status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			manager, _, err := openPipeline(cfg)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				state, err := manager.StageStateFor(args[0])
				if err != nil {
					return err
				}
				printStageState(cmd, state)
				return nil
			}

			for _, state := range manager.StageStates() {
				printStageState(cmd, state)
			}
			cmd.Printf("\npipeline: %s\n", manager.Status())
			return nil
		},
	}
}

func printStageState(cmd *cobra.Command, state pipeline.StageState) {
	approval := "-"
	if state.RequiresApproval {
		approval = "required"
		if state.Approved {
			approval = "approved"
		}
	}
	line := fmt.Sprintf("%-28s %-10s approval:%s", state.Name, state.Status, approval)
	if state.Error != "" {
		line += "  error: " + state.Error
	}
	cmd.Println(line)
}

func approveCmd(loadCfg configFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <stage>",
		Short: "Approve a gated stage so it may run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}
			manager, store, err := openPipeline(cfg)
			if err != nil {
				return err
			}

			if err := manager.Approve(args[0]); err != nil {
				return err
			}
			if err := store.Save(manager.StageStates()); err != nil {
				return err
			}
			cmd.Printf("approved %s\n", args[0])
			return nil
		},
	}
}
