package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// watchDebounce is how long to wait for more changes before re-running.
const watchDebounce = 500 * time.Millisecond

// watchCmd re-runs the full pipeline whenever the requirements file changes.
// Editors typically replace files with a rename, so the watch is on the
// containing directory and events are filtered by name.
func watchCmd(loadCfg configFunc) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the pipeline when the requirements file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadCfg()
			if err != nil {
				return err
			}

			requirements := cfg.Artifacts.RequirementsFile
			if !filepath.IsAbs(requirements) {
				requirements = cfg.ArtifactPath(requirements)
			}
			requirements, err = filepath.Abs(requirements)
			if err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			if err := watcher.Add(filepath.Dir(requirements)); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// One manager for the whole watch session: RunAll resets all
			// stage state, and the metrics registry accumulates across runs.
			manager, store, err := openPipeline(cfg)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(
					manager.Metrics().Registry(), promhttp.HandlerOpts{}))
				srv := &http.Server{Addr: metricsAddr, Handler: mux}
				go func() {
					slog.Info("serving pipeline metrics", slog.String("addr", metricsAddr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						slog.Error("metrics server failed", slog.String("error", err.Error()))
					}
				}()
				defer srv.Close()
			}

			slog.Info("watching requirements file", slog.String("path", requirements))

			runPipeline := func() {
				if err := manager.RunAll(ctx); err != nil {
					slog.Error("pipeline run failed", slog.String("error", err.Error()))
				}
				if err := store.Save(manager.StageStates()); err != nil {
					slog.Warn("failed to persist pipeline state", slog.String("error", err.Error()))
				}
			}

			// Initial run, then re-run on every debounced change.
			runPipeline()
			return watchLoop(ctx, watcher, requirements, runPipeline)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address while watching (e.g. :9090)")

	return cmd
}

// watchLoop blocks until the context is canceled, invoking run after every
// debounced burst of changes to the watched file.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, path string, run func()) error {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			slog.Debug("requirements change detected", slog.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(watchDebounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}
