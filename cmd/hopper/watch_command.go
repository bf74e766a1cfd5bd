package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hopper/internal/pipeline"
	"hopper/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the drop root and run the pipeline on new arrivals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			w := watcher.New(cfg, logger, pipeline.New(cfg, logger))
			if err := w.Watch(signalCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("watch shutting down")
			return nil
		},
	}
}
