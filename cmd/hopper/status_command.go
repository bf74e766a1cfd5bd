package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hopper/internal/config"
	"hopper/internal/deps"
	"hopper/internal/pipeline"
	"hopper/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pipeline, library, and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if cfg == nil {
				return fmt.Errorf("configuration unavailable")
			}

			health, err := pipeline.Inspect(cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout, lockStatusLine(health, colorize))
			fmt.Fprintln(stdout, pendingStatusLine(health, colorize))
			fmt.Fprintln(stdout, taggingStatusLine(cfg, colorize))
			fmt.Fprintln(stdout, sanityProbeStatusLine(cfg, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Library Paths", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range preflight.RunAll(cfg) {
				fmt.Fprintln(stdout, accessStatusLine(result, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(preflight.CheckSystemDeps(cfg), colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Run Queues", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if len(health.Runs) == 0 {
				fmt.Fprintln(stdout, "No run queues on disk")
				return nil
			}
			fmt.Fprintln(stdout, renderRunsTable(health.Runs, time.Now()))
			return nil
		},
	}
}

func lockStatusLine(health pipeline.Health, colorize bool) string {
	if health.LockHeld {
		return renderStatusLine("Lock", statusWarn, fmt.Sprintf("held by another process (%s)", health.LockPath), colorize)
	}
	return renderStatusLine("Lock", statusOK, fmt.Sprintf("free (%s)", health.LockPath), colorize)
}

func pendingStatusLine(health pipeline.Health, colorize bool) string {
	if health.PendingFiles == 0 {
		return renderStatusLine("Drop root", statusOK, "empty", colorize)
	}
	message := fmt.Sprintf("%d file(s) pending (%s)", health.PendingFiles, humanize.Bytes(uint64(health.PendingBytes)))
	return renderStatusLine("Drop root", statusInfo, message, colorize)
}

func taggingStatusLine(cfg *config.Config, colorize bool) string {
	if !cfg.TaggingEnabled() {
		return renderStatusLine("Tagging", statusInfo, "disabled", colorize)
	}
	return renderStatusLine("Tagging", statusOK, fmt.Sprintf("enabled (command: %s)", cfg.Tagging.Command), colorize)
}

func sanityProbeStatusLine(cfg *config.Config, colorize bool) string {
	threshold := cfg.Stability.BigFileBytes
	if threshold <= 0 {
		return renderStatusLine("Sanity probe", statusInfo, "disabled", colorize)
	}
	return renderStatusLine("Sanity probe", statusOK, fmt.Sprintf("videos over %s", humanize.Bytes(uint64(threshold))), colorize)
}

func accessStatusLine(result preflight.Result, colorize bool) string {
	if result.Passed {
		return renderStatusLine(result.Name, statusOK, result.Detail, colorize)
	}
	return renderStatusLine(result.Name, statusError, result.Detail, colorize)
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, status := range statuses {
		if status.Available {
			lines = append(lines, renderStatusLine(status.Name, statusOK, fmt.Sprintf("Ready (command: %s)", status.Command), colorize))
			continue
		}
		kind := statusError
		detail := status.Detail
		if status.Optional {
			kind = statusWarn
			detail += " (optional)"
		}
		lines = append(lines, renderStatusLine(status.Name, kind, detail, colorize))
	}
	return lines
}
