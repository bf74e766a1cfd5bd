package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hopper/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one claim/classify/route pass over the drop root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			result, err := pipeline.New(cfg, logger).Run(cmd.Context())
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			switch {
			case result.Skipped:
				fmt.Fprintln(stdout, "Nothing to do")
			case result.Resumed:
				fmt.Fprintf(stdout, "Resumed run %s: routed %d, failed %d\n", result.RunID, result.Routed, result.Failed)
			default:
				fmt.Fprintf(stdout, "Run %s: claimed %d, routed %d, failed %d\n", result.RunID, result.Claimed, result.Routed, result.Failed)
			}
			return nil
		},
	}
}
