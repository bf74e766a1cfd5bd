// Command hopper sorts a drop directory into a tiered media library.
//
// The command tree wraps one shared pipeline: "run" executes a single
// claim/classify/route pass, "watch" keeps that pass running on filesystem
// events, and "status"/"config" surface the pipeline's view of the world
// without mutating it. Configuration resolution and logger construction
// happen once in the root command so subcommands stay declarative.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
