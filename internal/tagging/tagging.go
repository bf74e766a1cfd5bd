// Package tagging invokes the external tagging tool for probe-confirmed
// audio files. The tool runs once per file, never directory-wide, so one
// broken file cannot make it traverse unrelated content.
package tagging

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/services"
)

// Invoker runs the configured tagging tool against individual queued files.
type Invoker struct {
	command string
	args    []string
	timeout time.Duration
	logger  *slog.Logger

	run func(ctx context.Context, command string, args []string) ([]byte, error)
}

// New builds an Invoker from config. An empty tag command disables it.
func New(cfg *config.Config, logger *slog.Logger) *Invoker {
	return &Invoker{
		command: strings.TrimSpace(cfg.Tagging.Command),
		args:    append([]string(nil), cfg.Tagging.Args...),
		timeout: cfg.TagTimeout(),
		logger:  logging.NewComponentLogger(logger, "tagging"),
		run:     runCommand,
	}
}

// Enabled reports whether a tag command is configured.
func (i *Invoker) Enabled() bool {
	return i.command != ""
}

// TagFile invokes the tool with the queued file path appended to the
// configured arguments. Each invocation carries a fresh request ID in its
// log context. Failures return an ErrExternalTool or ErrTimeout tagged
// error with the captured output logged at debug level; the caller logs and
// continues, a bad file never aborts the run.
func (i *Invoker) TagFile(ctx context.Context, path string) error {
	if !i.Enabled() {
		return nil
	}

	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, i.logger)

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	args := append(append([]string(nil), i.args...), path)
	logger.Info("tagging file",
		logging.String(logging.FieldFilePath, path),
		logging.String(logging.FieldEventType, "tag_start"),
	)

	output, err := i.run(ctx, i.command, args)
	if err != nil {
		if trimmed := strings.TrimSpace(string(output)); trimmed != "" {
			logger.Debug("tagger output",
				logging.String(logging.FieldFilePath, path),
				logging.String("output", trimmed),
			)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "tagging", "invoke", i.command, err)
		}
		return services.Wrap(services.ErrExternalTool, "tagging", "invoke", i.command, err)
	}

	logger.Info("tagged file",
		logging.String(logging.FieldFilePath, path),
		logging.String(logging.FieldEventType, "tag_complete"),
	)
	return nil
}

func runCommand(ctx context.Context, command string, args []string) ([]byte, error) {
	return exec.CommandContext(ctx, command, args...).CombinedOutput()
}
