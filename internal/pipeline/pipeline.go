// Package pipeline coordinates one drop-to-library pass: claim stable files
// into a run queue (or resume an interrupted one), tag audio, route every
// queued file to its tier, then clean up. Runs are strictly sequential and
// guarded by a non-blocking file lock so overlapping invocations degrade to
// silent no-ops.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"hopper/internal/classify"
	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/media/ffprobe"
	"hopper/internal/media/mimesniff"
	"hopper/internal/router"
	"hopper/internal/services"
	"hopper/internal/stability"
	"hopper/internal/tagging"
	"hopper/internal/textutil"
)

// errNothingToDo ends a run early without treating it as a failure. Idle
// passes are the common case in watch mode and must stay quiet.
var errNothingToDo = errors.New("nothing to do")

// Result summarizes one pipeline run.
type Result struct {
	RunID   string
	Resumed bool
	Claimed int
	Routed  int
	Failed  int
	Skipped bool
}

// Coordinator executes pipeline runs. One instance serves many runs; each
// Run acquires the lock fresh and releases it before returning.
type Coordinator struct {
	cfg        *config.Config
	logger     *slog.Logger
	lock       *flock.Flock
	detector   *stability.Detector
	classifier *classify.Classifier
	tagger     *tagging.Invoker
	prober     classify.Prober
	now        func() time.Time
}

// New wires a Coordinator from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Coordinator {
	prober := ffprobe.Client{Binary: cfg.Probe.FFprobeBinary, Timeout: cfg.ProbeTimeout()}
	return &Coordinator{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		lock:       flock.New(cfg.Runtime.LockFile),
		detector:   stability.New(cfg, logger),
		classifier: classify.New(prober, mimesniff.Sniffer{}, logger),
		tagger:     tagging.New(cfg, logger),
		prober:     prober,
		now:        time.Now,
	}
}

// Run executes one full pipeline pass. Lock contention and an empty drop
// root are normal outcomes reported via Result.Skipped, never as errors;
// only structural failures return one.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	if dir := filepath.Dir(c.cfg.Runtime.LockFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, "lock", "create lock directory", dir, err)
		}
	}
	held, err := c.lock.TryLock()
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "lock", "acquire run lock", c.cfg.Runtime.LockFile, err)
	}
	if !held {
		c.logger.Debug("another instance holds the run lock",
			logging.String("lock_file", c.cfg.Runtime.LockFile),
			logging.String(logging.FieldEventType, "run_skipped"),
		)
		return Result{Skipped: true}, nil
	}
	defer func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release run lock",
				logging.String("lock_file", c.cfg.Runtime.LockFile),
				logging.Error(err),
			)
		}
	}()

	state := &runState{startedAt: c.now()}
	state.router = router.New(c.cfg, c.logger, state.startedAt)

	for _, st := range c.stages() {
		stageCtx := ctx
		if state.run != nil {
			stageCtx = services.WithRunID(stageCtx, state.run.ID)
		}
		if err := c.runStage(stageCtx, st, state); err != nil {
			if errors.Is(err, errNothingToDo) {
				return Result{Skipped: true}, nil
			}
			return Result{}, err
		}
	}

	c.logger.Info("run complete",
		logging.String(logging.FieldRunID, state.run.ID),
		logging.Int("routed_files", state.routed),
		logging.Int("failed_files", state.failed),
		logging.String("outcome", textutil.Ternary(state.failed == 0, "clean", "partial")),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return Result{
		RunID:   state.run.ID,
		Resumed: state.resumed,
		Claimed: state.claimed,
		Routed:  state.routed,
		Failed:  state.failed,
	}, nil
}

func (c *Coordinator) runStage(ctx context.Context, st stage, state *runState) error {
	stageCtx := logging.WithStage(ctx, st.name)
	stageLogger := logging.WithContext(stageCtx, c.logger)

	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := c.now()
	if err := st.run(stageCtx, state); err != nil {
		if errors.Is(err, errNothingToDo) {
			return err
		}
		stageLogger.Error("stage failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "stage_failure"),
		)
		return err
	}
	stageLogger.Debug("stage completed",
		logging.Duration("duration", c.now().Sub(started)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
	return nil
}
