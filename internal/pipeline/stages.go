package pipeline

import (
	"context"
	"log/slog"
	"os"
	"time"

	"hopper/internal/classify"
	"hopper/internal/logging"
	"hopper/internal/queue"
	"hopper/internal/router"
	"hopper/internal/services"
)

// stage is one named step of the run sequence.
type stage struct {
	name string
	run  func(context.Context, *runState) error
}

// runState carries what stages hand each other during one run.
type runState struct {
	startedAt time.Time
	run       *queue.Run
	router    *router.Router
	resumed   bool
	claimed   int
	routed    int
	failed    int
}

// stages returns the ordered run sequence. The image pass only exists when
// an image root is configured; without one the misc pass sweeps images too.
func (c *Coordinator) stages() []stage {
	seq := []stage{
		{name: "claim", run: c.stageClaim},
		{name: "tagging", run: c.stageTagging},
		{name: "route-video", run: c.stageRouteVideo},
		{name: "route-audio", run: c.stageRouteAudio},
	}
	if c.cfg.ImageTierEnabled() {
		seq = append(seq, stage{name: "route-image", run: c.stageRouteImage})
	}
	seq = append(seq,
		stage{name: "route-misc", run: c.stageRouteMisc},
		stage{name: "cleanup", run: c.stageCleanup},
	)
	return seq
}

// stageClaim resumes the oldest interrupted queue if one exists; otherwise it
// discovers drop-root candidates, filters them through the stability policy,
// and claims the stable set into a fresh run queue by rename.
func (c *Coordinator) stageClaim(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, c.logger)

	resume, err := queue.FindOldestRun(c.cfg.Paths.QueueRoot)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "claim", "scan queue root", "", err)
	}
	if resume != nil {
		files, err := resume.Files()
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "claim", "read run queue", "", err)
		}
		state.run = resume
		state.resumed = true
		logger.Info("resuming interrupted run",
			logging.String(logging.FieldRunID, resume.ID),
			logging.Int("remaining_files", len(files)),
			logging.String(logging.FieldEventType, "run_resumed"),
		)
		return nil
	}

	candidates, err := queue.Discover(c.cfg.Paths.DropRoot, c.cfg.Paths.QueueRoot)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "claim", "scan drop root", "", err)
	}
	stable, err := c.detector.Stable(ctx, candidates)
	if err != nil {
		return err
	}
	if len(stable) == 0 {
		logger.Debug("no stable files to claim", logging.String(logging.FieldEventType, "run_noop"))
		return errNothingToDo
	}

	run, err := queue.CreateRun(c.cfg.Paths.QueueRoot, state.startedAt)
	if err != nil {
		return err
	}
	claimed := queue.Claim(run, stable, logger)
	if claimed == 0 {
		if err := os.Remove(run.Dir); err != nil {
			logger.Debug("failed to remove unused run queue", logging.Error(err))
		}
		logger.Debug("claimed no files", logging.String(logging.FieldEventType, "run_noop"))
		return errNothingToDo
	}
	state.run = run
	state.claimed = claimed

	if _, err := queue.PruneEmptyDirs(c.cfg.Paths.DropRoot, c.cfg.Paths.QueueRoot); err != nil {
		logger.Warn("failed to prune empty drop directories",
			logging.Error(err),
			logging.String(logging.FieldEventType, "drop_prune_failed"),
			logging.String(logging.FieldErrorHint, "check drop root permissions"),
			logging.String(logging.FieldImpact, "empty directories linger under the drop root"),
		)
	}

	logger.Info("run started",
		logging.String(logging.FieldRunID, run.ID),
		logging.Int("claimed_files", claimed),
		logging.String(logging.FieldEventType, "run_started"),
	)
	return nil
}

// stageTagging invokes the external tagger once per sane-audio file, before
// any routing so the tool sees files at their original queued layout.
func (c *Coordinator) stageTagging(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, c.logger)
	if !c.tagger.Enabled() {
		logger.Info("tagging disabled; skipping pass",
			logging.String(logging.FieldEventType, "tagging_disabled"),
		)
		return nil
	}

	files, err := state.run.Files()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tagging", "read run queue", "", err)
	}
	audio := 0
	for _, file := range files {
		if c.classifier.Classify(ctx, file.Path) != classify.KindSaneAudio {
			continue
		}
		audio++
		if err := c.tagger.TagFile(ctx, file.Path); err != nil {
			logger.Warn("tagging failed",
				logging.String(logging.FieldFilePath, file.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "tag_failed"),
				logging.String(logging.FieldErrorHint, "run the tag command against the file manually"),
				logging.String(logging.FieldImpact, "file routes untagged"),
			)
		}
	}
	if audio == 0 {
		logger.Debug("no sane audio files to tag", logging.String(logging.FieldEventType, "tagging_noop"))
	}
	return nil
}

func (c *Coordinator) stageRouteVideo(ctx context.Context, state *runState) error {
	return c.routePass(ctx, state, router.TierVideo, func(k classify.Kind) bool {
		return k == classify.KindVideo
	})
}

func (c *Coordinator) stageRouteAudio(ctx context.Context, state *runState) error {
	return c.routePass(ctx, state, router.TierMusic, func(k classify.Kind) bool {
		return k == classify.KindSaneAudio
	})
}

func (c *Coordinator) stageRouteImage(ctx context.Context, state *runState) error {
	return c.routePass(ctx, state, router.TierImage, func(k classify.Kind) bool {
		return k == classify.KindImage
	})
}

// stageRouteMisc sweeps what classification handed to no other pass: other,
// ambiguous containers, and images when no image root exists. Files an
// earlier pass failed to move keep their own tier and stay queued.
func (c *Coordinator) stageRouteMisc(ctx context.Context, state *runState) error {
	imageTier := c.cfg.ImageTierEnabled()
	return c.routePass(ctx, state, router.TierMisc, func(k classify.Kind) bool {
		if k == classify.KindOther || k == classify.KindAmbiguous {
			return true
		}
		return k == classify.KindImage && !imageTier
	})
}

// routePass walks files still present in the run queue and places those whose
// classification matches. Structural errors abort the run; per-file failures
// are logged and the file stays queued.
func (c *Coordinator) routePass(ctx context.Context, state *runState, tier router.Tier, match func(classify.Kind) bool) error {
	logger := logging.WithContext(ctx, c.logger)
	files, err := state.run.Files()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "routing", "read run queue", "", err)
	}
	for _, file := range files {
		if !match(c.classifier.Classify(ctx, file.Path)) {
			continue
		}
		if tier == router.TierVideo && !c.sanityCheck(ctx, logger, file) {
			state.failed++
			continue
		}
		if _, err := state.router.Place(file, tier); err != nil {
			if services.IsStructural(err) {
				return err
			}
			logger.Warn("failed to route file",
				logging.String(logging.FieldFilePath, file.Path),
				logging.String(logging.FieldTier, string(tier)),
				logging.Error(err),
				logging.String(logging.FieldEventType, "route_failed"),
				logging.String(logging.FieldErrorHint, "resolve the destination conflict or copy failure"),
				logging.String(logging.FieldImpact, "file stays in the run queue"),
			)
			state.failed++
			continue
		}
		state.routed++
	}
	return nil
}

// sanityCheck gates big video files behind one probe parse before routing.
// Anything below the threshold passes without a probe.
func (c *Coordinator) sanityCheck(ctx context.Context, logger *slog.Logger, file queue.File) bool {
	threshold := c.cfg.Stability.BigFileBytes
	if threshold <= 0 || file.Size < threshold {
		return true
	}
	if _, err := c.prober.Probe(ctx, file.Path); err != nil {
		logger.Warn("sanity probe failed",
			logging.String(logging.FieldFilePath, file.Path),
			logging.Int64("size_bytes", file.Size),
			logging.Error(err),
			logging.String(logging.FieldEventType, "sanity_probe_failed"),
			logging.String(logging.FieldErrorHint, "inspect the file with ffprobe"),
			logging.String(logging.FieldImpact, "file stays in the run queue"),
		)
		return false
	}
	return true
}

// stageCleanup prunes the finished run and sweeps stale empty queues. A run
// queue still holding files stays for the next run to resume.
func (c *Coordinator) stageCleanup(ctx context.Context, state *runState) error {
	logger := logging.WithContext(ctx, c.logger)

	if _, err := queue.PruneEmptyDirs(state.run.Dir, ""); err != nil {
		logger.Warn("failed to prune run queue directories",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check queue root permissions"),
			logging.String(logging.FieldImpact, "empty directories linger in the run queue"),
		)
	}
	remaining, err := state.run.Files()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "cleanup", "read run queue", "", err)
	}
	if len(remaining) == 0 {
		if err := os.Remove(state.run.Dir); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove completed run queue",
				logging.String("path", state.run.Dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check queue root permissions"),
				logging.String(logging.FieldImpact, "empty queue directory lingers"),
			)
		}
	} else {
		logger.Warn("run queue still holds files",
			logging.Int("remaining_files", len(remaining)),
			logging.String(logging.FieldEventType, "run_incomplete"),
			logging.String(logging.FieldErrorHint, "inspect files that repeatedly fail to route"),
			logging.String(logging.FieldImpact, "the next run resumes this queue before claiming"),
		)
	}

	queue.RemoveEmptyRuns(c.cfg.Paths.QueueRoot, state.run.ID, logger)
	return nil
}
