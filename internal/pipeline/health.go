package pipeline

import (
	"github.com/gofrs/flock"

	"hopper/internal/config"
	"hopper/internal/queue"
)

// Health is a point-in-time view of pipeline filesystem state for status
// reporting.
type Health struct {
	LockPath     string
	LockHeld     bool
	PendingFiles int
	PendingBytes int64
	Runs         []queue.RunInfo
}

// Inspect gathers Health without mutating queue or drop state. Lock state is
// probed with a try-acquire that is released immediately; an unreachable
// lock file reads as not held.
func Inspect(cfg *config.Config) (Health, error) {
	health := Health{LockPath: cfg.Runtime.LockFile}

	lock := flock.New(cfg.Runtime.LockFile)
	if held, err := lock.TryLock(); err == nil {
		if held {
			_ = lock.Unlock()
		} else {
			health.LockHeld = true
		}
	}

	candidates, err := queue.Discover(cfg.Paths.DropRoot, cfg.Paths.QueueRoot)
	if err != nil {
		return health, err
	}
	health.PendingFiles = len(candidates)
	for _, candidate := range candidates {
		health.PendingBytes += candidate.Size
	}

	runs, err := queue.ListRuns(cfg.Paths.QueueRoot)
	if err != nil {
		return health, err
	}
	health.Runs = runs
	return health, nil
}
