package preflight

import (
	"hopper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// The image root check only runs when an image root is configured.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Drop root", cfg.Paths.DropRoot),
		CheckDirectoryAccess("Queue root", cfg.Paths.QueueRoot),
		CheckDirectoryAccess("Video root", cfg.Paths.VideoRoot),
		CheckDirectoryAccess("Music root", cfg.Paths.MusicRoot),
	}
	if cfg.ImageTierEnabled() {
		results = append(results, CheckDirectoryAccess("Image root", cfg.Paths.ImageRoot))
	}
	results = append(results,
		CheckDirectoryAccess("Misc root", cfg.Paths.MiscRoot),
		CheckSameFilesystem(cfg.Paths.DropRoot, cfg.Paths.QueueRoot),
	)
	return results
}
