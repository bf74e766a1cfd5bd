// Package router computes library destinations for classified queue files
// and transfers them with copy-then-remove semantics, so an interrupted run
// can always be replayed without losing or overwriting data.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hopper/internal/config"
	"hopper/internal/fileutil"
	"hopper/internal/logging"
	"hopper/internal/queue"
	"hopper/internal/services"
	"hopper/internal/textutil"
)

// HourBucketLayout names destination subdirectories for loose files by the
// hour the run started.
const HourBucketLayout = "2006-01-02-15"

// Tier is a routing target backed by a configured library root.
type Tier string

const (
	TierVideo Tier = "video"
	TierMusic Tier = "music"
	TierImage Tier = "image"
	TierMisc  Tier = "misc"
)

// Router places queued files under library roots. One Router serves one run;
// its hour bucket is fixed at the run's start so every loose file from the
// same run lands in the same bucket.
type Router struct {
	cfg    *config.Config
	logger *slog.Logger
	bucket string
}

// New builds a Router for a run that started at startedAt.
func New(cfg *config.Config, logger *slog.Logger, startedAt time.Time) *Router {
	return &Router{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "router"),
		bucket: startedAt.Format(HourBucketLayout),
	}
}

// Destination computes where relPath lands under root: nested paths keep
// their directory structure, loose files land in the run's hour bucket.
func (r *Router) Destination(root, relPath string) string {
	if strings.ContainsRune(relPath, filepath.Separator) {
		return filepath.Join(root, relPath)
	}
	return filepath.Join(root, r.bucket, relPath)
}

// Place transfers one queued file to its tier's library root and returns the
// delivered path. Failure to create the destination parent is structural;
// everything else is a per-file error the caller logs before moving on.
// The file is only removed from the queue once its bytes are safe at the
// destination (or proven to already be there).
func (r *Router) Place(file queue.File, tier Tier) (string, error) {
	root, err := r.rootFor(tier)
	if err != nil {
		return "", err
	}
	dest := r.Destination(root, file.RelPath)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "routing", "create destination dir", filepath.Dir(dest), err)
	}

	if info, err := os.Stat(dest); err == nil {
		if info.Size() == file.Size && file.Size > 0 {
			return dest, r.removeDelivered(file, dest, tier)
		}
		if tier == TierImage || tier == TierMisc {
			dest, err = nextAvailablePath(dest)
			if err != nil {
				return "", services.Wrap(services.ErrTransient, "routing", "allocate duplicate suffix", "", err)
			}
		} else {
			return "", services.Wrap(services.ErrTransient, "routing", "resolve destination",
				fmt.Sprintf("destination %s exists with different content", dest), nil)
		}
	}

	if err := fileutil.CopyFileAtomic(file.Path, dest); err != nil {
		return "", services.Wrap(services.ErrTransient, "routing", "copy file", "", err)
	}
	if err := os.Remove(file.Path); err != nil {
		// The duplicate resolves itself next run via the size check.
		r.logger.Warn("failed to remove queued file after copy",
			logging.String(logging.FieldFilePath, file.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "route_source_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check queue root permissions"),
			logging.String(logging.FieldImpact, "file is delivered but lingers in the queue"),
		)
	}

	r.logger.Info(fmt.Sprintf("%s -> %s", strings.ToUpper(string(tier)), dest),
		logging.String(logging.FieldFilePath, file.Path),
		logging.String(logging.FieldDestination, dest),
		logging.String(logging.FieldTier, string(tier)),
		logging.String("title", textutil.DisplayTitle(dest)),
		logging.String(logging.FieldEventType, "file_routed"),
	)
	return dest, nil
}

// removeDelivered handles the duplicate case: the destination already holds
// this content, so only the queued copy is deleted.
func (r *Router) removeDelivered(file queue.File, dest string, tier Tier) error {
	if err := os.Remove(file.Path); err != nil {
		r.logger.Warn("failed to remove duplicate queued file",
			logging.String(logging.FieldFilePath, file.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "route_source_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check queue root permissions"),
			logging.String(logging.FieldImpact, "duplicate lingers in the queue"),
		)
		return nil
	}
	r.logger.Info("duplicate already delivered",
		logging.String(logging.FieldFilePath, file.Path),
		logging.String(logging.FieldDestination, dest),
		logging.String(logging.FieldTier, string(tier)),
		logging.String(logging.FieldEventType, "file_duplicate"),
	)
	return nil
}

func (r *Router) rootFor(tier Tier) (string, error) {
	switch tier {
	case TierVideo:
		return r.cfg.Paths.VideoRoot, nil
	case TierMusic:
		return r.cfg.Paths.MusicRoot, nil
	case TierImage:
		if !r.cfg.ImageTierEnabled() {
			return "", services.Wrap(services.ErrConfiguration, "routing", "resolve image root",
				"image root not configured; image files route to the misc root", nil)
		}
		return r.cfg.Paths.ImageRoot, nil
	case TierMisc:
		return r.cfg.Paths.MiscRoot, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "routing", "resolve root", fmt.Sprintf("unknown tier %q", tier), nil)
	}
}

// nextAvailablePath appends a numbered duplicate suffix before the extension
// until an unused name is found.
func nextAvailablePath(dest string) (string, error) {
	const maxAttempts = 10000

	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, attempt, ext)
		if _, err := os.Stat(candidate); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return candidate, nil
			}
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted duplicate suffixes for %s", dest)
}
