package queue

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hopper/internal/logging"
)

// CleanResult contains the outcome of a stale queue cleanup operation.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// RemoveEmptyRuns deletes run queue directories that no longer contain any
// files, skipping the run named by skipID (the active run cleans itself up).
// It returns the list of removed directories and any errors encountered.
func RemoveEmptyRuns(queueRoot, skipID string, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	queueRoot = strings.TrimSpace(queueRoot)
	if queueRoot == "" {
		return result
	}

	entries, err := os.ReadDir(queueRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: queueRoot, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == skipID {
			continue
		}

		dirPath := filepath.Join(queueRoot, entry.Name())
		if hasFiles(dirPath) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale run queue",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "queue_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check queue root permissions"),
					logging.String(logging.FieldImpact, "empty queue directory lingers"),
				)
			}
		} else {
			result.Removed = append(result.Removed, dirPath)
			if logger != nil {
				logger.Info("removed stale run queue",
					logging.String("path", dirPath),
					logging.String(logging.FieldEventType, "queue_cleanup"),
				)
			}
		}
	}

	return result
}

// PruneEmptyDirs removes empty directories beneath root, bottom-up, repeating
// until a pass removes nothing. The root itself is never removed and the
// exclude subtree (when non-empty) is left untouched. Returns the number of
// directories removed.
func PruneEmptyDirs(root, exclude string) (int, error) {
	const maxPasses = 10

	root = filepath.Clean(root)
	if exclude != "" {
		exclude = filepath.Clean(exclude)
	}

	total := 0
	for pass := 0; pass < maxPasses; pass++ {
		removed, err := pruneEmptyDirsPass(root, exclude)
		if err != nil {
			return total, err
		}
		total += removed
		if removed == 0 {
			break
		}
	}
	return total, nil
}

func pruneEmptyDirsPass(root, exclude string) (int, error) {
	var empty []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() || path == root {
			return nil
		}
		if exclude != "" && path == exclude {
			return filepath.SkipDir
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil
		}
		if len(entries) == 0 {
			empty = append(empty, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, dir := range empty {
		// A race with a new drop can repopulate the directory; losing the
		// remove is fine, the next run prunes again.
		if err := os.Remove(dir); err == nil {
			removed++
		}
	}
	return removed, nil
}

// RunInfo contains metadata about a run queue directory for status display.
type RunInfo struct {
	ID      string
	Path    string
	ModTime time.Time
	Files   int
	Size    int64
}

// ListRuns returns all run queue directories with their metadata.
func ListRuns(queueRoot string) ([]RunInfo, error) {
	queueRoot = strings.TrimSpace(queueRoot)
	if queueRoot == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(queueRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		dirPath := filepath.Join(queueRoot, entry.Name())
		files, size := contentStats(dirPath)

		runs = append(runs, RunInfo{
			ID:      entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Files:   files,
			Size:    size,
		})
	}

	return runs, nil
}

// contentStats counts regular files and sums their sizes, best effort.
func contentStats(path string) (int, int64) {
	var files int
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			files++
			size += info.Size()
		}
		return nil
	})
	return files, size
}
