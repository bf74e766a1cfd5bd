// Package queue manages the filesystem run queue: discovering claimable
// files under the drop root, relocating them into per-run queue directories
// by rename, and finding interrupted runs to resume. All queue state lives
// in directory structure; nothing is persisted elsewhere.
package queue

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hopper/internal/logging"
	"hopper/internal/services"
)

// RunIDFormat is the sortable timestamp layout for run queue directory names.
const RunIDFormat = "20060102T150405.000Z"

// maxRunIDAttempts bounds the numeric-suffix retry when a run directory
// name collides.
const maxRunIDAttempts = 100

// Candidate is a drop-root file observed during discovery, with the size and
// mtime snapshot stability policies compare against.
type Candidate struct {
	Path    string
	RelPath string
	Size    int64
	ModTime time.Time
}

// File is a claimed file inside a run queue, keyed by its path relative to
// the queue directory (which mirrors its original path under the drop root).
type File struct {
	Path    string
	RelPath string
	Size    int64
}

// Run is a claimed batch: one directory under the queue root owning its
// files exclusively until they are routed out.
type Run struct {
	ID  string
	Dir string
}

// Discover walks the drop root and returns every regular file that could be
// claimed, in lexical order. Hidden entries are skipped entirely, and the
// queue root subtree is excluded when it nests under the drop root. A missing
// drop root yields an empty set.
func Discover(dropRoot, queueRoot string) ([]Candidate, error) {
	dropRoot = filepath.Clean(dropRoot)
	queueRoot = filepath.Clean(queueRoot)

	var candidates []Candidate
	err := filepath.WalkDir(dropRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dropRoot {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path == dropRoot {
				return nil
			}
			if path == queueRoot || strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dropRoot, path)
		if err != nil {
			return nil
		}
		candidates = append(candidates, Candidate{
			Path:    path,
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return candidates, nil
}

// NewRunID formats now as a sortable UTC run identifier.
func NewRunID(now time.Time) string {
	return now.UTC().Format(RunIDFormat)
}

// CreateRun makes a fresh run queue directory under the queue root, retrying
// with a numeric suffix on collision. Failure is structural.
func CreateRun(queueRoot string, now time.Time) (*Run, error) {
	if err := os.MkdirAll(queueRoot, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "claim", "create queue root", "", err)
	}
	base := NewRunID(now)
	for attempt := 0; attempt < maxRunIDAttempts; attempt++ {
		id := base
		if attempt > 0 {
			id = fmt.Sprintf("%s-%d", base, attempt)
		}
		dir := filepath.Join(queueRoot, id)
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return &Run{ID: id, Dir: dir}, nil
		}
		if os.IsExist(err) {
			continue
		}
		return nil, services.Wrap(services.ErrConfiguration, "claim", "create run queue", "", err)
	}
	return nil, services.Wrap(services.ErrConfiguration, "claim", "create run queue", fmt.Sprintf("no free run ID after %d attempts", maxRunIDAttempts), nil)
}

// Claim renames each candidate into the run queue, preserving its path
// relative to the drop root. Claims are per-file all-or-nothing: a failed
// rename is logged and the file stays in the drop root for the next run.
// Returns the number of files claimed.
func Claim(run *Run, candidates []Candidate, logger *slog.Logger) int {
	claimed := 0
	for _, candidate := range candidates {
		dest := filepath.Join(run.Dir, candidate.RelPath)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			warnClaimFailure(logger, candidate.Path, err)
			continue
		}
		if err := os.Rename(candidate.Path, dest); err != nil {
			warnClaimFailure(logger, candidate.Path, err)
			continue
		}
		claimed++
		if logger != nil {
			logger.Debug("claimed file",
				logging.String(logging.FieldFilePath, candidate.Path),
				logging.String("queued_path", dest),
				logging.String(logging.FieldEventType, "file_claimed"),
			)
		}
	}
	return claimed
}

func warnClaimFailure(logger *slog.Logger, path string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("failed to claim file",
		logging.String(logging.FieldFilePath, path),
		logging.Error(err),
		logging.String(logging.FieldEventType, "claim_failed"),
		logging.String(logging.FieldErrorHint, "check drop root permissions and that the queue root shares its filesystem"),
		logging.String(logging.FieldImpact, "file remains in the drop root for the next run"),
	)
}

// FindOldestRun returns the oldest run queue that still contains files, or
// nil when every queue is empty or absent. Run IDs sort lexicographically,
// so directory order is age order. Pure query; nothing is mutated.
func FindOldestRun(queueRoot string) (*Run, error) {
	entries, err := os.ReadDir(queueRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(queueRoot, entry.Name())
		if hasFiles(dir) {
			return &Run{ID: entry.Name(), Dir: dir}, nil
		}
	}
	return nil, nil
}

// Files walks the run queue and returns every file still awaiting routing,
// in lexical order.
func (r *Run) Files() ([]File, error) {
	var files []File
	err := filepath.WalkDir(r.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(r.Dir, path)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, RelPath: rel, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// hasFiles reports whether any regular file exists beneath dir.
func hasFiles(dir string) bool {
	var found bool
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	return found
}
