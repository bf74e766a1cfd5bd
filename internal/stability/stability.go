// Package stability decides when drop-root files are safe to claim. A file
// still being written by its producer must never be moved, so every policy
// trades latency for confidence that writes have finished.
package stability

import (
	"context"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/queue"
)

// Detector filters discovered candidates down to the subset safe to claim.
// Rejected files stay in the drop root and are reconsidered next run.
type Detector struct {
	policy       string
	threshold    time.Duration
	sampleWindow time.Duration
	logger       *slog.Logger

	now          func() time.Time
	sleep        func(context.Context, time.Duration) error
	stat         func(string) (os.FileInfo, error)
	openForWrite func(context.Context, string) bool
}

// New builds a Detector from config. The open-for-write signal is consulted
// only by the per-file policy and degrades to "no signal" when lsof is absent.
func New(cfg *config.Config, logger *slog.Logger) *Detector {
	return &Detector{
		policy:       cfg.Stability.Policy,
		threshold:    cfg.StabilityThreshold(),
		sampleWindow: cfg.SampleWindow(),
		logger:       logging.NewComponentLogger(logger, "stability"),
		now:          time.Now,
		sleep:        sleepContext,
		stat:         os.Stat,
		openForWrite: OpenForWrite,
	}
}

// Stable returns the candidates whose policy check passed. The only error is
// context cancellation during a sample sleep.
func (d *Detector) Stable(ctx context.Context, candidates []queue.Candidate) ([]queue.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	switch d.policy {
	case config.PolicyPerFile:
		return d.stablePerFile(ctx, candidates)
	case config.PolicyCtime:
		return d.stableCtime(candidates), nil
	default:
		return d.stableDoubleSample(ctx, candidates)
	}
}

// stableDoubleSample snapshots (size, mtime) for the whole batch, sleeps one
// shared sample window, then re-stats. The single sleep amortizes across
// arbitrarily large candidate sets.
func (d *Detector) stableDoubleSample(ctx context.Context, candidates []queue.Candidate) ([]queue.Candidate, error) {
	now := d.now()
	aged := make([]queue.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if now.Sub(candidate.ModTime) < d.threshold {
			d.reject(candidate.Path, "younger than stability threshold")
			continue
		}
		aged = append(aged, candidate)
	}
	if len(aged) == 0 {
		return nil, nil
	}

	if err := d.sleep(ctx, d.sampleWindow); err != nil {
		return nil, err
	}

	stable := make([]queue.Candidate, 0, len(aged))
	for _, candidate := range aged {
		info, err := d.stat(candidate.Path)
		if err != nil {
			d.reject(candidate.Path, "vanished between samples")
			continue
		}
		if info.Size() != candidate.Size || !info.ModTime().Equal(candidate.ModTime) {
			d.reject(candidate.Path, "changed between samples")
			continue
		}
		stable = append(stable, candidate)
	}
	return stable, nil
}

// stablePerFile sleeps one sample window per candidate, so its latency grows
// with the batch. Suited to small drops where the extra open-for-write signal
// is worth the wait.
func (d *Detector) stablePerFile(ctx context.Context, candidates []queue.Candidate) ([]queue.Candidate, error) {
	now := d.now()
	stable := make([]queue.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		if now.Sub(candidate.ModTime) < d.threshold {
			d.reject(candidate.Path, "younger than stability threshold")
			continue
		}
		// A positive is disqualifying; errors and missing lsof carry no signal.
		if d.openForWrite != nil && d.openForWrite(ctx, candidate.Path) {
			d.reject(candidate.Path, "open for writing")
			continue
		}
		if err := d.sleep(ctx, d.sampleWindow); err != nil {
			return nil, err
		}
		info, err := d.stat(candidate.Path)
		if err != nil {
			d.reject(candidate.Path, "vanished during sample window")
			continue
		}
		if info.Size() != candidate.Size {
			d.reject(candidate.Path, "size changed during sample window")
			continue
		}
		stable = append(stable, candidate)
	}
	return stable, nil
}

// stableCtime accepts on inode status-change age alone. Bulk copies that
// preserve original mtimes make mtime staleness meaningless, but the ctime is
// set by the copy itself and cannot be backdated.
func (d *Detector) stableCtime(candidates []queue.Candidate) []queue.Candidate {
	now := d.now()
	stable := make([]queue.Candidate, 0, len(candidates))
	for _, candidate := range candidates {
		changed, err := statusChangeTime(candidate.Path)
		if err != nil {
			d.reject(candidate.Path, "vanished before claim")
			continue
		}
		if now.Sub(changed) < d.threshold {
			d.reject(candidate.Path, "status change too recent")
			continue
		}
		stable = append(stable, candidate)
	}
	return stable
}

func statusChangeTime(path string) (time.Time, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return time.Time{}, err
	}
	sec, nsec := st.Ctim.Unix()
	return time.Unix(sec, nsec), nil
}

func (d *Detector) reject(path, reason string) {
	if d.logger == nil {
		return
	}
	d.logger.Debug("candidate not yet stable",
		logging.String(logging.FieldFilePath, path),
		logging.String("reason", reason),
	)
}

// sleepContext waits for duration unless the context ends first.
func sleepContext(ctx context.Context, duration time.Duration) error {
	if duration <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
