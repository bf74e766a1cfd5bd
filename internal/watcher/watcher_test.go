package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hopper/internal/logging"
	"hopper/internal/pipeline"
	"hopper/internal/services"
	"hopper/internal/testsupport"
)

type stubRunner struct {
	mu   sync.Mutex
	runs int
	done chan struct{}
}

func newStubRunner() *stubRunner {
	return &stubRunner{done: make(chan struct{}, 16)}
}

func (s *stubRunner) Run(context.Context) (pipeline.Result, error) {
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	select {
	case s.done <- struct{}{}:
	default:
	}
	return pipeline.Result{Skipped: true}, nil
}

func (s *stubRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func waitRun(t *testing.T, runner *stubRunner, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-runner.done:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestWatchRunsOnStartupAndStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.DebounceSeconds = 1
	cfg.Watch.ScanIntervalSeconds = 3600

	runner := newStubRunner()
	w := New(cfg, logging.NewNop(), runner)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	waitRun(t, runner, 5*time.Second, "startup run")

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Watch returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestWatchDebouncesEventBurst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.DebounceSeconds = 1
	cfg.Watch.ScanIntervalSeconds = 3600

	runner := newStubRunner()
	w := New(cfg, logging.NewNop(), runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	waitRun(t, runner, 5*time.Second, "startup run")

	for i := 0; i < 5; i++ {
		testsupport.WriteFileString(t, filepath.Join(cfg.Paths.DropRoot, "burst", "file.bin"), "x")
		name := filepath.Join(cfg.Paths.DropRoot, "loose"+string(rune('a'+i))+".bin")
		testsupport.WriteFileString(t, name, "x")
	}

	waitRun(t, runner, 5*time.Second, "debounced run")

	// The burst must have collapsed into that one run.
	time.Sleep(1500 * time.Millisecond)
	if got := runner.count(); got != 2 {
		t.Fatalf("runs = %d, want 2 (startup + one debounced)", got)
	}
}

func TestWatchTickerForcesPeriodicRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Watch.DebounceSeconds = 3600
	cfg.Watch.ScanIntervalSeconds = 1

	runner := newStubRunner()
	w := New(cfg, logging.NewNop(), runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	waitRun(t, runner, 5*time.Second, "startup run")
	waitRun(t, runner, 5*time.Second, "first ticker run")
	waitRun(t, runner, 5*time.Second, "second ticker run")
}

func TestWatchSetupFailureIsStructural(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Paths.DropRoot = filepath.Join(blocker, "drop")

	w := New(cfg, logging.NewNop(), newStubRunner())
	err := w.Watch(context.Background())
	if err == nil {
		t.Fatal("expected setup error")
	}
	if !services.IsStructural(err) {
		t.Fatalf("setup failure must be structural, got %v", err)
	}
}
