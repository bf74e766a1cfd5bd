package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hopper/internal/testsupport"
)

func TestRunCommandRoutesDropFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	testsupport.WriteFile(t, filepath.Join(env.cfg.Paths.DropRoot, "clip.avi"), 2048)
	testsupport.WriteFileString(t, filepath.Join(env.cfg.Paths.DropRoot, "notes.txt"), "plain text\n")

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "claimed 2, routed 2, failed 0")

	matches, err := filepath.Glob(filepath.Join(env.cfg.Paths.VideoRoot, "*", "clip.avi"))
	if err != nil {
		t.Fatalf("glob video root: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected clip.avi under one hour bucket, got %v", matches)
	}
	matches, err = filepath.Glob(filepath.Join(env.cfg.Paths.MiscRoot, "*", "notes.txt"))
	if err != nil {
		t.Fatalf("glob misc root: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected notes.txt under one hour bucket, got %v", matches)
	}

	entries, err := os.ReadDir(env.cfg.Paths.DropRoot)
	if err != nil {
		t.Fatalf("read drop root: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != filepath.Base(env.cfg.Paths.QueueRoot) {
			t.Fatalf("unexpected leftover in drop root: %s", entry.Name())
		}
	}
}

func TestRunCommandNoWorkPrintsNothingToDo(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Nothing to do")
}

func TestWatchCommandStopsOnCancel(t *testing.T) {
	env := setupCLITestEnv(t)

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", env.configPath, "watch"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch returned error: %v\nstderr: %s", err, stderr.String())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestRootCommandShowsHelp(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	requireContains(t, out, "Usage:")
	requireContains(t, out, "hopper")
}
