package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hopper/internal/config"
	"hopper/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := make([]string, 0, 2)
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeTestConfig persists cfg as TOML so the CLI resolves the same roots
// the test manipulates directly. Stability timings stay zeroed so runs never
// wait, and log level error keeps pipeline chatter out of test output.
func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	content := fmt.Sprintf(`[paths]
drop_root  = %q
queue_root = %q
video_root = %q
music_root = %q
image_root = %q
misc_root  = %q

[stability]
threshold_seconds     = 0
sample_window_seconds = 0

[tagging]
command = %q

[runtime]
lock_file = %q
log_file  = %q
log_level = "error"
`,
		cfg.Paths.DropRoot,
		cfg.Paths.QueueRoot,
		cfg.Paths.VideoRoot,
		cfg.Paths.MusicRoot,
		cfg.Paths.ImageRoot,
		cfg.Paths.MiscRoot,
		cfg.Tagging.Command,
		cfg.Runtime.LockFile,
		cfg.Runtime.LogFile,
	)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
