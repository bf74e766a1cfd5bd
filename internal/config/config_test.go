package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hopper/internal/config"
)

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HOPPER_CONFIG", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantDrop := filepath.Join(tempHome, "hopper", "drop")
	if cfg.Paths.DropRoot != wantDrop {
		t.Fatalf("unexpected drop root: got %q want %q", cfg.Paths.DropRoot, wantDrop)
	}
	wantQueue := filepath.Join(wantDrop, ".hopper-queue")
	if cfg.Paths.QueueRoot != wantQueue {
		t.Fatalf("unexpected queue root: got %q want %q", cfg.Paths.QueueRoot, wantQueue)
	}
	if cfg.Paths.MusicRoot != filepath.Join(tempHome, "library", "music") {
		t.Fatalf("unexpected music root: %q", cfg.Paths.MusicRoot)
	}
	if cfg.Stability.Policy != config.PolicyDoubleSample {
		t.Fatalf("unexpected default policy: %q", cfg.Stability.Policy)
	}
	if cfg.Stability.BigFileBytes != int64(1)<<30 {
		t.Fatalf("unexpected big file threshold: %d", cfg.Stability.BigFileBytes)
	}
	if cfg.Probe.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.Probe.FFprobeBinary)
	}
	if !cfg.TaggingEnabled() {
		t.Fatal("expected tagging enabled by default")
	}
	if !cfg.ImageTierEnabled() {
		t.Fatal("expected image tier enabled by default")
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DropRoot, cfg.Paths.QueueRoot, cfg.Paths.VideoRoot, cfg.Paths.MusicRoot, cfg.Paths.MiscRoot} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hopper.toml")

	type payload struct {
		Paths struct {
			DropRoot  string `toml:"drop_root"`
			QueueRoot string `toml:"queue_root"`
		} `toml:"paths"`
		Stability struct {
			Policy           string `toml:"policy"`
			ThresholdSeconds int    `toml:"threshold_seconds"`
		} `toml:"stability"`
		Tagging struct {
			Command string `toml:"command"`
		} `toml:"tagging"`
	}
	custom := payload{}
	custom.Paths.DropRoot = filepath.Join(tempDir, "drop")
	custom.Paths.QueueRoot = filepath.Join(tempDir, "queue")
	custom.Stability.Policy = "per-file"
	custom.Stability.ThresholdSeconds = 10
	custom.Tagging.Command = ""
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.DropRoot != custom.Paths.DropRoot {
		t.Fatalf("expected drop root override, got %q", cfg.Paths.DropRoot)
	}
	if cfg.Stability.Policy != config.PolicyPerFile {
		t.Fatalf("expected per-file policy, got %q", cfg.Stability.Policy)
	}
	if cfg.Stability.ThresholdSeconds != 10 {
		t.Fatalf("expected threshold 10, got %d", cfg.Stability.ThresholdSeconds)
	}
}

func TestHopperConfigEnvResolvesPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "env.toml")
	body := "[stability]\npolicy = \"ctime\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOPPER_CONFIG", configPath)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected env-resolved config, got %q exists=%v", resolved, exists)
	}
	if cfg.Stability.Policy != config.PolicyCtime {
		t.Fatalf("expected ctime policy, got %q", cfg.Stability.Policy)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "drop_root") {
		t.Fatalf("sample config missing drop_root: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Stability.Policy != config.PolicyDoubleSample {
		t.Fatalf("expected sample to carry the default policy, got %q", cfg.Stability.Policy)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.QueueRoot = "/tmp/queue"
	cfg.Stability.Policy = "eventually"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown policy")
	}

	cfg = config.Default()
	cfg.Paths.QueueRoot = cfg.Paths.DropRoot
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when queue root equals drop root")
	}

	cfg = config.Default()
	cfg.Paths.QueueRoot = "/tmp/queue"
	cfg.Paths.MusicRoot = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing music root")
	}

	cfg = config.Default()
	cfg.Paths.QueueRoot = "/tmp/queue"
	cfg.Probe.TimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive probe timeout")
	}

	cfg = config.Default()
	cfg.Paths.QueueRoot = "/tmp/queue"
	cfg.Watch.ScanIntervalSeconds = cfg.Watch.DebounceSeconds
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when scan interval <= debounce")
	}
}

func TestNormalizeDerivesQueueRootAndLogFormat(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hopper.toml")
	body := strings.Join([]string{
		"[paths]",
		"drop_root = \"" + filepath.Join(tempDir, "incoming") + "\"",
		"",
		"[runtime]",
		"log_format = \"CONSOLE\"",
	}, "\n")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	wantQueue := filepath.Join(tempDir, "incoming", ".hopper-queue")
	if cfg.Paths.QueueRoot != wantQueue {
		t.Fatalf("expected derived queue root %q, got %q", wantQueue, cfg.Paths.QueueRoot)
	}
	if cfg.Runtime.LogFormat != "pretty" {
		t.Fatalf("expected console alias to normalize to pretty, got %q", cfg.Runtime.LogFormat)
	}
}
