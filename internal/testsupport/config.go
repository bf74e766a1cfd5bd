package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hopper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Stability timings are zeroed so runs never sleep, and tagging is disabled;
// tests opt back in through options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DropRoot = filepath.Join(base, "drop")
	cfgVal.Paths.QueueRoot = filepath.Join(base, "drop", ".hopper-queue")
	cfgVal.Paths.VideoRoot = filepath.Join(base, "library", "video")
	cfgVal.Paths.MusicRoot = filepath.Join(base, "library", "music")
	cfgVal.Paths.ImageRoot = filepath.Join(base, "library", "images")
	cfgVal.Paths.MiscRoot = filepath.Join(base, "library", "misc")
	cfgVal.Stability.ThresholdSeconds = 0
	cfgVal.Stability.SampleWindowSeconds = 0
	cfgVal.Tagging.Command = ""
	cfgVal.Runtime.LockFile = filepath.Join(base, "run", "hopper.lock")
	cfgVal.Runtime.LogFile = filepath.Join(base, "run", "hopper.log")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTagCommand enables the tagging pass with the given command and args.
func WithTagCommand(command string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tagging.Command = command
		b.cfg.Tagging.Args = args
	}
}

// WithoutImageRoot clears the image root so images fall to the misc tier.
func WithoutImageRoot() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.ImageRoot = ""
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default hopper external
// binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "beet", "lsof"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DropRoot)
}
