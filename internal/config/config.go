package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Stability policies selectable via stability.policy.
const (
	PolicyDoubleSample = "double-sample"
	PolicyPerFile      = "per-file"
	PolicyCtime        = "ctime"
)

// Paths contains the drop, queue, and library root directories.
type Paths struct {
	DropRoot  string `toml:"drop_root"`
	QueueRoot string `toml:"queue_root"`
	VideoRoot string `toml:"video_root"`
	MusicRoot string `toml:"music_root"`
	ImageRoot string `toml:"image_root"`
	MiscRoot  string `toml:"misc_root"`
}

// Stability contains the file-stability detector settings.
type Stability struct {
	Policy              string `toml:"policy"`
	ThresholdSeconds    int    `toml:"threshold_seconds"`
	SampleWindowSeconds int    `toml:"sample_window_seconds"`
	BigFileBytes        int64  `toml:"big_file_bytes"`
}

// Probe contains stream-probing subprocess settings.
type Probe struct {
	FFprobeBinary  string `toml:"ffprobe_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Tagging contains the external audio tagging tool invocation. An empty
// command disables the tagging pass.
type Tagging struct {
	Command        string   `toml:"command"`
	Args           []string `toml:"args"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Runtime contains lock and log output settings.
type Runtime struct {
	LockFile  string `toml:"lock_file"`
	LogFile   string `toml:"log_file"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Watch contains settings for the long-running watch mode.
type Watch struct {
	DebounceSeconds     int `toml:"debounce_seconds"`
	ScanIntervalSeconds int `toml:"scan_interval_seconds"`
}

// Config encapsulates all configuration values for Hopper. It is constructed
// once at startup and passed explicitly to every component; nothing reads
// configuration through package-level state.
//
// Configuration sections by subsystem:
//   - Paths: drop root, queue root, and per-tier library roots
//   - Stability: claim-safety policy and thresholds
//   - Probe: ffprobe binary and timeout
//   - Tagging: external audio tagger command
//   - Runtime: lock file, log file, log level/format
//   - Watch: debounce and rescan intervals for watch mode
type Config struct {
	Paths     Paths     `toml:"paths"`
	Stability Stability `toml:"stability"`
	Probe     Probe     `toml:"probe"`
	Tagging   Tagging   `toml:"tagging"`
	Runtime   Runtime   `toml:"runtime"`
	Watch     Watch     `toml:"watch"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/hopper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = strings.TrimSpace(os.Getenv("HOPPER_CONFIG"))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("hopper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run depends on. Failure here is
// structural: a pipeline cannot run against a misconfigured environment.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DropRoot,
		c.Paths.QueueRoot,
		c.Paths.VideoRoot,
		c.Paths.MusicRoot,
		c.Paths.MiscRoot,
		filepath.Dir(c.Runtime.LockFile),
		filepath.Dir(c.Runtime.LogFile),
	}
	if strings.TrimSpace(c.Paths.ImageRoot) != "" {
		dirs = append(dirs, c.Paths.ImageRoot)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StabilityThreshold returns the minimum age a file must reach before it is
// considered for claiming.
func (c *Config) StabilityThreshold() time.Duration {
	return time.Duration(c.Stability.ThresholdSeconds) * time.Second
}

// SampleWindow returns the pause between the two stability samples.
func (c *Config) SampleWindow() time.Duration {
	return time.Duration(c.Stability.SampleWindowSeconds) * time.Second
}

// ProbeTimeout returns the bound on a single ffprobe invocation.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutSeconds) * time.Second
}

// TagTimeout returns the bound on a single tagging tool invocation.
func (c *Config) TagTimeout() time.Duration {
	return time.Duration(c.Tagging.TimeoutSeconds) * time.Second
}

// Debounce returns the quiet period after a drop-root event before a watch
// run triggers.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Watch.DebounceSeconds) * time.Second
}

// ScanInterval returns the periodic rescan interval for watch mode.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Watch.ScanIntervalSeconds) * time.Second
}

// TaggingEnabled reports whether the tagging pass has a tool to invoke.
func (c *Config) TaggingEnabled() bool {
	return strings.TrimSpace(c.Tagging.Command) != ""
}

// ImageTierEnabled reports whether a dedicated image root is configured.
// Without one, images fall through to the misc tier.
func (c *Config) ImageTierEnabled() bool {
	return strings.TrimSpace(c.Paths.ImageRoot) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
