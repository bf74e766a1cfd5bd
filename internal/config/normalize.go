package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStability()
	c.normalizeProbe()
	c.normalizeTagging()
	if err := c.normalizeRuntime(); err != nil {
		return err
	}
	c.normalizeWatch()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DropRoot, err = expandPath(c.Paths.DropRoot); err != nil {
		return fmt.Errorf("paths.drop_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.QueueRoot) == "" {
		c.Paths.QueueRoot = filepath.Join(c.Paths.DropRoot, defaultQueueDirName)
	}
	if c.Paths.QueueRoot, err = expandPath(c.Paths.QueueRoot); err != nil {
		return fmt.Errorf("paths.queue_root: %w", err)
	}
	if c.Paths.VideoRoot, err = expandPath(c.Paths.VideoRoot); err != nil {
		return fmt.Errorf("paths.video_root: %w", err)
	}
	if c.Paths.MusicRoot, err = expandPath(c.Paths.MusicRoot); err != nil {
		return fmt.Errorf("paths.music_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImageRoot) != "" {
		if c.Paths.ImageRoot, err = expandPath(c.Paths.ImageRoot); err != nil {
			return fmt.Errorf("paths.image_root: %w", err)
		}
	} else {
		c.Paths.ImageRoot = ""
	}
	if c.Paths.MiscRoot, err = expandPath(c.Paths.MiscRoot); err != nil {
		return fmt.Errorf("paths.misc_root: %w", err)
	}
	return nil
}

func (c *Config) normalizeStability() {
	c.Stability.Policy = strings.ToLower(strings.TrimSpace(c.Stability.Policy))
	if c.Stability.Policy == "" {
		c.Stability.Policy = defaultPolicy
	}
	if c.Stability.ThresholdSeconds < 0 {
		c.Stability.ThresholdSeconds = defaultThresholdSeconds
	}
	if c.Stability.SampleWindowSeconds < 0 {
		c.Stability.SampleWindowSeconds = defaultSampleWindowSeconds
	}
	if c.Stability.BigFileBytes <= 0 {
		c.Stability.BigFileBytes = defaultBigFileBytes
	}
}

func (c *Config) normalizeProbe() {
	c.Probe.FFprobeBinary = strings.TrimSpace(c.Probe.FFprobeBinary)
	if c.Probe.FFprobeBinary == "" {
		c.Probe.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeoutSeconds
	}
}

func (c *Config) normalizeTagging() {
	c.Tagging.Command = strings.TrimSpace(c.Tagging.Command)
	args := make([]string, 0, len(c.Tagging.Args))
	for _, arg := range c.Tagging.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Tagging.Args = args
	if c.Tagging.TimeoutSeconds <= 0 {
		c.Tagging.TimeoutSeconds = defaultTagTimeoutSeconds
	}
}

func (c *Config) normalizeRuntime() error {
	var err error
	if strings.TrimSpace(c.Runtime.LockFile) == "" {
		c.Runtime.LockFile = defaultLockFile
	}
	if c.Runtime.LockFile, err = expandPath(c.Runtime.LockFile); err != nil {
		return fmt.Errorf("runtime.lock_file: %w", err)
	}
	if strings.TrimSpace(c.Runtime.LogFile) == "" {
		c.Runtime.LogFile = defaultLogFile
	}
	if c.Runtime.LogFile, err = expandPath(c.Runtime.LogFile); err != nil {
		return fmt.Errorf("runtime.log_file: %w", err)
	}
	c.Runtime.LogFormat = strings.ToLower(strings.TrimSpace(c.Runtime.LogFormat))
	switch c.Runtime.LogFormat {
	case "", "pretty", "console":
		c.Runtime.LogFormat = "pretty"
	case "json":
	default:
		c.Runtime.LogFormat = "pretty"
	}
	c.Runtime.LogLevel = strings.ToLower(strings.TrimSpace(c.Runtime.LogLevel))
	if c.Runtime.LogLevel == "" {
		c.Runtime.LogLevel = defaultLogLevel
	}
	return nil
}

func (c *Config) normalizeWatch() {
	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = defaultDebounceSeconds
	}
	if c.Watch.ScanIntervalSeconds <= 0 {
		c.Watch.ScanIntervalSeconds = defaultScanInterval
	}
}
