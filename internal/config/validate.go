package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateStability(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	return c.validateWatch()
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.drop_root":  c.Paths.DropRoot,
		"paths.queue_root": c.Paths.QueueRoot,
		"paths.video_root": c.Paths.VideoRoot,
		"paths.music_root": c.Paths.MusicRoot,
		"paths.misc_root":  c.Paths.MiscRoot,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	if c.Paths.QueueRoot == c.Paths.DropRoot {
		return errors.New("paths.queue_root must differ from paths.drop_root")
	}
	roots := map[string]string{
		"paths.video_root": c.Paths.VideoRoot,
		"paths.music_root": c.Paths.MusicRoot,
		"paths.misc_root":  c.Paths.MiscRoot,
	}
	if c.Paths.ImageRoot != "" {
		roots["paths.image_root"] = c.Paths.ImageRoot
	}
	for key, root := range roots {
		if root == c.Paths.DropRoot {
			return fmt.Errorf("%s must differ from paths.drop_root", key)
		}
		if root == c.Paths.QueueRoot {
			return fmt.Errorf("%s must differ from paths.queue_root", key)
		}
	}
	return nil
}

func (c *Config) validateStability() error {
	switch c.Stability.Policy {
	case PolicyDoubleSample, PolicyPerFile, PolicyCtime:
	default:
		return fmt.Errorf("stability.policy: unsupported value %q (want %s, %s, or %s)",
			c.Stability.Policy, PolicyDoubleSample, PolicyPerFile, PolicyCtime)
	}
	if c.Stability.BigFileBytes <= 0 {
		return errors.New("stability.big_file_bytes must be positive")
	}
	return nil
}

func (c *Config) validateProbe() error {
	if strings.TrimSpace(c.Probe.FFprobeBinary) == "" {
		return errors.New("probe.ffprobe_binary must be set")
	}
	if c.Probe.TimeoutSeconds <= 0 {
		return errors.New("probe.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatch() error {
	if err := ensurePositiveMap(map[string]int{
		"watch.debounce_seconds":      c.Watch.DebounceSeconds,
		"watch.scan_interval_seconds": c.Watch.ScanIntervalSeconds,
	}); err != nil {
		return err
	}
	if c.Watch.ScanIntervalSeconds <= c.Watch.DebounceSeconds {
		return errors.New("watch.scan_interval_seconds must be greater than watch.debounce_seconds")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
