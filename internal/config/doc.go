// Package config loads, normalizes, and validates Hopper configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the HOPPER_CONFIG environment
// fallback. The Config type centralizes every knob the pipeline and CLI
// need, so drop/queue/library directories and stability thresholds are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
