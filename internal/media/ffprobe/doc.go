// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no hopper-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//   - Client: binds a binary and timeout for repeated probing
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Client.Probe: reduces an inspection to stream capabilities
package ffprobe
