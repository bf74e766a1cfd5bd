// Package preflight provides readiness checks for the filesystem roots and
// external binaries that hopper depends on.
//
// The CLI "hopper status" command displays every check with an
// OK/WARN/ERROR marker. The pipeline itself never consults these checks:
// it only requires the roots it actually touches, which EnsureDirectories
// creates at startup.
//
// Checks never mutate anything; directory creation belongs to config.
package preflight
