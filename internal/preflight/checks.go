package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"hopper/internal/config"
	"hopper/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSameFilesystem verifies that the drop root and queue root share a
// device, since claiming relies on rename and never falls back to copy on
// EXDEV. Roots that cannot be statted pass with a detail note; only a
// positively detected device mismatch fails.
func CheckSameFilesystem(dropRoot, queueRoot string) Result {
	const name = "Claim filesystem"

	var dropStat, queueStat unix.Stat_t
	if err := unix.Stat(dropRoot, &dropStat); err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("unable to verify (stat %s: %v)", dropRoot, err)}
	}
	if err := unix.Stat(queueRoot, &queueStat); err != nil {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("unable to verify (stat %s: %v)", queueRoot, err)}
	}
	if dropStat.Dev != queueStat.Dev {
		return Result{Name: name, Detail: fmt.Sprintf("queue root %s is on a different filesystem than drop root %s; rename-based claiming will fail", queueRoot, dropRoot)}
	}
	return Result{Name: name, Passed: true, Detail: "drop and queue roots share a device"}
}

// CheckSystemDeps evaluates all external binary dependencies for the given
// config. Both the pipeline startup log and the CLI status command use this
// to avoid duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.ForConfig(cfg))
}
