package stability

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"hopper/internal/deps"
)

// lsofTimeout bounds the open-for-write query so a hung lsof cannot stall
// the claim cycle.
const lsofTimeout = 3 * time.Second

// OpenForWrite reports whether some process holds path open for writing,
// best effort via lsof. Missing binary, timeout, or non-zero exit all mean
// "no signal" and return false; only a parsed write or read/write access
// mode returns true.
func OpenForWrite(ctx context.Context, path string) bool {
	if _, err := exec.LookPath(deps.LsofCommand); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, lsofTimeout)
	defer cancel()

	// lsof also exits non-zero when no process has the file open.
	output, err := exec.CommandContext(ctx, deps.LsofCommand, "-F", "a", "--", path).Output()
	if err != nil {
		return false
	}
	return hasWriteAccessMode(string(output))
}

// hasWriteAccessMode scans lsof -F field output for access-mode lines
// ("a" prefix) reporting write ("w") or read/write ("u") access.
func hasWriteAccessMode(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		if len(line) < 2 || line[0] != 'a' {
			continue
		}
		if strings.ContainsAny(line[1:], "wu") {
			return true
		}
	}
	return false
}
