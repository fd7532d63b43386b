// Package version records the build identity stamped into release binaries.
package version

import "fmt"

// Populated through -ldflags at release time. Development builds keep the
// defaults.
var (
	// Version is the release tag.
	Version = "0.1.0"

	// GitCommit is the short hash of the commit the binary was built from.
	GitCommit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String renders the one-line form the tools report.
func String() string {
	return fmt.Sprintf("phdfits %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
