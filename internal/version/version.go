// Package version holds the mftfcheck build information.
package version

import (
	"fmt"
	"runtime"
)

// Overridden at build time:
// go build -ldflags "-X mftfcheck/internal/version.Version=1.2.0 -X mftfcheck/internal/version.Commit=abc123"
var (
	// Version is the semantic version of mftfcheck
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version with the short commit when known.
func Info() string {
	if short := shortCommit(); short != "" {
		return Version + " (" + short + ")"
	}
	return Version
}

// Full returns the multi-line version block printed by `mftfcheck version`.
func Full() string {
	return fmt.Sprintf("mftfcheck version %s\nCommit: %s\nBuilt: %s\nGo: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if Commit == "unknown" || len(Commit) <= 7 {
		return ""
	}
	return Commit[:7]
}
