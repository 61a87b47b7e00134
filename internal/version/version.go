// Package version holds build metadata injected at link time via
// -ldflags "-X lookout/internal/version.Version=... -X lookout/internal/version.GitCommit=...".
package version

var (
	// Version is the semantic version of the build
	Version = "dev"
	// GitCommit is the short commit hash of the build
	GitCommit = "unknown"
)
