// Package version carries build information injected via ldflags.
package version

var (
	// Version is the semantic version or git tag.
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = "unknown"
)
