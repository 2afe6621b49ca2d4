// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/patentsearch/internal/version.Version=v1.4.0
package version

//nolint:gochecknoglobals // set at link time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders "version (commit, date)" for CLI --version and startup logs.
func String() string {
	return Version + " (" + Commit + ", " + Date + ")"
}
