package version

import "fmt"

// Version is the release of the facets tool, set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/facets/internal/version.Version=v1.2.0".
var Version = "dev"

// Build metadata, set the same way as Version.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version line printed by --version.
func String() string {
	return fmt.Sprintf("facets %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
