package version

import "fmt"

// these values are set by the build process via ldflags
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
