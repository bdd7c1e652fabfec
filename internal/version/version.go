package version

import (
	"fmt"
	"strings"
)

// These variables are populated at build time using ldflags.
// Example: go build -ldflags "-X 'github.com/achildrenmile/oeradio-mcp/internal/version.GitCommit=a1b2c3d' -X 'github.com/achildrenmile/oeradio-mcp/internal/version.BuildVersion=1.0.0'" ...
var (
	// ProjectName is the name of the project.
	ProjectName = "oeradio-mcp"

	// ProjectGitHubURL is the GitHub repository URL.
	ProjectGitHubURL = "https://github.com/achildrenmile/oeradio-mcp"

	// BuildVersion represents the semantic version of the build.
	// If not set via ldflags, it defaults to "unknown".
	BuildVersion = "unknown"

	// GitCommit represents the short Git commit hash.
	GitCommit = "unknown"
)

// ProjectVersion is the full project version string ("X.Y.Z+COMMIT" when
// build metadata is available, "unknown" otherwise).
var ProjectVersion = "unknown"

// UserAgent is the full User-Agent string used in outbound HTTP requests.
var UserAgent string

// init derives ProjectVersion and UserAgent from the injected build values.
func init() {
	if BuildVersion != "unknown" && GitCommit != "unknown" && len(GitCommit) >= 7 {
		ProjectVersion = fmt.Sprintf("%s+%s", strings.TrimPrefix(BuildVersion, "v"), GitCommit[:7])
	} else {
		ProjectVersion = "unknown"
	}
	UserAgent = fmt.Sprintf("%s/%s (+%s)", ProjectName, ProjectVersion, ProjectGitHubURL)
}
