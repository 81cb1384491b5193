package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String is the one-line build description printed by the version command.
func String() string {
	return fmt.Sprintf("scenario %s (git %s, built %s)", Version, GitSHA, BuildTime)
}
