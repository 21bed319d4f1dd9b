// Package version reports build information and the generator engine version.
package version

import (
	"fmt"
	"runtime"
)

// Build information. These variables are set at build time via ldflags.
var (
	// CommitHash is the git commit hash when the binary was built
	CommitHash = "dev"

	// BuildTime is when the binary was built
	BuildTime = "unknown"

	// Version is the release tag (if tagged)
	Version = "dev"
)

// Engine is the generator contract version. Generators declare a semver
// constraint against it; it changes independently of release tags.
const Engine = "1.2.0"

// Info contains version and build information
type Info struct {
	CommitHash string `json:"commit_hash" yaml:"commit_hash"`
	BuildTime  string `json:"build_time" yaml:"build_time"`
	Version    string `json:"version" yaml:"version"`
	Engine     string `json:"engine" yaml:"engine"`
	GoVersion  string `json:"go_version" yaml:"go_version"`
	Platform   string `json:"platform" yaml:"platform"`
}

// Get returns the current version information
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		Engine:     Engine,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string
func (i Info) String() string {
	if i.Version != "dev" {
		return fmt.Sprintf("loom %s (engine %s, commit %s)", i.Version, i.Engine, i.Short())
	}
	return fmt.Sprintf("loom dev (engine %s, commit %s, built %s)", i.Engine, i.CommitHash, i.BuildTime)
}

// Short returns a short version string with just the commit hash
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
