package gosnip

// Application information.
const (
	// Name is the application name.
	Name = "gosnip"

	// Description is a short description of the application.
	Description = "HTML snippet renderer with source-keyed render caching"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/gosnip"

	// License is the software license.
	License = "MIT"
)

// Version and build information. These are set at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/gosnip.Version=1.0.0"
var (
	// Version is the semantic version of the application.
	Version = "0.1.0"

	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// GitBranch is the git branch name.
	GitBranch = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"

	// GoVersion is the Go version used to build.
	GoVersion = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// BuildSummary returns a one-line description of the build for the version
// command.
func BuildSummary() string {
	s := Name + " " + FullVersion()
	if BuildDate != "unknown" && BuildDate != "" {
		s += " (built " + BuildDate + ")"
	}
	return s
}
