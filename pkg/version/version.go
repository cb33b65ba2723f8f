// Package version carries build-time identity injected via ldflags.
package version

// Set at build time:
//
//	go build -ldflags "-X github.com/confq/confq/pkg/version.Version=v1.2.3 ..."
var (
	// Version is the semantic version of this build.
	Version = "dev"

	// Commit is the VCS revision this build was produced from.
	Commit = "unknown"

	// Date is the build timestamp in RFC 3339 form.
	Date = "unknown"
)
