// Package binary acquires a trusted, version-compatible copy of the yq
// executable. It searches candidate locations in priority order, downloads
// a checksum-pinned release when nothing local suffices, and memoizes the
// result per process behind a single-flight guard.
package binary

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Source records where a resolved binary came from.
type Source string

const (
	// SourceSystem is a binary found on the search PATH.
	SourceSystem Source = "system"

	// SourceCache is a previously downloaded copy in the cache directory.
	SourceCache Source = "cache"

	// SourceBundled is a copy shipped alongside the invoking program.
	SourceBundled Source = "bundled"

	// SourceDownloaded is a copy fetched and verified during this process.
	SourceDownloaded Source = "downloaded"

	// SourceOverride is an explicitly configured binary path.
	SourceOverride Source = "override"
)

// identityMarker distinguishes the Go yq from the unrelated Python wrapper
// of the same name. It must appear in --version output.
const identityMarker = "mikefarah/yq"

// probeTimeout bounds a single --version invocation.
const probeTimeout = 5 * time.Second

// Resolved describes a usable binary. It is created at most once per
// process and never mutated afterwards.
type Resolved struct {
	// Path is the absolute path to the executable.
	Path string

	// Version is the binary's self-reported version.
	Version Version

	// Source records which candidate location produced it.
	Source Source
}

// Prober reports the self-identity output of a candidate binary.
// Injectable so locator tests run without real executables.
type Prober interface {
	Probe(ctx context.Context, path string) (string, error)
}

// ExecProber probes candidates by running them with --version.
type ExecProber struct{}

// Probe runs path --version and returns its combined output.
func (ExecProber) Probe(ctx context.Context, path string) (string, error) {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, path, "--version").CombinedOutput()
	if err != nil {
		return "", err
	}

	return string(out), nil
}

// identify parses a probe output into a version, rejecting binaries whose
// identity string does not match the expected tool.
func identify(probeOutput string) (Version, bool) {
	if !strings.Contains(probeOutput, identityMarker) {
		return Version{}, false
	}

	v, err := ParseVersion(probeOutput)
	if err != nil {
		return Version{}, false
	}

	return v, true
}
