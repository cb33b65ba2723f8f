package binary

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/confq/confq/internal/platform"
)

// lookupName is the executable name searched on PATH.
const lookupName = "yq"

// Locator searches candidate locations for a usable yq binary.
// Candidates that exist but fail identity or version checks are skipped,
// never fatal; only total exhaustion yields a nil result.
type Locator struct {
	descriptor platform.Descriptor
	cacheRoot  string
	bundledDir string
	pinned     string
	checksums  Checksums
	prober     Prober
	logger     *slog.Logger
}

// LocatorOptions configures a Locator.
type LocatorOptions struct {
	// Descriptor is the host platform descriptor.
	Descriptor platform.Descriptor

	// CacheRoot is the download cache directory.
	CacheRoot string

	// BundledDir holds a binary shipped with the program. Empty disables
	// the bundled candidate.
	BundledDir string

	// PinnedVersion is the release tag used for the cache candidate path.
	PinnedVersion string

	// Checksums validates cached downloads.
	Checksums Checksums

	// Prober overrides candidate probing; nil uses ExecProber.
	Prober Prober

	// Logger receives candidate-skip diagnostics; nil discards them.
	Logger *slog.Logger
}

// NewLocator builds a Locator.
func NewLocator(opts LocatorOptions) *Locator {
	prober := opts.Prober
	if prober == nil {
		prober = ExecProber{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Locator{
		descriptor: opts.Descriptor,
		cacheRoot:  opts.CacheRoot,
		bundledDir: opts.BundledDir,
		pinned:     opts.PinnedVersion,
		checksums:  opts.Checksums,
		prober:     prober,
		logger:     logger,
	}
}

// CachePath returns the install path for the pinned version in the cache,
// laid out as {cacheRoot}/{platformKey}/{version}/{filename}.
func (l *Locator) CachePath() string {
	return filepath.Join(l.cacheRoot, l.descriptor.Key(), l.pinned, l.descriptor.Filename)
}

// Locate tries candidates in strict priority order: system PATH, download
// cache, bundled copy. The first candidate meeting minVersion wins.
// A (nil, nil) return means every candidate was exhausted.
func (l *Locator) Locate(ctx context.Context, minVersion Version) (*Resolved, error) {
	if r := l.locateSystem(ctx, minVersion); r != nil {
		return r, nil
	}

	if r := l.locateCache(ctx, minVersion); r != nil {
		return r, nil
	}

	if r := l.locateBundled(ctx, minVersion); r != nil {
		return r, nil
	}

	return nil, nil
}

// locateSystem checks for yq on the search PATH. Identity is verified from
// the binary's own --version output, not its filename, to avoid colliding
// with the unrelated Python yq wrapper.
func (l *Locator) locateSystem(ctx context.Context, minVersion Version) *Resolved {
	path, err := exec.LookPath(lookupName)
	if err != nil {
		return nil
	}

	return l.check(ctx, path, minVersion, SourceSystem)
}

// locateCache checks the versioned download cache. The sidecar checksum
// marker is compared against the pinned record; when the marker is absent
// the binary is re-hashed and the marker rewritten on a match.
func (l *Locator) locateCache(ctx context.Context, minVersion Version) *Resolved {
	path := l.CachePath()

	_, err := os.Stat(path)
	if err != nil {
		return nil
	}

	if !l.verifyCached(path) {
		return nil
	}

	return l.check(ctx, path, minVersion, SourceCache)
}

// locateBundled checks for a copy shipped next to the invoking program.
func (l *Locator) locateBundled(ctx context.Context, minVersion Version) *Resolved {
	if l.bundledDir == "" {
		return nil
	}

	path := filepath.Join(l.bundledDir, l.descriptor.Filename)

	_, err := os.Stat(path)
	if err != nil {
		return nil
	}

	return l.check(ctx, path, minVersion, SourceBundled)
}

// verifyCached revalidates a cached download against its pinned checksum.
func (l *Locator) verifyCached(path string) bool {
	want, ok := l.checksums.Lookup(l.pinned, l.descriptor.AssetName)
	if !ok {
		// Nothing pinned for this version; identity and version checks
		// still apply downstream.
		return true
	}

	if readMarker(path) == want {
		return true
	}

	sum, err := FileSHA256(path)
	if err != nil || sum != want {
		l.logger.Warn("cached binary failed checksum revalidation, skipping",
			"path", path, "error", err)

		return false
	}

	if err := writeMarker(path, sum); err != nil {
		l.logger.Debug("could not rewrite checksum marker", "path", path, "error", err)
	}

	return true
}

// check probes one candidate and applies identity and minimum-version
// gates. Failures skip the candidate rather than aborting the search.
func (l *Locator) check(ctx context.Context, path string, minVersion Version, source Source) *Resolved {
	out, err := l.prober.Probe(ctx, path)
	if err != nil {
		l.logger.Debug("candidate probe failed, skipping",
			"path", path, "source", source, "error", err)

		return nil
	}

	v, ok := identify(out)
	if !ok {
		l.logger.Debug("candidate is not mikefarah/yq, skipping",
			"path", path, "source", source)

		return nil
	}

	if !v.AtLeast(minVersion) {
		l.logger.Debug("candidate version below minimum, skipping",
			"path", path, "source", source, "version", v.String(), "minimum", minVersion.String())

		return nil
	}

	return &Resolved{Path: path, Version: v, Source: source}
}
