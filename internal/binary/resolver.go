package binary

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/confq/confq/internal/platform"
	"github.com/confq/confq/pkg/observability"
)

// resolveKey coalesces all concurrent resolutions; there is only one
// binary per process.
const resolveKey = "resolve"

// Resolver chains Locate and Fetch behind a per-process memo. Concurrent
// callers racing ahead of the first resolution coalesce into one in-flight
// attempt, so a cold cache triggers exactly one download.
type Resolver struct {
	locator  *Locator
	fetcher  *Fetcher
	desc     platform.Descriptor
	pinned   string
	minimum  Version
	override string
	offline  bool
	logger   *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	cached *Resolved
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Descriptor is the host platform descriptor.
	Descriptor platform.Descriptor

	// CacheRoot is the download cache directory.
	CacheRoot string

	// BundledDir optionally holds a shipped binary.
	BundledDir string

	// PinnedVersion is the release tag downloaded when nothing local
	// suffices. It doubles as the minimum acceptable version. Empty uses
	// DefaultPinnedVersion.
	PinnedVersion string

	// BinaryOverride pins an explicit executable path, bypassing search.
	// A missing override file is an error, not a fallthrough.
	BinaryOverride string

	// Offline skips the fetcher entirely; exhaustion fails fast with
	// ErrBinaryMissing.
	Offline bool

	// Checksums supplies pinned artifact hashes; zero value uses the
	// bundled table.
	Checksums Checksums

	// Client overrides the fetcher's HTTP client.
	Client HTTPDoer

	// AuthToken is an optional bearer token for the release host.
	AuthToken string

	// FetchMaxTries bounds download retries; zero uses the default.
	FetchMaxTries uint

	// Metrics optionally counts downloaded bytes; nil disables it.
	Metrics *observability.REDMetrics

	// Prober overrides candidate probing.
	Prober Prober

	// Logger receives resolution diagnostics; nil discards them.
	Logger *slog.Logger
}

// NewResolver builds a Resolver. The pinned version must parse; a broken
// pin is a construction-time error, not a per-call one.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	pinned := opts.PinnedVersion
	if pinned == "" {
		pinned = DefaultPinnedVersion
	}

	minimum, err := ParseVersion(pinned)
	if err != nil {
		return nil, fmt.Errorf("pinned version %q: %w", pinned, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	locator := NewLocator(LocatorOptions{
		Descriptor:    opts.Descriptor,
		CacheRoot:     opts.CacheRoot,
		BundledDir:    opts.BundledDir,
		PinnedVersion: pinned,
		Checksums:     opts.Checksums,
		Prober:        opts.Prober,
		Logger:        logger,
	})

	fetcher := NewFetcher(FetcherOptions{
		Client:    opts.Client,
		Checksums: opts.Checksums,
		AuthToken: opts.AuthToken,
		MaxTries:  opts.FetchMaxTries,
		Metrics:   opts.Metrics,
		Logger:    logger,
	})

	return &Resolver{
		locator:  locator,
		fetcher:  fetcher,
		desc:     opts.Descriptor,
		pinned:   pinned,
		minimum:  minimum,
		override: opts.BinaryOverride,
		offline:  opts.Offline,
		logger:   logger,
	}, nil
}

// Resolve returns the process-wide binary, resolving it on first use.
// The result is memoized; later calls return it without I/O.
func (r *Resolver) Resolve(ctx context.Context) (*Resolved, error) {
	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()

	if cached != nil {
		return cached, nil
	}

	v, err, _ := r.group.Do(resolveKey, func() (any, error) {
		// A caller that lost the race may arrive after the winner stored
		// the result and left the group.
		r.mu.RLock()
		done := r.cached
		r.mu.RUnlock()

		if done != nil {
			return done, nil
		}

		resolved, resolveErr := r.resolve(ctx)
		if resolveErr != nil {
			return nil, resolveErr
		}

		r.mu.Lock()
		r.cached = resolved
		r.mu.Unlock()

		return resolved, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Resolved), nil
}

// resolve performs one uncached resolution.
func (r *Resolver) resolve(ctx context.Context) (*Resolved, error) {
	if r.override != "" {
		return r.resolveOverride(ctx)
	}

	resolved, err := r.locator.Locate(ctx, r.minimum)
	if err != nil {
		return nil, err
	}

	if resolved != nil {
		r.logger.Info("yq resolved",
			"path", resolved.Path, "version", resolved.Version.String(), "source", resolved.Source)

		return resolved, nil
	}

	if r.offline {
		return nil, fmt.Errorf("%w: offline mode, download skipped", ErrBinaryMissing)
	}

	resolved, err = r.fetcher.Fetch(ctx, r.desc, r.pinned, r.locator.CachePath())
	if err != nil {
		return nil, err
	}

	r.logger.Info("yq resolved",
		"path", resolved.Path, "version", resolved.Version.String(), "source", resolved.Source)

	return resolved, nil
}

// resolveOverride validates an explicitly configured binary path.
// The override is trusted for identity but still version-checked.
func (r *Resolver) resolveOverride(ctx context.Context) (*Resolved, error) {
	_, err := os.Stat(r.override)
	if err != nil {
		return nil, fmt.Errorf("%w: configured path %s: %w", ErrBinaryMissing, r.override, err)
	}

	out, err := r.locator.prober.Probe(ctx, r.override)
	if err != nil {
		return nil, fmt.Errorf("%w: probing %s: %w", ErrBinaryMissing, r.override, err)
	}

	v, ok := identify(out)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not mikefarah/yq", ErrBinaryMissing, r.override)
	}

	if !v.AtLeast(r.minimum) {
		return nil, fmt.Errorf("%w: %s is %s, need >= %s",
			ErrBinaryMissing, r.override, v.String(), r.minimum.String())
	}

	return &Resolved{Path: r.override, Version: v, Source: SourceOverride}, nil
}
