package binary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/confq/confq/internal/platform"
	"github.com/confq/confq/pkg/observability"
)

const (
	// downloadTimeout bounds a single download attempt. Sized for a ~14MB
	// binary over a slow connection.
	downloadTimeout = 5 * time.Minute

	// defaultMaxTries bounds download retries per fetch.
	defaultMaxTries = 3

	// checksumRetries is how many full fetch attempts a checksum mismatch
	// is allowed before surfacing ErrChecksumMismatch.
	checksumRetries = 1

	// userAgent identifies confq to the release CDN.
	userAgent = "confq/1.0"

	// executableMode is the install mode for non-Windows binaries.
	executableMode = 0o755
)

// HTTPDoer is the minimal HTTP client surface the fetcher needs.
// Injectable so tests count and fake downloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads, verifies, and atomically installs pinned yq releases.
type Fetcher struct {
	client    HTTPDoer
	checksums Checksums
	authToken string
	maxTries  uint
	metrics   *observability.REDMetrics
	logger    *slog.Logger
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// Client performs HTTP requests; nil uses a default client with the
	// download timeout applied.
	Client HTTPDoer

	// Checksums supplies pinned artifact hashes.
	Checksums Checksums

	// AuthToken is an optional bearer token for the release host
	// (enterprise mirrors, private forks).
	AuthToken string

	// MaxTries bounds download retries; zero uses the default.
	MaxTries uint

	// Metrics optionally counts downloaded bytes; nil disables it.
	Metrics *observability.REDMetrics

	// Logger receives download progress; nil discards it.
	Logger *slog.Logger
}

// NewFetcher builds a Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: downloadTimeout}
	}

	maxTries := opts.MaxTries
	if maxTries == 0 {
		maxTries = defaultMaxTries
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Fetcher{
		client:    client,
		checksums: opts.Checksums,
		authToken: opts.AuthToken,
		maxTries:  maxTries,
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Fetch downloads the pinned release for the descriptor, verifies its
// SHA-256 against the pinned record, and installs it at destPath via an
// atomic temp-then-rename. One re-fetch is permitted after a checksum
// mismatch; a second mismatch surfaces the error.
func (f *Fetcher) Fetch(
	ctx context.Context, desc platform.Descriptor, version, destPath string,
) (*Resolved, error) {
	want, ok := f.checksums.Lookup(version, desc.AssetName)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrNoChecksumRecord, version, desc.AssetName)
	}

	parsed, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("pinned version: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= checksumRetries; attempt++ {
		lastErr = f.fetchOnce(ctx, desc, version, destPath, want)
		if lastErr == nil {
			return &Resolved{Path: destPath, Version: parsed, Source: SourceDownloaded}, nil
		}

		f.logger.Warn("download attempt failed", "attempt", attempt+1, "error", lastErr)
	}

	return nil, lastErr
}

// fetchOnce performs one download-verify-install cycle.
func (f *Fetcher) fetchOnce(
	ctx context.Context, desc platform.Descriptor, version, destPath, wantSum string,
) error {
	err := os.MkdirAll(filepath.Dir(destPath), 0o755)
	if err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	// Temp file lives in the destination directory so the final rename
	// stays on one filesystem and is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), desc.Filename+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	url := desc.DownloadURL(version)
	f.logger.Info("downloading yq", "url", url, "version", version)

	err = f.downloadWithRetry(ctx, url, tmp)

	closeErr := tmp.Close()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}

	if closeErr != nil {
		return fmt.Errorf("flush temp file: %w", closeErr)
	}

	sum, err := FileSHA256(tmpPath)
	if err != nil {
		return err
	}

	if sum != wantSum {
		return fmt.Errorf("%w: %s: got %s, want %s", ErrChecksumMismatch, desc.AssetName, sum, wantSum)
	}

	if runtime.GOOS != "windows" {
		err = os.Chmod(tmpPath, executableMode)
		if err != nil {
			return fmt.Errorf("set executable bit: %w", err)
		}
	}

	// Last writer wins on rename races; every writer verified its own
	// checksum first, so either outcome is a valid binary.
	err = os.Rename(tmpPath, destPath)
	if err != nil {
		return fmt.Errorf("install binary: %w", err)
	}

	err = writeMarker(destPath, sum)
	if err != nil {
		f.logger.Debug("could not write checksum marker", "path", destPath, "error", err)
	}

	f.logger.Info("yq installed", "path", destPath, "version", version, "sha256", sum)

	return nil
}

// downloadWithRetry streams the artifact into w, retrying transient
// failures with exponential backoff up to the configured bound.
func (f *Fetcher) downloadWithRetry(ctx context.Context, url string, w io.WriteSeeker) error {
	op := func() (struct{}, error) {
		// Rewind and truncate any partial body from a failed attempt.
		_, seekErr := w.Seek(0, io.SeekStart)
		if seekErr != nil {
			return struct{}{}, backoff.Permanent(seekErr)
		}

		if t, ok := w.(interface{ Truncate(int64) error }); ok {
			_ = t.Truncate(0)
		}

		return struct{}{}, f.download(ctx, url, w)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(f.maxTries),
	)

	return err
}

// download performs a single GET of url into w.
func (f *Fetcher) download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("User-Agent", userAgent)

	if f.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+f.authToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)

		// Client errors won't heal on retry; server errors might.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}

		return err
	}

	copied, err := io.Copy(w, resp.Body)

	// Bytes that hit the wire count even when the copy dies partway.
	if f.metrics != nil && copied > 0 {
		f.metrics.RecordFetchBytes(ctx, copied)
	}

	if err != nil {
		return err
	}

	return nil
}
