// Package config loads confq settings from file, environment, and
// defaults, in the precedence viper establishes: explicit file, then
// CONFQ_* environment variables, then defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/confq/confq/internal/formats"
)

// Defaults applied when file and environment are silent.
const (
	// DefaultPageSize is the pagination budget in bytes.
	DefaultPageSize = 10000

	// DefaultQueryTimeout bounds one yq invocation.
	DefaultQueryTimeout = 30 * time.Second

	// DefaultFetchMaxTries bounds download retries.
	DefaultFetchMaxTries = 3
)

// Validation errors.
var (
	ErrInvalidPageSize   = errors.New("page_size must be positive")
	ErrInvalidTimeout    = errors.New("query_timeout must be positive")
	ErrInvalidFetchTries = errors.New("fetch_max_tries must be positive")
)

// Config is the full confq configuration.
type Config struct {
	// CacheRoot is where downloaded binaries live. Empty resolves to the
	// user cache directory at startup.
	CacheRoot string `mapstructure:"cache_root"`

	// BundledDir optionally holds a yq binary shipped with a deployment.
	BundledDir string `mapstructure:"bundled_dir"`

	// BinaryPath pins an explicit yq executable, bypassing search.
	BinaryPath string `mapstructure:"binary_path"`

	// PinnedVersion overrides the built-in yq release pin.
	PinnedVersion string `mapstructure:"pinned_version"`

	// Offline disables downloads; resolution fails fast when nothing
	// local suffices.
	Offline bool `mapstructure:"offline"`

	// Formats lists enabled formats; empty uses the defaults
	// (json, yaml, toml).
	Formats []string `mapstructure:"formats"`

	// PageSize is the pagination budget in bytes.
	PageSize int `mapstructure:"page_size"`

	// QueryTimeout bounds one yq invocation.
	QueryTimeout time.Duration `mapstructure:"query_timeout"`

	// FetchMaxTries bounds download retries per fetch.
	FetchMaxTries int `mapstructure:"fetch_max_tries"`

	// DiagnosticsAddr serves /healthz, /readyz, and /metrics when
	// non-empty (e.g. "127.0.0.1:9090").
	DiagnosticsAddr string `mapstructure:"diagnostics_addr"`
}

// Validate rejects impossible settings. Format names are parsed here so a
// typo fails at startup, not mid-query.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return ErrInvalidPageSize
	}

	if c.QueryTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.FetchMaxTries <= 0 {
		return ErrInvalidFetchTries
	}

	_, err := formats.NewEnabled(c.Formats)
	if err != nil {
		return err
	}

	return nil
}

// EnabledFormats returns the validated enabled-format set.
func (c *Config) EnabledFormats() (formats.Enabled, error) {
	return formats.NewEnabled(c.Formats)
}

// ResolveCacheRoot returns the configured cache root, defaulting to
// {user cache dir}/confq/bin.
func (c *Config) ResolveCacheRoot() (string, error) {
	if c.CacheRoot != "" {
		return c.CacheRoot, nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}

	return filepath.Join(base, "confq", "bin"), nil
}
