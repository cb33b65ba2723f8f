// Package commands implements the confq CLI subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/confq/confq/internal/binary"
	"github.com/confq/confq/internal/config"
	"github.com/confq/confq/internal/platform"
	"github.com/confq/confq/internal/yq"
	"github.com/confq/confq/pkg/observability"
	"github.com/confq/confq/pkg/version"
)

// buildBackend wires config into a resolver-backed query backend. A nil
// metrics recorder leaves download accounting off.
func buildBackend(cfg *config.Config, logger *slog.Logger, metrics *observability.REDMetrics) (*yq.Backend, error) {
	desc, err := platform.Resolve()
	if err != nil {
		return nil, err
	}

	cacheRoot, err := cfg.ResolveCacheRoot()
	if err != nil {
		return nil, err
	}

	resolver, err := binary.NewResolver(binary.ResolverOptions{
		Descriptor:     desc,
		CacheRoot:      cacheRoot,
		BundledDir:     cfg.BundledDir,
		PinnedVersion:  cfg.PinnedVersion,
		BinaryOverride: cfg.BinaryPath,
		Offline:        cfg.Offline,
		AuthToken:      os.Getenv("GITHUB_TOKEN"),
		FetchMaxTries:  uint(cfg.FetchMaxTries),
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build binary resolver: %w", err)
	}

	return yq.NewBackend(resolver, logger), nil
}

// initObservability builds providers from OTEL_* environment variables, the
// conventional exporter configuration surface.
func initObservability(mode observability.AppMode, debug bool) (observability.Providers, error) {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version.Version
	cfg.Mode = mode
	cfg.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	cfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	cfg.LogJSON = mode == observability.ModeMCP

	if debug {
		cfg.LogLevel = slog.LevelDebug
		cfg.DebugTrace = true
	}

	return observability.Init(cfg)
}
