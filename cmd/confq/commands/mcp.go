package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/confq/confq/internal/config"
	"github.com/confq/confq/internal/mcp"
	"github.com/confq/confq/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(configPath *string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes configuration querying as tools that AI agents can
discover and invoke:
  - data_query:     evaluate a yq expression against a file, paginated
  - data_structure: summarize a file's keys and types
  - data_convert:   convert between JSON, YAML, and TOML
  - data_merge:     deep-merge two files, overlay values winning
  - data_set:       set or delete a value at a key path, in place
  - data_diff:      structural diff of two files
  - binary_status:  report the resolved query engine binary`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runMCP(cobraCmd.Context(), *configPath, debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

func runMCP(ctx context.Context, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	providers, err := initObservability(observability.ModeMCP, debug)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return err
	}

	backend, err := buildBackend(cfg, providers.Logger, red)
	if err != nil {
		return err
	}

	enabled, err := cfg.EnabledFormats()
	if err != nil {
		return err
	}

	if cfg.DiagnosticsAddr != "" {
		diag, diagErr := observability.NewDiagnosticsServer(cfg.DiagnosticsAddr,
			func(checkCtx context.Context) error {
				_, resolveErr := backend.Resolved(checkCtx)

				return resolveErr
			})
		if diagErr != nil {
			return diagErr
		}

		defer func() {
			closeErr := diag.Close()
			if closeErr != nil {
				providers.Logger.Warn("diagnostics close failed", "error", closeErr)
			}
		}()

		providers.Logger.Info("diagnostics listening", "addr", diag.Addr())
	}

	srv := mcp.NewServer(mcp.ServerDeps{
		Backend:      backend,
		Formats:      enabled,
		PageSize:     cfg.PageSize,
		QueryTimeout: cfg.QueryTimeout,
		Logger:       providers.Logger,
		Metrics:      red,
		Tracer:       providers.Tracer,
	})

	return srv.Run(ctx)
}
