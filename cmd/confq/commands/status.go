package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/confq/confq/internal/config"
	"github.com/confq/confq/internal/platform"
	"github.com/confq/confq/pkg/observability"
)

// NewStatusCommand creates the binary status command.
func NewStatusCommand(configPath *string) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the resolved query engine binary and host platform",
		Long: `Resolve the yq binary the same way queries do (override, system PATH,
cache, bundle, download) and report where it came from. A first run without
a local binary triggers a download.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			err := runStatus(cobraCmd, *configPath, debug)
			if err != nil {
				color.New(color.FgRed).Fprintf(os.Stderr, "status failed: %v\n", err)
			}

			return err
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

func runStatus(cobraCmd *cobra.Command, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	providers, err := initObservability(observability.ModeCLI, debug)
	if err != nil {
		return err
	}

	defer func() {
		_ = providers.Shutdown(cobraCmd.Context())
	}()

	backend, err := buildBackend(cfg, providers.Logger, nil)
	if err != nil {
		return err
	}

	resolved, err := backend.Resolved(cobraCmd.Context())
	if err != nil {
		return err
	}

	enabled, err := cfg.EnabledFormats()
	if err != nil {
		return err
	}

	host := platform.DescribeHost(cobraCmd.Context())

	tw := table.NewWriter()
	tw.SetOutputMirror(cobraCmd.OutOrStdout())
	tw.SetStyle(table.StyleLight)

	tw.AppendRow(table.Row{"Binary", resolved.Path})
	tw.AppendRow(table.Row{"Version", resolved.Version.String()})
	tw.AppendRow(table.Row{"Source", string(resolved.Source)})
	tw.AppendRow(table.Row{"Platform", fmt.Sprintf("%s/%s", host.OS, host.Arch)})

	if host.Distro != "" {
		tw.AppendRow(table.Row{"Distro", fmt.Sprintf("%s %s", host.Distro, host.DistroVersion)})
	}

	tw.AppendRow(table.Row{"Formats", enabled.String()})

	if cfg.Offline {
		tw.AppendRow(table.Row{"Offline", "yes"})
	}

	tw.Render()

	return nil
}
