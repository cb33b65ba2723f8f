package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/confq/confq/internal/config"
	"github.com/confq/confq/internal/formats"
	"github.com/confq/confq/internal/yq"
	"github.com/confq/confq/pkg/observability"
)

const queryArgCount = 2

// NewQueryCommand creates the one-shot query command.
func NewQueryCommand(configPath *string) *cobra.Command {
	var (
		inputFormat  string
		outputFormat string
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "query <file> <expression>",
		Short: "Evaluate a yq expression against a configuration file",
		Example: `  confq query app.yaml '.server.port'
  confq query settings.toml '.features | keys' -o json`,
		Args:          cobra.ExactArgs(queryArgCount),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			err := runQuery(cobraCmd, args[0], args[1], inputFormat, outputFormat, *configPath, debug)
			if err != nil {
				color.New(color.FgRed).Fprintf(os.Stderr, "query failed: %v\n", err)
			}

			return err
		},
	}

	cmd.Flags().StringVarP(&inputFormat, "format", "p", "", "input format (json, yaml, toml); detected from extension when empty")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "output format; defaults to the input format")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")

	return cmd
}

func runQuery(cobraCmd *cobra.Command, file, expression, inputFormat, outputFormat, configPath string, debug bool) error {
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

	enabled, err := cfg.EnabledFormats()
	if err != nil {
		return err
	}

	inFormat, err := detectFormat(file, inputFormat, enabled)
	if err != nil {
		return err
	}

	outFormat := inFormat

	if outputFormat != "" {
		outFormat, err = formats.Parse(outputFormat)
		if err != nil {
			return err
		}

		err = enabled.Require(outFormat)
		if err != nil {
			return err
		}
	}

	backend, err := buildBackend(cfg, providers.Logger, nil)
	if err != nil {
		return err
	}

	result, err := backend.Execute(cobraCmd.Context(), yq.Request{
		FilePath:     file,
		Expression:   expression,
		InputFormat:  inFormat,
		OutputFormat: outFormat,
		Timeout:      cfg.QueryTimeout,
	})
	if err != nil {
		return err
	}

	_, err = cobraCmd.OutOrStdout().Write(result.Stdout)
	if err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}

// detectFormat parses an explicit format name or detects one from the file
// extension, then gates it on the enabled set.
func detectFormat(file, explicit string, enabled formats.Enabled) (formats.Type, error) {
	var (
		t   formats.Type
		err error
	)

	if explicit != "" {
		t, err = formats.Parse(explicit)
	} else {
		t, err = formats.DetectFile(file)
	}

	if err != nil {
		return "", err
	}

	err = enabled.Require(t)
	if err != nil {
		return "", err
	}

	return t, nil
}
