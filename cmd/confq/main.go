// Package main provides the entry point for the confq CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/confq/confq/cmd/confq/commands"
	"github.com/confq/confq/pkg/version"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "confq",
		Short: "confq - query JSON, YAML, and TOML configuration files",
		Long: `confq queries structured configuration files with yq expressions.

Commands:
  mcp     Start an MCP server exposing query tools over stdio
  query   Evaluate an expression against a file
  status  Show the resolved query engine binary`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a confq config file")

	rootCmd.AddCommand(commands.NewMCPCommand(&configPath))
	rootCmd.AddCommand(commands.NewQueryCommand(&configPath))
	rootCmd.AddCommand(commands.NewStatusCommand(&configPath))
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "confq %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
