package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soul-hq/gateway/pkg/cli"
	"soul-hq/gateway/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "soul",
	Short: "Soul gateway data-plane node",
	Long: `Soul is the data-plane node of the soul API gateway.

It syncs gateway configuration from the admin control plane over websocket,
a local snapshot file or a git repository, and dispatches every request
through the enabled plugins:
  - waf rejects or allows requests per matching rule
  - rewrite replaces the upstream request path

Requests that no plugin terminates are proxied to the configured upstream.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the --config file with SOUL_* environment overrides and
// installs it as the process-wide configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}
