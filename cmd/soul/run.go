package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"soul-hq/gateway/pkg/cli"
	"soul-hq/gateway/pkg/config"
	"soul-hq/gateway/pkg/telemetry"
)

var runFlags struct {
	listenAddress string
	upstream      string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway node",
	Long: `Start the gateway node with the specified configuration.

The node restores the last stored snapshot when the store is enabled, connects
to the control plane, and serves requests through the plugin chain. Readiness
turns green once the first full snapshot has been applied.

Examples:
  # Start with default config
  soul run

  # Start with custom config
  soul run --config /etc/soul/config.yaml

  # Override listen address and upstream
  soul run --listen 0.0.0.0:9195 --upstream http://127.0.0.1:8189

  # Validate config and wiring without starting
  soul run --dry-run`,
	RunE: runNode,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.upstream, "upstream", "", "override upstream URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "build every component without serving")
}

func runNode(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunOverrides(cfg)

	tel, err := telemetry.New(&cfg.Telemetry, Version, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry", err)
	}
	defer shutdownTelemetry(tel)

	ctx, stop := cli.SetupSignalHandler(contextOrBackground(cmd.Context()))
	defer stop()

	n, err := buildNode(ctx, cfg, tel)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer n.close()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Soul Gateway %s\n", Version)
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Gateway.ListenAddress)
	fmt.Fprintf(out, "✓ Sync mode: %s\n", cfg.Sync.Mode)
	fmt.Fprintf(out, "✓ Plugins: %d\n", len(n.plugins))
	if n.store != nil {
		fmt.Fprintf(out, "✓ Store: %s\n", n.store.Backend())
	}
	if cfg.Gateway.Upstream != "" {
		fmt.Fprintf(out, "✓ Upstream: %s\n", cfg.Gateway.Upstream)
	}

	if runFlags.dryRun {
		fmt.Fprintln(out, "Dry run complete; configuration is valid.")
		return nil
	}

	if err := n.run(ctx); err != nil && ctx.Err() == nil {
		return cli.NewCommandError("run", err)
	}
	tel.Logger.Info("gateway stopped")
	return nil
}

func applyRunOverrides(cfg *config.Config) {
	if runFlags.listenAddress != "" {
		cfg.Gateway.ListenAddress = runFlags.listenAddress
	}
	if runFlags.upstream != "" {
		cfg.Gateway.Upstream = runFlags.upstream
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
}

// contextOrBackground is cmd.Context for commands executed without one.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
