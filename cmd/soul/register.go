package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soul-hq/gateway/pkg/cli"
	"soul-hq/gateway/pkg/register"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register routes with the admin",
	Long: `Register the routes of the register section with the admin once and exit.

"soul run" does the same in the background when register.enabled is set.`,
	RunE: registerRoutes,
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

func registerRoutes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rc := register.FromConfig(&cfg.Register)
	if err := rc.Validate(); err != nil {
		return cli.NewConfigError("register", err)
	}

	if err := register.Register(contextOrBackground(cmd.Context()), rc, endpoints(cfg.Register.Paths), nil); err != nil {
		return cli.NewCommandError("register", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Registered %s with %s\n", cfg.Register.AppName, cfg.Register.AdminURL)
	return nil
}
