// Command regverify serves registration verification over HTTP, runs the
// schema migrations, and performs one-shot verifications from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "regverify"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Regulatory registration verification service",
		Long: `regverify confirms that a builder, project or agent registration number
is genuine and active with the regulator of its jurisdiction.

Numbers are format-checked, answered from the registration store when a fresh
outcome exists, confirmed with the partner registry otherwise, and queued for
manual review when no automated answer is possible.

Configuration is read from an optional file (--config) and REGVERIFY_*
environment variables, e.g. REGVERIFY_POSTGRES_DSN.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (yaml, json or toml)")

	cmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		verifyCmd(&configPath),
	)
	return cmd
}
