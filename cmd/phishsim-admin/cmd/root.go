// Package cmd implements the phishsim-admin CLI commands.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version string

	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "phishsim-admin",
	Short: "Phishing simulation platform administration CLI",
	Long: `phishsim-admin manages the phishing simulation platform directly
against its database: campaign lifecycle, target imports, funnel
reports and schema migrations.

Connection settings come from the same environment variables the
server uses (DB_HOST, DB_PORT, DB_USER, ...).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "phishsim-admin %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(campaignCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(funnelCmd)
	rootCmd.AddCommand(migrateCmd)
}
