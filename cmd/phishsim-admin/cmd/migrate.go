package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phishsim/api/pkg/migrations"
)

var flagMigrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		runner := migrations.NewRunner(d.db.DB, flagMigrationsDir)
		applied, err := runner.Up(cmd.Context())
		if err != nil {
			return err
		}

		if applied == 0 {
			fmt.Println("No pending migrations.")
			return nil
		}
		fmt.Printf("Applied %d migrations\n", applied)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		runner := migrations.NewRunner(d.db.DB, flagMigrationsDir)
		version, err := runner.Down(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Rolled back migration %s\n", version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		runner := migrations.NewRunner(d.db.DB, flagMigrationsDir)
		if err := runner.EnsureMigrationTable(cmd.Context()); err != nil {
			return err
		}

		applied, err := runner.Applied(cmd.Context())
		if err != nil {
			return err
		}
		pending, err := runner.Pending(cmd.Context())
		if err != nil {
			return err
		}

		table := newTable("VERSION", "STATUS", "APPLIED AT")
		for _, rec := range applied {
			table.AddRow(rec.Version, "applied", rec.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		for _, version := range pending {
			table.AddRow(version, "pending", "-")
		}
		table.Flush()
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&flagMigrationsDir, "dir", "migrations",
		"Directory containing migration files")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}
