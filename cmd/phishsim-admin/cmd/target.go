package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/domain/shared"
)

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Manage campaign targets",
}

var targetImportCmd = &cobra.Command{
	Use:   "import <campaign-id> <file.csv>",
	Short: "Import targets from a CSV file",
	Long: `Import targets from a CSV file with columns
email,first_name,last_name,company,position,phone. A header row is
optional. Rows with invalid or duplicate emails are skipped and
reported.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignID, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid campaign id: %w", err)
		}

		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("open csv file: %w", err)
		}
		defer f.Close()

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		svc := app.NewTargetService(d.targets, d.log)
		result, err := svc.ImportCSV(cmd.Context(), campaignID, f)
		if err != nil {
			return err
		}

		fmt.Printf("Imported %d targets, skipped %d\n", result.Imported, result.Skipped)
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e)
		}
		return nil
	},
}

var targetExportCmd = &cobra.Command{
	Use:   "export <campaign-id>",
	Short: "Export campaign targets as CSV to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignID, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid campaign id: %w", err)
		}

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		svc := app.NewTargetService(d.targets, d.log)
		return svc.ExportCSV(cmd.Context(), campaignID, os.Stdout)
	},
}

func init() {
	targetCmd.AddCommand(targetImportCmd)
	targetCmd.AddCommand(targetExportCmd)
}
