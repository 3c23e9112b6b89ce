package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/domain/shared"
)

var funnelCmd = &cobra.Command{
	Use:   "funnel <campaign-id>",
	Short: "Show the conversion funnel for a campaign",
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

		svc := app.NewTrackingService(d.campaigns, d.targets, d.events, d.credentials, d.log)
		funnel, err := svc.ConversionFunnel(cmd.Context(), campaignID)
		if err != nil {
			return err
		}

		table := newTable("STEP", "COUNT", "RATE")
		for _, step := range funnel.Steps {
			rate := "-"
			if step.Rate != nil {
				rate = fmt.Sprintf("%.1f%%", *step.Rate)
			}
			table.AddRow(step.Step, fmt.Sprintf("%d", step.Count), rate)
		}
		table.Flush()
		return nil
	},
}
