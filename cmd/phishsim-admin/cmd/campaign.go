package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/internal/infra/jobs"
	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

var flagCampaignStatus string

var campaignCmd = &cobra.Command{
	Use:   "campaign",
	Short: "Manage campaigns",
}

var campaignListCmd = &cobra.Command{
	Use:   "list",
	Short: "List campaigns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		filter := campaign.Filter{Status: campaign.Status(flagCampaignStatus)}
		result, err := d.campaigns.List(cmd.Context(), filter, pagination.New(1, 100))
		if err != nil {
			return err
		}

		if result.Total == 0 {
			fmt.Println("No campaigns found.")
			return nil
		}

		table := newTable("ID", "NAME", "TYPE", "STATUS", "STARTED", "CREATED")
		for _, c := range result.Data {
			table.AddRow(
				c.ID.String(),
				truncate(c.Name, 40),
				string(c.Type),
				string(c.Status),
				shortTime(c.StartedAt),
				shortTime(&c.CreatedAt),
			)
		}
		table.Flush()
		fmt.Printf("\n%d campaigns\n", result.Total)
		return nil
	},
}

var campaignStartCmd = &cobra.Command{
	Use:   "start <campaign-id>",
	Short: "Start a campaign and dispatch delivery",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid campaign id: %w", err)
		}

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		// The job client dispatches delivery to the running worker
		// pool, same as a start through the API.
		jobClient := jobs.NewClient(jobs.ClientConfig{
			RedisAddr:     d.cfg.Redis.Addr(),
			RedisPassword: d.cfg.Redis.Password,
			RedisDB:       d.cfg.Redis.DB,
		}, d.log)
		defer jobClient.Close()

		svc := app.NewCampaignService(d.campaigns, d.targets, jobClient, d.log)
		c, err := svc.Start(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("Campaign %q started (status: %s)\n", c.Name, c.Status)
		return nil
	},
}

var campaignCompleteCmd = &cobra.Command{
	Use:   "complete <campaign-id>",
	Short: "Complete a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid campaign id: %w", err)
		}

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		svc := app.NewCampaignService(d.campaigns, d.targets, nil, d.log)
		c, err := svc.Complete(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("Campaign %q completed (status: %s)\n", c.Name, c.Status)
		return nil
	},
}

var campaignStatsCmd = &cobra.Command{
	Use:   "stats <campaign-id>",
	Short: "Show campaign statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := shared.IDFromString(args[0])
		if err != nil {
			return fmt.Errorf("invalid campaign id: %w", err)
		}

		d, err := openDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err := d.campaigns.Stats(cmd.Context(), id)
		if err != nil {
			return err
		}

		table := newTable("METRIC", "VALUE")
		table.AddRow("targets", fmt.Sprintf("%d", stats.TargetCount))
		table.AddRow("emails_sent", fmt.Sprintf("%d", stats.EmailsSent))
		table.AddRow("sms_sent", fmt.Sprintf("%d", stats.SMSSent))
		table.AddRow("emails_opened", fmt.Sprintf("%d", stats.EmailsOpened))
		table.AddRow("links_clicked", fmt.Sprintf("%d", stats.LinksClicked))
		table.AddRow("credentials_captured", fmt.Sprintf("%d", stats.CredentialsCaptured))
		table.AddRow("open_rate", fmt.Sprintf("%.1f%%", stats.OpenRate))
		table.AddRow("click_rate", fmt.Sprintf("%.1f%%", stats.ClickRate))
		table.AddRow("capture_rate", fmt.Sprintf("%.1f%%", stats.CaptureRate))
		table.Flush()
		return nil
	},
}

func init() {
	campaignListCmd.Flags().StringVar(&flagCampaignStatus, "status", "",
		"Filter by status (draft, active, paused, completed)")

	campaignCmd.AddCommand(campaignListCmd)
	campaignCmd.AddCommand(campaignStartCmd)
	campaignCmd.AddCommand(campaignCompleteCmd)
	campaignCmd.AddCommand(campaignStatsCmd)
}
