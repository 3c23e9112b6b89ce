package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/logger"
)

// Client manages enqueueing background jobs using Asynq. It satisfies
// app.Dispatcher.
type Client struct {
	client *asynq.Client
	logger *logger.Logger
}

// ClientConfig contains configuration for the job client.
type ClientConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewClient creates a new job client for enqueueing tasks.
func NewClient(cfg ClientConfig, log *logger.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return &Client{
		client: client,
		logger: log.With("component", "job_client"),
	}
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueCampaignLaunch enqueues the fan-out delivery job for a
// freshly started campaign.
func (c *Client) EnqueueCampaignLaunch(ctx context.Context, campaignID shared.ID) error {
	task, err := NewCampaignLaunchTask(CampaignLaunchPayload{CampaignID: campaignID.String()})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		c.logger.Error("failed to enqueue campaign launch",
			"campaign_id", campaignID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Info("campaign launch queued",
		"task_id", info.ID,
		"campaign_id", campaignID.String(),
		"queue", info.Queue,
	)
	return nil
}

// EnqueueTargetDelivery enqueues a single-target delivery.
func (c *Client) EnqueueTargetDelivery(ctx context.Context, campaignID, targetID shared.ID, channel string) error {
	task, err := NewTargetDeliverTask(TargetDeliverPayload{
		CampaignID: campaignID.String(),
		TargetID:   targetID.String(),
		Channel:    channel,
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := c.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}
