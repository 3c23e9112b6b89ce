package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/logger"
)

// DeliveryTaskHandler processes campaign delivery tasks.
type DeliveryTaskHandler struct {
	delivery *app.DeliveryService
	logger   *logger.Logger
}

// NewDeliveryTaskHandler creates a new DeliveryTaskHandler.
func NewDeliveryTaskHandler(delivery *app.DeliveryService, log *logger.Logger) *DeliveryTaskHandler {
	return &DeliveryTaskHandler{
		delivery: delivery,
		logger:   log.With("component", "delivery_tasks"),
	}
}

// HandleCampaignLaunch fans one campaign out to all of its targets.
// Per-target failures are logged inside DeliverCampaign and do not
// fail the task; a task error here means the campaign itself could not
// be resolved and the task should retry.
func (h *DeliveryTaskHandler) HandleCampaignLaunch(ctx context.Context, t *asynq.Task) error {
	var payload CampaignLaunchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal campaign launch payload: %v: %w", err, asynq.SkipRetry)
	}

	campaignID, err := shared.IDFromString(payload.CampaignID)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q: %v: %w", payload.CampaignID, err, asynq.SkipRetry)
	}

	emails, texts, err := h.delivery.DeliverCampaign(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("campaign delivery failed: %w", err)
	}

	h.logger.Info("campaign delivered",
		"campaign_id", campaignID.String(),
		"emails", emails,
		"sms", texts,
	)
	return nil
}

// HandleTargetDeliver delivers the lure to a single target.
func (h *DeliveryTaskHandler) HandleTargetDeliver(ctx context.Context, t *asynq.Task) error {
	var payload TargetDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal target delivery payload: %v: %w", err, asynq.SkipRetry)
	}

	campaignID, err := shared.IDFromString(payload.CampaignID)
	if err != nil {
		return fmt.Errorf("invalid campaign id %q: %v: %w", payload.CampaignID, err, asynq.SkipRetry)
	}
	targetID, err := shared.IDFromString(payload.TargetID)
	if err != nil {
		return fmt.Errorf("invalid target id %q: %v: %w", payload.TargetID, err, asynq.SkipRetry)
	}

	switch payload.Channel {
	case "sms":
		return h.delivery.DeliverSMS(ctx, campaignID, targetID)
	default:
		return h.delivery.DeliverEmail(ctx, campaignID, targetID)
	}
}
