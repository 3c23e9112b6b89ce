// Package jobs provides background job definitions and handlers using
// Asynq. Campaign launches are dispatched here so the HTTP request
// that starts a campaign returns before any lure is delivered.
package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeCampaignLaunch = "campaign:launch"
	TypeTargetDeliver  = "campaign:deliver_target"
)

// Queue names.
const (
	QueueDefault = "default"
	QueueLow     = "low"
)

// CampaignLaunchPayload identifies the campaign whose targets should
// receive the lure.
type CampaignLaunchPayload struct {
	CampaignID string `json:"campaign_id"`
}

// TargetDeliverPayload identifies one (campaign, target) delivery.
type TargetDeliverPayload struct {
	CampaignID string `json:"campaign_id"`
	TargetID   string `json:"target_id"`
	Channel    string `json:"channel"`
}

// NewCampaignLaunchTask creates a campaign launch task.
func NewCampaignLaunchTask(payload CampaignLaunchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal campaign launch payload: %w", err)
	}
	return asynq.NewTask(
		TypeCampaignLaunch,
		data,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue(QueueDefault),
	), nil
}

// NewTargetDeliverTask creates a single-target delivery task.
func NewTargetDeliverTask(payload TargetDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal target delivery payload: %w", err)
	}
	return asynq.NewTask(
		TypeTargetDeliver,
		data,
		asynq.MaxRetry(5),
		asynq.Timeout(time.Minute),
		asynq.Queue(QueueLow),
	), nil
}
