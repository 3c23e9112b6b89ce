package app

import (
	"context"
	"time"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
)

// Dispatcher enqueues background delivery work for a launched
// campaign. Implemented by the jobs client; nil disables dispatch.
type Dispatcher interface {
	EnqueueCampaignLaunch(ctx context.Context, campaignID shared.ID) error
}

// CampaignService manages the campaign lifecycle.
type CampaignService struct {
	campaignRepo campaign.Repository
	targetRepo   target.Repository
	dispatcher   Dispatcher
	logger       *logger.Logger
}

// NewCampaignService creates a new CampaignService.
func NewCampaignService(
	campaignRepo campaign.Repository,
	targetRepo target.Repository,
	dispatcher Dispatcher,
	log *logger.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		targetRepo:   targetRepo,
		dispatcher:   dispatcher,
		logger:       log.With("service", "campaign"),
	}
}

// CreateCampaignInput is the input to create a campaign.
type CreateCampaignInput struct {
	Name        string     `json:"name" validate:"required,min=3,max=100"`
	Type        string     `json:"type" validate:"required,campaign_type"`
	Description string     `json:"description" validate:"max=2000"`
	TrackOpens  *bool      `json:"track_opens"`
	TrackClicks *bool      `json:"track_clicks"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// Create creates a draft campaign.
func (s *CampaignService) Create(ctx context.Context, input CreateCampaignInput) (*campaign.Campaign, error) {
	c, err := campaign.NewCampaign(input.Name, campaign.Type(input.Type), input.Description)
	if err != nil {
		return nil, err
	}
	if input.TrackOpens != nil || input.TrackClicks != nil {
		trackOpens, trackClicks := c.TrackOpens, c.TrackClicks
		if input.TrackOpens != nil {
			trackOpens = *input.TrackOpens
		}
		if input.TrackClicks != nil {
			trackClicks = *input.TrackClicks
		}
		c.SetTracking(trackOpens, trackClicks)
	}
	if input.ScheduledAt != nil {
		if err := c.SetSchedule(input.ScheduledAt); err != nil {
			return nil, err
		}
	}

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info("campaign created",
		"campaign_id", c.ID.String(),
		"name", c.Name,
		"type", c.Type.String(),
	)
	return c, nil
}

// UpdateCampaignInput enumerates the mutable campaign fields. Nil
// pointers leave the field unchanged.
type UpdateCampaignInput struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Type        *string `json:"type" validate:"omitempty,campaign_type"`
	TrackOpens  *bool   `json:"track_opens"`
	TrackClicks *bool   `json:"track_clicks"`
}

// Update applies the non-nil fields of the input.
func (s *CampaignService) Update(ctx context.Context, id shared.ID, input UpdateCampaignInput) (*campaign.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := c.Rename(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.Description != nil {
		c.SetDescription(*input.Description)
	}
	if input.Type != nil {
		if err := c.SetType(campaign.Type(*input.Type)); err != nil {
			return nil, err
		}
	}
	if input.TrackOpens != nil || input.TrackClicks != nil {
		trackOpens, trackClicks := c.TrackOpens, c.TrackClicks
		if input.TrackOpens != nil {
			trackOpens = *input.TrackOpens
		}
		if input.TrackClicks != nil {
			trackClicks = *input.TrackClicks
		}
		c.SetTracking(trackOpens, trackClicks)
	}

	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a campaign by id.
func (s *CampaignService) Get(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	return s.campaignRepo.GetByID(ctx, id)
}

// GetStats returns the aggregated rollup for a campaign.
func (s *CampaignService) GetStats(ctx context.Context, id shared.ID) (*campaign.Stats, error) {
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.campaignRepo.Stats(ctx, id)
}

// List returns campaigns matching the filter.
func (s *CampaignService) List(ctx context.Context, filter campaign.Filter, p pagination.Pagination) (*pagination.Result[*campaign.Campaign], error) {
	return s.campaignRepo.List(ctx, filter, p)
}

// Delete removes a campaign; targets, events and credentials cascade.
func (s *CampaignService) Delete(ctx context.Context, id shared.ID) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("campaign deleted", "campaign_id", id.String())
	return nil
}

// Start transitions a draft campaign to active and dispatches the
// delivery work.
func (s *CampaignService) Start(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.targetRepo.CountByCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.Start(count); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueCampaignLaunch(ctx, c.ID); err != nil {
			s.logger.Error("failed to enqueue campaign launch",
				"campaign_id", c.ID.String(),
				"error", err,
			)
		}
	}

	s.logger.Info("campaign started", "campaign_id", c.ID.String(), "targets", count)
	return c, nil
}

// Pause transitions an active campaign to paused.
func (s *CampaignService) Pause(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	return s.transition(ctx, id, (*campaign.Campaign).Pause, "campaign paused")
}

// Resume transitions a paused campaign back to active.
func (s *CampaignService) Resume(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	return s.transition(ctx, id, (*campaign.Campaign).Resume, "campaign resumed")
}

// Complete transitions an active or paused campaign to completed.
func (s *CampaignService) Complete(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	return s.transition(ctx, id, (*campaign.Campaign).Complete, "campaign completed")
}

func (s *CampaignService) transition(ctx context.Context, id shared.ID, op func(*campaign.Campaign) error, msg string) (*campaign.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(c); err != nil {
		return nil, err
	}
	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info(msg, "campaign_id", c.ID.String())
	return c, nil
}

// StartDueScheduled starts every scheduled draft campaign whose time
// has passed. Called by the scheduler; returns the number started.
func (s *CampaignService) StartDueScheduled(ctx context.Context) (int, error) {
	due, err := s.campaignRepo.ListScheduled(ctx, 100)
	if err != nil {
		return 0, err
	}

	started := 0
	now := time.Now().UTC()
	for _, c := range due {
		if !c.IsDueForStart(now) {
			continue
		}
		if _, err := s.Start(ctx, c.ID); err != nil {
			s.logger.Warn("scheduled start failed",
				"campaign_id", c.ID.String(),
				"error", err,
			)
			continue
		}
		started++
	}
	return started, nil
}
