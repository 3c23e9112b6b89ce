package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/phishsim/api/pkg/logger"
)

// CampaignScheduler starts scheduled campaigns once their start time
// passes. It runs on a cron spec so operators can slow the sweep down
// on quiet deployments.
type CampaignScheduler struct {
	campaigns *CampaignService
	cron      *cron.Cron
	spec      string
	logger    *logger.Logger
}

// NewCampaignScheduler creates a scheduler sweeping on the given cron
// spec (standard five-field format).
func NewCampaignScheduler(campaigns *CampaignService, spec string, log *logger.Logger) *CampaignScheduler {
	return &CampaignScheduler{
		campaigns: campaigns,
		cron:      cron.New(),
		spec:      spec,
		logger:    log.With("component", "campaign_scheduler"),
	}
}

// Start registers the sweep and starts the cron loop.
func (s *CampaignScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("campaign scheduler started", "spec", s.spec)
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *CampaignScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("campaign scheduler stopped")
}

func (s *CampaignScheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	started, err := s.campaigns.StartDueScheduled(ctx)
	if err != nil {
		s.logger.Error("scheduled campaign sweep failed", "error", err)
		return
	}
	if started > 0 {
		s.logger.Info("scheduled campaigns started", "count", started)
	}
}
