package app

import (
	"context"
	"fmt"

	"github.com/phishsim/api/internal/metrics"
	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/email"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/sms"
)

// DeliveryService sends lure messages for active campaigns and records
// the matching delivery events.
type DeliveryService struct {
	campaignRepo campaign.Repository
	targetRepo   target.Repository
	tracker      *TrackingService
	emailSender  email.Sender
	smsSender    sms.Sender
	baseURL      string // public base of the tracking endpoints
	logger       *logger.Logger
}

// NewDeliveryService creates a new DeliveryService.
func NewDeliveryService(
	campaignRepo campaign.Repository,
	targetRepo target.Repository,
	tracker *TrackingService,
	emailSender email.Sender,
	smsSender sms.Sender,
	baseURL string,
	log *logger.Logger,
) *DeliveryService {
	return &DeliveryService{
		campaignRepo: campaignRepo,
		targetRepo:   targetRepo,
		tracker:      tracker,
		emailSender:  emailSender,
		smsSender:    smsSender,
		baseURL:      baseURL,
		logger:       log.With("service", "delivery"),
	}
}

// DeliverEmail sends the lure email to one target. Delivery is gated
// on the campaign being active; captures and tracking are not.
func (s *DeliveryService) DeliverEmail(ctx context.Context, campaignID, targetID shared.ID) error {
	c, tgt, err := s.resolve(ctx, campaignID, targetID)
	if err != nil {
		return err
	}
	if !c.Type.UsesEmail() {
		return nil
	}

	msg := &email.Message{
		To:      tgt.Email,
		Subject: c.Name,
		Body:    s.buildEmailBody(c, tgt),
		IsHTML:  true,
	}
	if err := s.emailSender.Send(ctx, msg); err != nil {
		metrics.DeliveriesTotal.WithLabelValues("email", "failed").Inc()
		return fmt.Errorf("deliver email to %s: %w", tgt.ID.String(), err)
	}
	metrics.DeliveriesTotal.WithLabelValues("email", "sent").Inc()

	s.recordDelivery(ctx, campaignID, targetID, tracking.EventEmailSent)
	return nil
}

// DeliverSMS sends the lure SMS to one target.
func (s *DeliveryService) DeliverSMS(ctx context.Context, campaignID, targetID shared.ID) error {
	c, tgt, err := s.resolve(ctx, campaignID, targetID)
	if err != nil {
		return err
	}
	if !c.Type.UsesSMS() {
		return nil
	}
	if tgt.Phone == "" {
		s.logger.Warn("target has no phone number, skipping sms",
			"target_id", tgt.ID.String(),
		)
		return nil
	}

	msg := &sms.Message{
		To:   tgt.Phone,
		Body: fmt.Sprintf("%s: %s", c.Name, s.clickURL(campaignID, targetID)),
	}
	if err := s.smsSender.Send(ctx, msg); err != nil {
		metrics.DeliveriesTotal.WithLabelValues("sms", "failed").Inc()
		return fmt.Errorf("deliver sms to %s: %w", tgt.ID.String(), err)
	}
	metrics.DeliveriesTotal.WithLabelValues("sms", "sent").Inc()

	s.recordDelivery(ctx, campaignID, targetID, tracking.EventSMSSent)
	return nil
}

func (s *DeliveryService) resolve(ctx context.Context, campaignID, targetID shared.ID) (*campaign.Campaign, *target.Target, error) {
	c, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if !c.IsActive() {
		return nil, nil, shared.NewDomainError("CONFLICT", "campaign is not active", shared.ErrConflict)
	}
	tgt, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	return c, tgt, nil
}

func (s *DeliveryService) recordDelivery(ctx context.Context, campaignID, targetID shared.ID, eventType tracking.EventType) {
	if _, err := s.tracker.RecordEvent(ctx, RecordEventInput{
		CampaignID: campaignID.String(),
		TargetID:   targetID.String(),
		EventType:  eventType.String(),
	}); err != nil {
		s.logger.Warn("failed to record delivery event",
			"campaign_id", campaignID.String(),
			"target_id", targetID.String(),
			"event_type", eventType.String(),
			"error", err,
		)
	}
}

// buildEmailBody renders the lure body with the tracking pixel and the
// click-through link for this target.
func (s *DeliveryService) buildEmailBody(c *campaign.Campaign, tgt *target.Target) string {
	link := s.clickURL(c.ID, tgt.ID)
	body := fmt.Sprintf(
		`<html><body><p>Hello %s,</p><p>%s</p><p><a href="%s">Review your account</a></p>`,
		tgt.DisplayName(), c.Description, link,
	)
	if c.TrackOpens {
		body += fmt.Sprintf(`<img src="%s/t/pixel?c=%s&t=%s" width="1" height="1" alt=""/>`,
			s.baseURL, c.ID.String(), tgt.ID.String())
	}
	return body + "</body></html>"
}

func (s *DeliveryService) clickURL(campaignID, targetID shared.ID) string {
	return fmt.Sprintf("%s/t/click?c=%s&t=%s", s.baseURL, campaignID.String(), targetID.String())
}

// DeliverCampaign fans the campaign out to all of its targets,
// continuing past per-target failures. It returns the counts of
// successful email and SMS deliveries.
func (s *DeliveryService) DeliverCampaign(ctx context.Context, campaignID shared.ID) (emails, texts int, err error) {
	c, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return 0, 0, err
	}
	if !c.IsActive() {
		return 0, 0, shared.NewDomainError("CONFLICT", "campaign is not active", shared.ErrConflict)
	}

	targets, err := s.targetRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return 0, 0, err
	}

	for _, tgt := range targets {
		if c.Type.UsesEmail() {
			if err := s.DeliverEmail(ctx, campaignID, tgt.ID); err != nil {
				s.logger.Warn("email delivery failed", "target_id", tgt.ID.String(), "error", err)
			} else {
				emails++
			}
		}
		if c.Type.UsesSMS() && tgt.Phone != "" {
			if err := s.DeliverSMS(ctx, campaignID, tgt.ID); err != nil {
				s.logger.Warn("sms delivery failed", "target_id", tgt.ID.String(), "error", err)
			} else {
				texts++
			}
		}
	}

	s.logger.Info("campaign delivered",
		"campaign_id", campaignID.String(),
		"emails", emails,
		"sms", texts,
	)
	return emails, texts, nil
}
