package app

import (
	"context"
	"strconv"
	"time"

	"github.com/phishsim/api/internal/metrics"
	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
)

// TrackingService records behavioral events and answers the derived
// funnel, journey and activity queries.
type TrackingService struct {
	campaignRepo   campaign.Repository
	targetRepo     target.Repository
	eventRepo      tracking.Repository
	credentialRepo credential.Repository
	logger         *logger.Logger
}

// NewTrackingService creates a new TrackingService.
func NewTrackingService(
	campaignRepo campaign.Repository,
	targetRepo target.Repository,
	eventRepo tracking.Repository,
	credentialRepo credential.Repository,
	log *logger.Logger,
) *TrackingService {
	return &TrackingService{
		campaignRepo:   campaignRepo,
		targetRepo:     targetRepo,
		eventRepo:      eventRepo,
		credentialRepo: credentialRepo,
		logger:         log.With("service", "tracking"),
	}
}

// RecordEventInput is the input to record a tracking event.
type RecordEventInput struct {
	CampaignID string            `json:"campaign_id" validate:"required,uuid"`
	TargetID   string            `json:"target_id" validate:"omitempty,uuid"`
	EventType  string            `json:"event_type" validate:"required,event_type"`
	EventData  map[string]string `json:"event_data"`

	Context tracking.RequestContext `json:"-"`
}

// RecordEvent appends one event. The first event per (campaign,
// target, event type) triple is marked unique; the existence check and
// the insert are two separate statements, so concurrent duplicates can
// both come out unique. That race is accepted rather than serialized.
func (s *TrackingService) RecordEvent(ctx context.Context, input RecordEventInput) (*tracking.Event, error) {
	campaignID, err := shared.IDFromString(input.CampaignID)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", "invalid campaign id", shared.ErrValidation)
	}
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	var targetID *shared.ID
	if input.TargetID != "" {
		id, err := shared.IDFromString(input.TargetID)
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION", "invalid target id", shared.ErrValidation)
		}
		if _, err := s.targetRepo.GetByID(ctx, id); err != nil {
			return nil, err
		}
		targetID = &id
	}

	event, err := tracking.NewEvent(campaignID, targetID, tracking.EventType(input.EventType), input.Context)
	if err != nil {
		return nil, err
	}
	if len(input.EventData) > 0 {
		event.EventData = input.EventData
	}

	exists, err := s.eventRepo.Exists(ctx, campaignID, targetID, event.Type)
	if err != nil {
		return nil, err
	}
	event.IsUnique = !exists

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}

	if targetID != nil {
		if err := s.updateTargetFlag(ctx, *targetID, event.Type); err != nil {
			// The event is already persisted; the flag is a cache that
			// the next event of this type will repair.
			s.logger.Warn("failed to update target flag",
				"target_id", targetID.String(),
				"event_type", event.Type.String(),
				"error", err,
			)
		}
	}

	metrics.EventsRecordedTotal.WithLabelValues(event.Type.String(), strconv.FormatBool(event.IsUnique)).Inc()
	s.logger.Info("event recorded",
		"event_id", event.ID.String(),
		"campaign_id", campaignID.String(),
		"event_type", event.Type.String(),
		"is_unique", event.IsUnique,
	)
	return event, nil
}

// updateTargetFlag sets the monotonic denormalized flag matching the
// event type.
func (s *TrackingService) updateTargetFlag(ctx context.Context, targetID shared.ID, eventType tracking.EventType) error {
	var mark func(*target.Target)
	switch eventType {
	case tracking.EventEmailSent:
		mark = (*target.Target).MarkEmailSent
	case tracking.EventSMSSent:
		mark = (*target.Target).MarkSMSSent
	case tracking.EventLinkClicked:
		mark = (*target.Target).MarkLinkClicked
	case tracking.EventCredentialsEntered:
		mark = (*target.Target).MarkCredentialsEntered
	default:
		return nil
	}

	tgt, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	mark(tgt)
	return s.targetRepo.Update(ctx, tgt)
}

// FunnelStep is one step of the conversion funnel.
type FunnelStep struct {
	Step  string   `json:"step"`
	Count int      `json:"count"`
	Rate  *float64 `json:"rate,omitempty"`
}

// FunnelOutput is the ordered conversion funnel for a campaign.
type FunnelOutput struct {
	CampaignID string       `json:"campaign_id"`
	Steps      []FunnelStep `json:"steps"`
}

// ConversionFunnel computes the fixed funnel. All steps count distinct
// targets per event type except credentials_entered, which counts
// credential rows so it matches the capture store exactly. Rates are
// relative to the email_sent count.
func (s *TrackingService) ConversionFunnel(ctx context.Context, campaignID shared.ID) (*FunnelOutput, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, err
	}

	out := &FunnelOutput{CampaignID: campaignID.String()}
	for _, step := range tracking.FunnelSteps {
		var count int
		var err error
		if step == tracking.EventCredentialsEntered {
			count, err = s.credentialRepo.CountByCampaign(ctx, campaignID)
		} else {
			count, err = s.eventRepo.CountDistinctTargets(ctx, campaignID, step)
		}
		if err != nil {
			return nil, err
		}
		out.Steps = append(out.Steps, FunnelStep{Step: step.String(), Count: count})
	}

	if sent := out.Steps[0].Count; sent > 0 {
		for i := range out.Steps {
			rate := float64(out.Steps[i].Count) / float64(sent) * 100
			out.Steps[i].Rate = &rate
		}
	}
	return out, nil
}

// JourneyEvent is one entry of a target's journey timeline.
type JourneyEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	IPAddress string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// JourneyOutput is the full journey of one target through a campaign.
type JourneyOutput struct {
	TargetID        string         `json:"target_id"`
	TargetEmail     string         `json:"target_email"`
	TargetStatus    string         `json:"target_status"`
	EngagementScore int            `json:"engagement_score"`
	Timeline        []JourneyEvent `json:"timeline"`
	TotalEvents     int            `json:"total_events"`

	// Seconds from first email_sent to first link_clicked, and from
	// first link_clicked to first form_submitted. Nil when either
	// endpoint event is missing.
	TimeToClick  *float64 `json:"time_to_click,omitempty"`
	TimeToSubmit *float64 `json:"time_to_submit,omitempty"`
}

// TargetJourney returns the chronologically ordered journey of one
// target plus the derived click/submit latencies.
func (s *TrackingService) TargetJourney(ctx context.Context, campaignID, targetID shared.ID) (*JourneyOutput, error) {
	tgt, err := s.targetRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	events, err := s.eventRepo.ListByTarget(ctx, campaignID, targetID)
	if err != nil {
		return nil, err
	}

	out := &JourneyOutput{
		TargetID:        targetID.String(),
		TargetEmail:     tgt.Email,
		TargetStatus:    string(tgt.Status()),
		EngagementScore: tgt.EngagementScore(),
		TotalEvents:     len(events),
	}
	for _, e := range events {
		out.Timeline = append(out.Timeline, JourneyEvent{
			Timestamp: e.Timestamp,
			EventType: e.Type.String(),
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
			Details:   e.EventData,
		})
	}

	out.TimeToClick = secondsBetween(events, tracking.EventEmailSent, tracking.EventLinkClicked)
	out.TimeToSubmit = secondsBetween(events, tracking.EventLinkClicked, tracking.EventFormSubmitted)
	return out, nil
}

// secondsBetween returns the seconds between the first event of each
// type, or nil when either is absent. Events must be in chronological
// order.
func secondsBetween(events []*tracking.Event, from, to tracking.EventType) *float64 {
	var start, end *time.Time
	for _, e := range events {
		if start == nil && e.Type == from {
			ts := e.Timestamp
			start = &ts
		}
		if end == nil && e.Type == to {
			ts := e.Timestamp
			end = &ts
		}
	}
	if start == nil || end == nil {
		return nil
	}
	seconds := end.Sub(*start).Seconds()
	return &seconds
}

// TimelineEntry is one row of the campaign-wide event timeline.
type TimelineEntry struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	TargetID  string            `json:"target_id,omitempty"`
	IPAddress string            `json:"ip_address,omitempty"`
	Browser   string            `json:"browser"`
	Device    string            `json:"device"`
	Details   map[string]string `json:"details,omitempty"`
}

// ListEvents returns a filtered page of raw events for a campaign.
func (s *TrackingService) ListEvents(ctx context.Context, filter tracking.Filter, p pagination.Pagination) (*pagination.Result[*tracking.Event], error) {
	if _, err := s.campaignRepo.GetByID(ctx, filter.CampaignID); err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter, p)
}

// Timeline returns the most recent events of a campaign, newest first.
func (s *TrackingService) Timeline(ctx context.Context, campaignID shared.ID, limit int) ([]TimelineEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	result, err := s.eventRepo.List(ctx, tracking.Filter{CampaignID: campaignID}, paginationFor(limit))
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(result.Data))
	for _, e := range result.Data {
		entry := TimelineEntry{
			Timestamp: e.Timestamp,
			EventType: e.Type.String(),
			IPAddress: e.IPAddress,
			Browser:   e.Browser.Name,
			Device:    e.Device.Type,
			Details:   e.EventData,
		}
		if e.TargetID != nil {
			entry.TargetID = e.TargetID.String()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HourlyActivity returns per-hour event counts for the trailing
// window.
func (s *TrackingService) HourlyActivity(ctx context.Context, campaignID shared.ID, days int) ([]tracking.HourlyCount, error) {
	if days <= 0 {
		days = 7
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.eventRepo.HourlyActivity(ctx, campaignID, since)
}

// DeviceStatsOutput aggregates events by device classification.
type DeviceStatsOutput struct {
	DeviceTypes map[string]int `json:"device_types"`
	Total       int            `json:"total"`
}

// DeviceStats returns the device-type distribution of a campaign's
// events.
func (s *TrackingService) DeviceStats(ctx context.Context, campaignID shared.ID) (*DeviceStatsOutput, error) {
	counts, err := s.eventRepo.CountByDeviceType(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	out := &DeviceStatsOutput{DeviceTypes: counts}
	for _, c := range counts {
		out.Total += c
	}
	return out, nil
}
