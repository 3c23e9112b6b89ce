package app

import (
	"context"
	"testing"
	"time"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
)

type trackingFixture struct {
	campaignRepo   *mockCampaignRepo
	targetRepo     *mockTargetRepo
	eventRepo      *mockEventRepo
	credentialRepo *mockCredentialRepo
	service        *TrackingService
	campaign       *campaign.Campaign
	target         *target.Target
}

func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()

	f := &trackingFixture{
		campaignRepo:   newMockCampaignRepo(),
		targetRepo:     newMockTargetRepo(),
		eventRepo:      newMockEventRepo(),
		credentialRepo: newMockCredentialRepo(),
	}
	f.service = NewTrackingService(f.campaignRepo, f.targetRepo, f.eventRepo, f.credentialRepo, logger.NewNop())

	c, err := campaign.NewCampaign("Funnel Campaign", campaign.TypeEmail, "")
	if err != nil {
		t.Fatalf("NewCampaign() error = %v", err)
	}
	f.campaign = c
	f.campaignRepo.campaigns[c.ID.String()] = c

	tgt, err := target.NewTarget(c.ID, "alex.lee@example.com")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	f.target = tgt
	f.targetRepo.targets[tgt.ID.String()] = tgt

	return f
}

func (f *trackingFixture) record(t *testing.T, targetID string, eventType tracking.EventType) *tracking.Event {
	t.Helper()
	e, err := f.service.RecordEvent(context.Background(), RecordEventInput{
		CampaignID: f.campaign.ID.String(),
		TargetID:   targetID,
		EventType:  eventType.String(),
		Context:    tracking.RequestContext{IPAddress: "203.0.113.5", UserAgent: "curl/8.0"},
	})
	if err != nil {
		t.Fatalf("RecordEvent(%s) error = %v", eventType, err)
	}
	return e
}

// seedEvent inserts an event with an explicit timestamp, bypassing the
// service so journey math can be asserted deterministically.
func (f *trackingFixture) seedEvent(t *testing.T, eventType tracking.EventType, at time.Time) {
	t.Helper()
	targetID := f.target.ID
	e, err := tracking.NewEvent(f.campaign.ID, &targetID, eventType, tracking.RequestContext{})
	if err != nil {
		t.Fatalf("NewEvent(%s) error = %v", eventType, err)
	}
	e.Timestamp = at
	f.eventRepo.events = append(f.eventRepo.events, e)
}

func TestRecordEventUniqueExactlyOnce(t *testing.T) {
	f := newTrackingFixture(t)

	first := f.record(t, f.target.ID.String(), tracking.EventLinkClicked)
	second := f.record(t, f.target.ID.String(), tracking.EventLinkClicked)
	third := f.record(t, f.target.ID.String(), tracking.EventLinkClicked)

	if !first.IsUnique {
		t.Error("first event of a type should be unique")
	}
	if second.IsUnique || third.IsUnique {
		t.Error("repeat events of the same type must not be unique")
	}
	if len(f.eventRepo.events) != 3 {
		t.Errorf("stored events = %d, want all 3 repeats persisted", len(f.eventRepo.events))
	}

	unique := 0
	for _, e := range f.eventRepo.events {
		if e.IsUnique {
			unique++
		}
	}
	if unique != 1 {
		t.Errorf("unique events = %d, want exactly 1 per (campaign, target, type)", unique)
	}
}

func TestRecordEventUniquePerTarget(t *testing.T) {
	f := newTrackingFixture(t)
	other, err := target.NewTarget(f.campaign.ID, "sam.kim@example.com")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	f.targetRepo.targets[other.ID.String()] = other

	first := f.record(t, f.target.ID.String(), tracking.EventEmailOpened)
	second := f.record(t, other.ID.String(), tracking.EventEmailOpened)

	if !first.IsUnique || !second.IsUnique {
		t.Error("first event per target should be unique even for the same type")
	}
}

func TestRecordEventUpdatesTargetFlags(t *testing.T) {
	f := newTrackingFixture(t)

	f.record(t, f.target.ID.String(), tracking.EventEmailSent)
	if !f.target.EmailSent {
		t.Error("email_sent event should flip the target's email flag")
	}
	if f.target.Status() != target.StatusContacted {
		t.Errorf("status = %q, want %q", f.target.Status(), target.StatusContacted)
	}

	f.record(t, f.target.ID.String(), tracking.EventLinkClicked)
	if !f.target.ClickedLink {
		t.Error("link_clicked event should flip the target's click flag")
	}

	// Engagement-only events leave the flags alone.
	f.record(t, f.target.ID.String(), tracking.EventPageVisited)
	if f.target.EnteredCredentials {
		t.Error("page_visited must not flip entered_credentials")
	}
}

func TestRecordEventRejectsUnknownReferences(t *testing.T) {
	f := newTrackingFixture(t)

	_, err := f.service.RecordEvent(context.Background(), RecordEventInput{
		CampaignID: shared.NewID().String(),
		EventType:  tracking.EventEmailOpened.String(),
	})
	if !shared.IsNotFound(err) {
		t.Errorf("unknown campaign: error = %v, want not found", err)
	}

	_, err = f.service.RecordEvent(context.Background(), RecordEventInput{
		CampaignID: f.campaign.ID.String(),
		TargetID:   shared.NewID().String(),
		EventType:  tracking.EventEmailOpened.String(),
	})
	if !shared.IsNotFound(err) {
		t.Errorf("unknown target: error = %v, want not found", err)
	}

	_, err = f.service.RecordEvent(context.Background(), RecordEventInput{
		CampaignID: f.campaign.ID.String(),
		EventType:  "coffee_break",
	})
	if !shared.IsValidation(err) {
		t.Errorf("unknown event type: error = %v, want validation error", err)
	}
}

func TestRecordEventWithoutTarget(t *testing.T) {
	f := newTrackingFixture(t)

	e, err := f.service.RecordEvent(context.Background(), RecordEventInput{
		CampaignID: f.campaign.ID.String(),
		EventType:  tracking.EventPageVisited.String(),
	})
	if err != nil {
		t.Fatalf("RecordEvent() error = %v", err)
	}
	if e.TargetID != nil {
		t.Error("anonymous event should carry no target id")
	}
}

func TestConversionFunnel(t *testing.T) {
	f := newTrackingFixture(t)

	// Three targets mailed, two opened, one clicked. Credentials come
	// from the capture store, not from events.
	targets := []*target.Target{f.target}
	for _, email := range []string{"b@example.com", "c@example.com"} {
		tgt, err := target.NewTarget(f.campaign.ID, email)
		if err != nil {
			t.Fatalf("NewTarget() error = %v", err)
		}
		f.targetRepo.targets[tgt.ID.String()] = tgt
		targets = append(targets, tgt)
	}
	for _, tgt := range targets {
		f.record(t, tgt.ID.String(), tracking.EventEmailSent)
	}
	f.record(t, targets[0].ID.String(), tracking.EventEmailOpened)
	f.record(t, targets[1].ID.String(), tracking.EventEmailOpened)
	f.record(t, targets[0].ID.String(), tracking.EventLinkClicked)
	// Repeats must not inflate the distinct count.
	f.record(t, targets[0].ID.String(), tracking.EventLinkClicked)

	out, err := f.service.ConversionFunnel(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("ConversionFunnel() error = %v", err)
	}
	if len(out.Steps) != len(tracking.FunnelSteps) {
		t.Fatalf("funnel steps = %d, want %d", len(out.Steps), len(tracking.FunnelSteps))
	}

	byStep := make(map[string]FunnelStep, len(out.Steps))
	for _, s := range out.Steps {
		byStep[s.Step] = s
	}
	if got := byStep["email_sent"].Count; got != 3 {
		t.Errorf("email_sent = %d, want 3", got)
	}
	if got := byStep["email_opened"].Count; got != 2 {
		t.Errorf("email_opened = %d, want 2", got)
	}
	if got := byStep["link_clicked"].Count; got != 1 {
		t.Errorf("link_clicked = %d, want 1 distinct target", got)
	}
	if got := byStep["credentials_entered"].Count; got != 0 {
		t.Errorf("credentials_entered = %d, want 0 with an empty capture store", got)
	}

	open := byStep["email_opened"]
	if open.Rate == nil {
		t.Fatal("rates should be set when email_sent > 0")
	}
	if want := 2.0 / 3.0 * 100; *open.Rate < want-0.001 || *open.Rate > want+0.001 {
		t.Errorf("open rate = %v, want %v", *open.Rate, want)
	}
}

func TestConversionFunnelCountsCredentialRows(t *testing.T) {
	f := newTrackingFixture(t)

	f.record(t, f.target.ID.String(), tracking.EventEmailSent)

	// Two captures by the same target persist as two rows; the funnel
	// step reports rows, not distinct targets.
	for _, password := range []string{"qwerty", "hunter2"} {
		cred := credential.NewCredential(
			f.campaign.ID, f.target.ID,
			"alex.lee", password,
			credential.Analyze("alex.lee", password),
			credential.CaptureContext{},
		)
		if err := f.credentialRepo.Create(context.Background(), cred); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	out, err := f.service.ConversionFunnel(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("ConversionFunnel() error = %v", err)
	}
	for _, step := range out.Steps {
		if step.Step == "credentials_entered" && step.Count != 2 {
			t.Errorf("credentials_entered = %d, want 2 rows for one target", step.Count)
		}
	}
}

func TestConversionFunnelNoEmailsSent(t *testing.T) {
	f := newTrackingFixture(t)

	f.record(t, f.target.ID.String(), tracking.EventPageVisited)

	out, err := f.service.ConversionFunnel(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("ConversionFunnel() error = %v", err)
	}
	for _, step := range out.Steps {
		if step.Rate != nil {
			t.Errorf("step %s has a rate with zero emails sent", step.Step)
		}
	}
}

func TestTargetJourneyTimings(t *testing.T) {
	f := newTrackingFixture(t)
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	f.seedEvent(t, tracking.EventEmailSent, base)
	f.seedEvent(t, tracking.EventLinkClicked, base.Add(90*time.Second))
	f.seedEvent(t, tracking.EventFormSubmitted, base.Add(90*time.Second+45*time.Second))

	out, err := f.service.TargetJourney(context.Background(), f.campaign.ID, f.target.ID)
	if err != nil {
		t.Fatalf("TargetJourney() error = %v", err)
	}
	if out.TotalEvents != 3 {
		t.Errorf("total events = %d, want 3", out.TotalEvents)
	}
	if out.TimeToClick == nil || *out.TimeToClick != 90 {
		t.Errorf("time_to_click = %v, want 90s", out.TimeToClick)
	}
	if out.TimeToSubmit == nil || *out.TimeToSubmit != 45 {
		t.Errorf("time_to_submit = %v, want 45s", out.TimeToSubmit)
	}
	if out.TargetEmail != "alex.lee@example.com" {
		t.Errorf("target email = %q", out.TargetEmail)
	}
	for i := 1; i < len(out.Timeline); i++ {
		if out.Timeline[i].Timestamp.Before(out.Timeline[i-1].Timestamp) {
			t.Fatal("journey timeline is not chronological")
		}
	}
}

func TestTargetJourneyMissingEndpoints(t *testing.T) {
	f := newTrackingFixture(t)
	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	f.seedEvent(t, tracking.EventEmailSent, base)
	f.seedEvent(t, tracking.EventEmailOpened, base.Add(time.Minute))

	out, err := f.service.TargetJourney(context.Background(), f.campaign.ID, f.target.ID)
	if err != nil {
		t.Fatalf("TargetJourney() error = %v", err)
	}
	if out.TimeToClick != nil {
		t.Error("time_to_click should be nil without a link_clicked event")
	}
	if out.TimeToSubmit != nil {
		t.Error("time_to_submit should be nil without a form_submitted event")
	}
}

func TestDeviceStats(t *testing.T) {
	f := newTrackingFixture(t)

	agents := []string{
		"Mozilla/5.0 (Windows NT 10.0) Chrome/126.0",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1",
	}
	for _, ua := range agents {
		if _, err := f.service.RecordEvent(context.Background(), RecordEventInput{
			CampaignID: f.campaign.ID.String(),
			TargetID:   f.target.ID.String(),
			EventType:  tracking.EventPageVisited.String(),
			Context:    tracking.RequestContext{UserAgent: ua},
		}); err != nil {
			t.Fatalf("RecordEvent() error = %v", err)
		}
	}

	out, err := f.service.DeviceStats(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("DeviceStats() error = %v", err)
	}
	if out.Total != 3 {
		t.Errorf("total = %d, want 3", out.Total)
	}
	if out.DeviceTypes["Mobile"] != 2 {
		t.Errorf("mobile = %d, want 2", out.DeviceTypes["Mobile"])
	}
	if out.DeviceTypes["Desktop"] != 1 {
		t.Errorf("desktop = %d, want 1", out.DeviceTypes["Desktop"])
	}
}
