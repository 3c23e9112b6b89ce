package app

import (
	"context"
	"testing"
	"time"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/logger"
)

type mockDispatcher struct {
	launched []shared.ID
	err      error
}

func (m *mockDispatcher) EnqueueCampaignLaunch(_ context.Context, campaignID shared.ID) error {
	if m.err != nil {
		return m.err
	}
	m.launched = append(m.launched, campaignID)
	return nil
}

type campaignFixture struct {
	campaignRepo *mockCampaignRepo
	targetRepo   *mockTargetRepo
	dispatcher   *mockDispatcher
	service      *CampaignService
}

func newCampaignFixture() *campaignFixture {
	f := &campaignFixture{
		campaignRepo: newMockCampaignRepo(),
		targetRepo:   newMockTargetRepo(),
		dispatcher:   &mockDispatcher{},
	}
	f.service = NewCampaignService(f.campaignRepo, f.targetRepo, f.dispatcher, logger.NewNop())
	return f
}

func (f *campaignFixture) createDraft(t *testing.T) *campaign.Campaign {
	t.Helper()
	c, err := f.service.Create(context.Background(), CreateCampaignInput{
		Name: "Payroll Update",
		Type: "email",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return c
}

func (f *campaignFixture) addTarget(t *testing.T, campaignID shared.ID, email string) *target.Target {
	t.Helper()
	tgt, err := target.NewTarget(campaignID, email)
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	f.targetRepo.targets[tgt.ID.String()] = tgt
	return tgt
}

func TestCampaignStartRequiresTargets(t *testing.T) {
	f := newCampaignFixture()
	c := f.createDraft(t)

	if _, err := f.service.Start(context.Background(), c.ID); !shared.IsValidation(err) {
		t.Fatalf("Start() with zero targets: error = %v, want validation error", err)
	}
	if c.Status != campaign.StatusDraft {
		t.Errorf("failed start changed status to %q, want draft", c.Status)
	}
	if len(f.dispatcher.launched) != 0 {
		t.Error("failed start must not dispatch delivery work")
	}

	f.addTarget(t, c.ID, "first@example.com")
	started, err := f.service.Start(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Start() with one target: error = %v", err)
	}
	if started.Status != campaign.StatusActive {
		t.Errorf("status = %q, want active", started.Status)
	}
	if started.StartedAt == nil {
		t.Error("started_at should be set")
	}
	if len(f.dispatcher.launched) != 1 || !f.dispatcher.launched[0].Equals(c.ID) {
		t.Errorf("dispatcher launched %v, want exactly the started campaign", f.dispatcher.launched)
	}
}

func TestCampaignStartTwiceConflicts(t *testing.T) {
	f := newCampaignFixture()
	c := f.createDraft(t)
	f.addTarget(t, c.ID, "first@example.com")

	if _, err := f.service.Start(context.Background(), c.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := f.service.Start(context.Background(), c.ID); !shared.IsConflict(err) {
		t.Errorf("second Start(): error = %v, want conflict", err)
	}
}

func TestCampaignLifecycle(t *testing.T) {
	f := newCampaignFixture()
	c := f.createDraft(t)
	f.addTarget(t, c.ID, "first@example.com")
	ctx := context.Background()

	if _, err := f.service.Start(ctx, c.ID); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	paused, err := f.service.Pause(ctx, c.ID)
	if err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if paused.Status != campaign.StatusPaused {
		t.Errorf("status = %q, want paused", paused.Status)
	}
	resumed, err := f.service.Resume(ctx, c.ID)
	if err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if resumed.Status != campaign.StatusActive {
		t.Errorf("status = %q, want active", resumed.Status)
	}
	done, err := f.service.Complete(ctx, c.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Status != campaign.StatusCompleted {
		t.Errorf("status = %q, want completed", done.Status)
	}
	if done.EndedAt == nil {
		t.Error("ended_at should be set on completion")
	}
}

func TestCampaignStartSurvivesDispatchFailure(t *testing.T) {
	f := newCampaignFixture()
	f.dispatcher.err = context.DeadlineExceeded
	c := f.createDraft(t)
	f.addTarget(t, c.ID, "first@example.com")

	started, err := f.service.Start(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Start() error = %v, dispatch failures must not fail the start", err)
	}
	if started.Status != campaign.StatusActive {
		t.Errorf("status = %q, want active", started.Status)
	}
}

func TestCampaignUpdatePartialFields(t *testing.T) {
	f := newCampaignFixture()
	c := f.createDraft(t)

	name := "Payroll Update v2"
	opens := false
	updated, err := f.service.Update(context.Background(), c.ID, UpdateCampaignInput{
		Name:       &name,
		TrackOpens: &opens,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %q, want %q", updated.Name, name)
	}
	if updated.TrackOpens {
		t.Error("track_opens should be disabled")
	}
	if !updated.TrackClicks {
		t.Error("track_clicks should be untouched")
	}
}

func TestStartDueScheduled(t *testing.T) {
	f := newCampaignFixture()
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	due, err := f.service.Create(ctx, CreateCampaignInput{
		Name:        "Due Campaign",
		Type:        "email",
		ScheduledAt: &past,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.addTarget(t, due.ID, "a@example.com")

	notDue, err := f.service.Create(ctx, CreateCampaignInput{
		Name:        "Future Campaign",
		Type:        "email",
		ScheduledAt: &future,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	f.addTarget(t, notDue.ID, "b@example.com")

	started, err := f.service.StartDueScheduled(ctx)
	if err != nil {
		t.Fatalf("StartDueScheduled() error = %v", err)
	}
	if started != 1 {
		t.Errorf("started = %d, want 1", started)
	}
	if due.Status != campaign.StatusActive {
		t.Errorf("due campaign status = %q, want active", due.Status)
	}
	if notDue.Status != campaign.StatusDraft {
		t.Errorf("future campaign status = %q, want draft", notDue.Status)
	}
}

func TestCampaignGetUnknown(t *testing.T) {
	f := newCampaignFixture()
	if _, err := f.service.Get(context.Background(), shared.NewID()); !shared.IsNotFound(err) {
		t.Errorf("Get() error = %v, want not found", err)
	}
}
