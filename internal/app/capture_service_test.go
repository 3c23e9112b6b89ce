package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/logger"
)

type captureFixture struct {
	campaignRepo   *mockCampaignRepo
	targetRepo     *mockTargetRepo
	eventRepo      *mockEventRepo
	credentialRepo *mockCredentialRepo
	service        *CaptureService
	campaign       *campaign.Campaign
	target         *target.Target
}

func newCaptureFixture(t *testing.T) *captureFixture {
	t.Helper()

	f := &captureFixture{
		campaignRepo:   newMockCampaignRepo(),
		targetRepo:     newMockTargetRepo(),
		eventRepo:      newMockEventRepo(),
		credentialRepo: newMockCredentialRepo(),
	}
	log := logger.NewNop()
	tracker := NewTrackingService(f.campaignRepo, f.targetRepo, f.eventRepo, f.credentialRepo, log)
	f.service = NewCaptureService(f.campaignRepo, f.targetRepo, f.credentialRepo, tracker, log)

	c, err := campaign.NewCampaign("Q3 Awareness", campaign.TypeEmail, "quarterly test")
	if err != nil {
		t.Fatalf("NewCampaign() error = %v", err)
	}
	f.campaign = c
	f.campaignRepo.campaigns[c.ID.String()] = c

	tgt, err := target.NewTarget(c.ID, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	f.target = tgt
	f.targetRepo.targets[tgt.ID.String()] = tgt

	return f
}

func (f *captureFixture) capture(t *testing.T, username, password string) *CaptureOutput {
	t.Helper()
	out, err := f.service.Capture(context.Background(), CaptureInput{
		CampaignID: f.campaign.ID.String(),
		TargetID:   f.target.ID.String(),
		Username:   username,
		Password:   password,
		Context: credential.CaptureContext{
			IPAddress: "203.0.113.10",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/126.0",
		},
	})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	return out
}

func TestCaptureFirstSubmission(t *testing.T) {
	f := newCaptureFixture(t)

	out := f.capture(t, "jane.doe@example.com", "Tr0ub4dor&9secure")

	if out.IsDuplicate {
		t.Error("first capture should not be a duplicate")
	}
	if out.CredentialID == "" {
		t.Error("expected a credential id")
	}
	if len(f.credentialRepo.credentials) != 1 {
		t.Fatalf("stored credentials = %d, want 1", len(f.credentialRepo.credentials))
	}
	if !f.target.EnteredCredentials {
		t.Error("target entered_credentials flag should be set")
	}
	if f.target.Status() != target.StatusCredentialsEntered {
		t.Errorf("target status = %q, want %q", f.target.Status(), target.StatusCredentialsEntered)
	}

	cred := f.credentialRepo.credentials[0]
	if len(cred.PasswordHash) != 64 {
		t.Errorf("password hash length = %d, want 64", len(cred.PasswordHash))
	}
}

func TestCaptureDuplicatePersistsBothRows(t *testing.T) {
	f := newCaptureFixture(t)

	first := f.capture(t, "jane", "Summer2024!pass")
	second := f.capture(t, "jane", "Winter2024!pass")

	if first.IsDuplicate {
		t.Error("first capture flagged duplicate")
	}
	if !second.IsDuplicate {
		t.Error("second capture should be flagged duplicate")
	}
	if len(f.credentialRepo.credentials) != 2 {
		t.Fatalf("stored credentials = %d, want 2 separate rows", len(f.credentialRepo.credentials))
	}
	if first.CredentialID == second.CredentialID {
		t.Error("duplicate capture reused the credential id")
	}
	if !f.target.EnteredCredentials {
		t.Error("target entered_credentials flag should stay set")
	}
}

func TestCaptureEmitsTrackingEvents(t *testing.T) {
	f := newCaptureFixture(t)

	f.capture(t, "jane", "Summer2024!pass")

	var formSubmitted, credsEntered *tracking.Event
	for _, e := range f.eventRepo.events {
		switch e.Type {
		case tracking.EventFormSubmitted:
			formSubmitted = e
		case tracking.EventCredentialsEntered:
			credsEntered = e
		}
	}
	if formSubmitted == nil {
		t.Fatal("no form_submitted event recorded")
	}
	if credsEntered == nil {
		t.Fatal("no credentials_entered event recorded")
	}
	if credsEntered.EventData["credential_id"] == "" {
		t.Error("credentials_entered event is missing the credential id")
	}
	if credsEntered.EventData["password_strength"] == "" {
		t.Error("credentials_entered event is missing the strength")
	}
	for key, value := range credsEntered.EventData {
		if value == "Summer2024!pass" {
			t.Errorf("event data %q carries the raw password", key)
		}
	}
}

func TestCaptureOutputNeverContainsPassword(t *testing.T) {
	f := newCaptureFixture(t)
	const password = "MyS3cret!Phrase"

	out := f.capture(t, "jane", password)

	raw, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal output: %v", err)
	}
	if strings.Contains(string(raw), password) {
		t.Errorf("capture output leaks the raw password: %s", raw)
	}
}

func TestCaptureSuspiciousCredential(t *testing.T) {
	f := newCaptureFixture(t)

	out := f.capture(t, "admin", "admin")

	if out.Analysis.RiskScore != 100 {
		t.Errorf("risk score = %d, want 100", out.Analysis.RiskScore)
	}
	if !out.Analysis.FlaggedForReview {
		t.Error("admin/admin should be flagged for review")
	}
	if out.Analysis.IsRealCredential {
		t.Error("admin/admin should not be considered real")
	}
	if len(out.Recommendations) == 0 || len(out.Recommendations) > 3 {
		t.Errorf("recommendations = %d, want 1..3", len(out.Recommendations))
	}
}

func TestCaptureValidation(t *testing.T) {
	f := newCaptureFixture(t)

	tests := []struct {
		name  string
		input CaptureInput
	}{
		{
			name: "blank username",
			input: CaptureInput{
				CampaignID: f.campaign.ID.String(),
				TargetID:   f.target.ID.String(),
				Username:   "   ",
				Password:   "something",
			},
		},
		{
			name: "blank password",
			input: CaptureInput{
				CampaignID: f.campaign.ID.String(),
				TargetID:   f.target.ID.String(),
				Username:   "jane",
				Password:   "",
			},
		},
		{
			name: "malformed campaign id",
			input: CaptureInput{
				CampaignID: "not-a-uuid",
				TargetID:   f.target.ID.String(),
				Username:   "jane",
				Password:   "something",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.Capture(context.Background(), tt.input); !shared.IsValidation(err) {
				t.Errorf("Capture() error = %v, want validation error", err)
			}
		})
	}
}

func TestCaptureUnknownReferences(t *testing.T) {
	f := newCaptureFixture(t)

	_, err := f.service.Capture(context.Background(), CaptureInput{
		CampaignID: shared.NewID().String(),
		TargetID:   f.target.ID.String(),
		Username:   "jane",
		Password:   "something",
	})
	if !shared.IsNotFound(err) {
		t.Errorf("unknown campaign: error = %v, want not found", err)
	}

	_, err = f.service.Capture(context.Background(), CaptureInput{
		CampaignID: f.campaign.ID.String(),
		TargetID:   shared.NewID().String(),
		Username:   "jane",
		Password:   "something",
	})
	if !shared.IsNotFound(err) {
		t.Errorf("unknown target: error = %v, want not found", err)
	}
}

func TestCampaignAnalysisRollup(t *testing.T) {
	f := newCaptureFixture(t)

	second, err := target.NewTarget(f.campaign.ID, "john.roe@example.com")
	if err != nil {
		t.Fatalf("NewTarget() error = %v", err)
	}
	f.targetRepo.targets[second.ID.String()] = second

	f.capture(t, "jane", "Summer2024!pass")
	f.capture(t, "jane", "qwerty")
	if _, err := f.service.Capture(context.Background(), CaptureInput{
		CampaignID: f.campaign.ID.String(),
		TargetID:   second.ID.String(),
		Username:   "john",
		Password:   "password",
	}); err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	out, err := f.service.CampaignAnalysis(context.Background(), f.campaign.ID)
	if err != nil {
		t.Fatalf("CampaignAnalysis() error = %v", err)
	}
	if out.TotalCaptures != 3 {
		t.Errorf("total captures = %d, want 3", out.TotalCaptures)
	}
	if out.UniqueTargets != 2 {
		t.Errorf("unique targets = %d, want 2", out.UniqueTargets)
	}
	if out.FlaggedForReview < 2 {
		t.Errorf("flagged = %d, want at least the two common passwords", out.FlaggedForReview)
	}
	total := 0
	for _, n := range out.StrengthBreakdown {
		total += n
	}
	if total != 3 {
		t.Errorf("strength breakdown sums to %d, want 3", total)
	}
	if out.CommonPasswords != 2 {
		t.Errorf("common passwords = %d, want 2 (qwerty, password)", out.CommonPasswords)
	}
	if len(out.TopPasswords) != 3 {
		t.Fatalf("top passwords = %d entries, want 3", len(out.TopPasswords))
	}
	for _, tp := range out.TopPasswords {
		if strings.Trim(tp.Masked, "*") != "" {
			t.Errorf("top password %q not fully masked", tp.Masked)
		}
	}
	if len(out.Recommendations) == 0 {
		t.Error("expected campaign recommendations for mostly weak captures")
	}
}

func TestCampaignRecommendationThresholds(t *testing.T) {
	breakdown := credential.StrengthBreakdown{
		credential.StrengthVeryWeak: 8,
		credential.StrengthWeak:     0,
	}

	tests := []struct {
		name     string
		total    int
		common   int
		highRisk int
		want     int
	}{
		{name: "no captures", total: 0, want: 0},
		{name: "all thresholds crossed", total: 10, common: 4, highRisk: 3, want: 3},
		{name: "none crossed", total: 100, common: 10, highRisk: 5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := campaignRecommendations(tt.total, breakdown, tt.common, tt.highRisk)
			if len(got) != tt.want {
				t.Errorf("recommendations = %d, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}
