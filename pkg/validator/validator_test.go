package validator

import (
	"errors"
	"testing"
)

type createCampaignInput struct {
	Name string `validate:"required,min=3,max=100"`
	Type string `validate:"required,campaign_type"`
}

type trackEventInput struct {
	EventType string `validate:"required,event_type"`
	Phone     string `validate:"omitempty,phone"`
}

func TestValidator_CampaignInput(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		input     createCampaignInput
		wantField string
	}{
		{"valid", createCampaignInput{Name: "Q3 Drill", Type: "email"}, ""},
		{"missing name", createCampaignInput{Type: "email"}, "name"},
		{"short name", createCampaignInput{Name: "ab", Type: "sms"}, "name"},
		{"bad type", createCampaignInput{Name: "Q3 Drill", Type: "pigeon"}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidator_EventAndPhone(t *testing.T) {
	v := New()

	if err := v.Validate(trackEventInput{EventType: "link_clicked", Phone: "+40712345678"}); err != nil {
		t.Errorf("valid input rejected: %v", err)
	}
	if err := v.Validate(trackEventInput{EventType: "teleported"}); err == nil {
		t.Error("unknown event type accepted")
	}
	if err := v.Validate(trackEventInput{EventType: "sms_sent", Phone: "not-a-phone"}); err == nil {
		t.Error("bad phone accepted")
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"CampaignID": "campaign_i_d",
		"FirstName":  "first_name",
		"Email":      "email",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
