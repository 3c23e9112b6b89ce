package tracking

import (
	"errors"
	"testing"

	"github.com/phishsim/api/pkg/domain/shared"
)

func TestNewEvent(t *testing.T) {
	campaignID := shared.NewID()
	targetID := shared.NewID()

	e, err := NewEvent(campaignID, &targetID, EventLinkClicked, RequestContext{
		IPAddress: "203.0.113.7",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
		Referrer:  "https://mail.example.com",
	})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if e.TrackingToken == "" {
		t.Error("tracking token not generated")
	}
	if e.Browser.Name != "Chrome" {
		t.Errorf("browser = %q, want Chrome", e.Browser.Name)
	}
	if e.IsUnique {
		t.Error("IsUnique must be left unset by the constructor")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestNewEvent_Validation(t *testing.T) {
	if _, err := NewEvent(shared.ID{}, nil, EventPageVisited, RequestContext{}); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("zero campaign id: got %v", err)
	}
	if _, err := NewEvent(shared.NewID(), nil, EventType("teleport"), RequestContext{}); !errors.Is(err, shared.ErrValidation) {
		t.Errorf("unknown event type: got %v", err)
	}
}

func TestNewEvent_NilTarget(t *testing.T) {
	e, err := NewEvent(shared.NewID(), nil, EventPageVisited, RequestContext{})
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if e.TargetID != nil {
		t.Error("target id should stay nil")
	}
}

func TestNewToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if len(tok) < 40 {
			t.Fatalf("token too short: %q", tok)
		}
		if seen[tok] {
			t.Fatal("token collision")
		}
		seen[tok] = true
	}
}

func TestEventType_Helpers(t *testing.T) {
	if !EventCredentialsEntered.IsConversion() || EventLinkClicked.IsConversion() {
		t.Error("IsConversion wrong")
	}
	if !EventLinkClicked.IsEngagement() || EventEmailSent.IsEngagement() {
		t.Error("IsEngagement wrong")
	}
	for _, et := range AllEventTypes {
		if !et.IsValid() {
			t.Errorf("%s should be valid", et)
		}
	}
	if EventType("nope").IsValid() {
		t.Error("unknown type should be invalid")
	}
}
