package tracking

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
)

// RequestContext carries the client-side signals attached to an event.
type RequestContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string
}

// Event is one behavioral signal. Events are append-only; the only
// mutation after insert is the processed flag.
type Event struct {
	ID         shared.ID
	CampaignID shared.ID
	TargetID   *shared.ID // nil when the event precedes target identification

	Type      EventType
	Timestamp time.Time

	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string

	Browser  BrowserInfo
	Device   DeviceInfo
	Location map[string]string

	EventData map[string]string

	TrackingToken string
	// IsUnique is set once at insert time when no prior event exists
	// for the same (campaign, target, event type) triple. It is never
	// recomputed.
	IsUnique  bool
	Processed bool
}

// NewEvent creates an event with a fresh tracking token and classified
// user-agent info. IsUnique is left for the recorder to set after the
// prior-existence check.
func NewEvent(campaignID shared.ID, targetID *shared.ID, eventType EventType, ctx RequestContext) (*Event, error) {
	if campaignID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "campaign id is required", shared.ErrValidation)
	}
	if !eventType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "unknown event type "+string(eventType), shared.ErrValidation)
	}

	browser, device := ClassifyUserAgent(ctx.UserAgent)
	return &Event{
		ID:            shared.NewID(),
		CampaignID:    campaignID,
		TargetID:      targetID,
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		IPAddress:     ctx.IPAddress,
		UserAgent:     ctx.UserAgent,
		Referrer:      ctx.Referrer,
		SessionID:     ctx.SessionID,
		Browser:       browser,
		Device:        device,
		EventData:     map[string]string{},
		TrackingToken: NewToken(),
	}, nil
}

// MarkProcessed flips the processed flag.
func (e *Event) MarkProcessed() {
	e.Processed = true
}

// NewToken returns a URL-safe random tracking token.
func NewToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("tracking: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
