// Package tracking models behavioral events recorded against campaign
// targets and the derived funnel and journey views.
package tracking

// EventType classifies a behavioral event.
type EventType string

const (
	EventEmailSent          EventType = "email_sent"
	EventSMSSent            EventType = "sms_sent"
	EventEmailOpened        EventType = "email_opened"
	EventLinkClicked        EventType = "link_clicked"
	EventPageVisited        EventType = "page_visited"
	EventFormViewed         EventType = "form_viewed"
	EventCredentialsEntered EventType = "credentials_entered"
	EventFormSubmitted      EventType = "form_submitted"
	EventDownloadClicked    EventType = "download_clicked"
	EventAttachmentOpened   EventType = "attachment_opened"
	EventRedirectFollowed   EventType = "redirect_followed"
)

// AllEventTypes lists every known event type.
var AllEventTypes = []EventType{
	EventEmailSent,
	EventSMSSent,
	EventEmailOpened,
	EventLinkClicked,
	EventPageVisited,
	EventFormViewed,
	EventCredentialsEntered,
	EventFormSubmitted,
	EventDownloadClicked,
	EventAttachmentOpened,
	EventRedirectFollowed,
}

// FunnelSteps is the fixed conversion funnel order. The
// credentials_entered step is counted from the credential store, all
// others from distinct targets per event type.
var FunnelSteps = []EventType{
	EventEmailSent,
	EventEmailOpened,
	EventLinkClicked,
	EventPageVisited,
	EventFormViewed,
	EventCredentialsEntered,
}

// IsValid reports whether t is a known event type.
func (t EventType) IsValid() bool {
	for _, known := range AllEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsConversion reports whether the event is a credential capture.
func (t EventType) IsConversion() bool {
	return t == EventCredentialsEntered
}

// IsEngagement reports whether the event indicates the target engaged
// with the lure beyond delivery.
func (t EventType) IsEngagement() bool {
	switch t {
	case EventEmailOpened, EventLinkClicked, EventPageVisited, EventFormViewed, EventCredentialsEntered:
		return true
	}
	return false
}

func (t EventType) String() string { return string(t) }
