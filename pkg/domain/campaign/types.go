package campaign

// Type represents the delivery channel of a campaign.
type Type string

// Campaign types.
const (
	TypeEmail Type = "email"
	TypeSMS   Type = "sms"
	TypeBoth  Type = "both"
)

// IsValid returns true if the type is a known campaign type.
func (t Type) IsValid() bool {
	switch t {
	case TypeEmail, TypeSMS, TypeBoth:
		return true
	}
	return false
}

// UsesEmail returns true if the campaign delivers over email.
func (t Type) UsesEmail() bool {
	return t == TypeEmail || t == TypeBoth
}

// UsesSMS returns true if the campaign delivers over SMS.
func (t Type) UsesSMS() bool {
	return t == TypeSMS || t == TypeBoth
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// Status represents the lifecycle status of a campaign.
type Status string

// Campaign statuses. A campaign starts as draft, moves to active,
// may bounce between active and paused, and ends as completed.
// Completed is terminal.
const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// IsValid returns true if the status is a known campaign status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// IsTerminal returns true if no transition may leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}
