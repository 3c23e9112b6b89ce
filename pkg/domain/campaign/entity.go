package campaign

import (
	"strings"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
)

// Campaign represents a phishing-simulation campaign. It owns targets,
// tracking events and captured credentials; deleting a campaign cascades
// to all three.
type Campaign struct {
	ID          shared.ID
	Name        string
	Description string

	Type   Type
	Status Status

	// Settings
	AutoStart   bool
	TrackOpens  bool
	TrackClicks bool

	// Scheduling (optional). When ScheduledAt is set and AutoStart is
	// enabled, the scheduler starts the campaign once the time passes.
	ScheduledAt *time.Time

	CreatedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
}

// NewCampaign creates a new draft campaign.
func NewCampaign(name string, campaignType Type, description string) (*Campaign, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return nil, shared.NewDomainError("VALIDATION", "campaign name must be at least 3 characters", shared.ErrValidation)
	}
	if !campaignType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "campaign type must be email, sms or both", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Campaign{
		ID:          shared.NewID(),
		Name:        name,
		Description: description,
		Type:        campaignType,
		Status:      StatusDraft,
		TrackOpens:  true,
		TrackClicks: true,
		CreatedBy:   "admin",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsActive returns true if the campaign is currently active.
func (c *Campaign) IsActive() bool {
	return c.Status == StatusActive
}

// IsCompleted returns true if the campaign has been completed.
func (c *Campaign) IsCompleted() bool {
	return c.Status == StatusCompleted
}

// Duration returns the elapsed time between start and end. For running
// campaigns the duration is measured against now.
func (c *Campaign) Duration() *time.Duration {
	if c.StartedAt == nil {
		return nil
	}
	end := time.Now().UTC()
	if c.EndedAt != nil {
		end = *c.EndedAt
	}
	d := end.Sub(*c.StartedAt)
	return &d
}

// Start transitions the campaign from draft to active. It fails when the
// campaign is not a draft or has no targets.
func (c *Campaign) Start(targetCount int) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("CONFLICT", "cannot start campaign with status "+c.Status.String(), shared.ErrConflict)
	}
	if targetCount == 0 {
		return shared.NewDomainError("VALIDATION", "cannot start campaign without targets", shared.ErrValidation)
	}

	now := time.Now().UTC()
	c.Status = StatusActive
	c.StartedAt = &now
	c.UpdatedAt = now
	return nil
}

// Pause transitions the campaign from active to paused.
func (c *Campaign) Pause() error {
	if c.Status != StatusActive {
		return shared.NewDomainError("CONFLICT", "cannot pause campaign with status "+c.Status.String(), shared.ErrConflict)
	}
	c.Status = StatusPaused
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Resume transitions the campaign from paused back to active.
func (c *Campaign) Resume() error {
	if c.Status != StatusPaused {
		return shared.NewDomainError("CONFLICT", "cannot resume campaign with status "+c.Status.String(), shared.ErrConflict)
	}
	c.Status = StatusActive
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete transitions the campaign from active or paused to completed
// and records the end timestamp. Completed is terminal.
func (c *Campaign) Complete() error {
	if c.Status != StatusActive && c.Status != StatusPaused {
		return shared.NewDomainError("CONFLICT", "cannot complete campaign with status "+c.Status.String(), shared.ErrConflict)
	}
	now := time.Now().UTC()
	c.Status = StatusCompleted
	c.EndedAt = &now
	c.UpdatedAt = now
	return nil
}

// Rename updates the campaign name.
func (c *Campaign) Rename(name string) error {
	name = strings.TrimSpace(name)
	if len(name) < 3 {
		return shared.NewDomainError("VALIDATION", "campaign name must be at least 3 characters", shared.ErrValidation)
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDescription updates the campaign description.
func (c *Campaign) SetDescription(description string) {
	c.Description = description
	c.UpdatedAt = time.Now().UTC()
}

// SetType changes the delivery channel. The channel is locked once the
// campaign leaves draft.
func (c *Campaign) SetType(t Type) error {
	if !t.IsValid() {
		return shared.NewDomainError("VALIDATION", "campaign type must be email, sms or both", shared.ErrValidation)
	}
	if c.Status != StatusDraft {
		return shared.NewDomainError("CONFLICT", "cannot change type of a "+c.Status.String()+" campaign", shared.ErrConflict)
	}
	c.Type = t
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// SetTracking updates the open/click tracking settings.
func (c *Campaign) SetTracking(trackOpens, trackClicks bool) {
	c.TrackOpens = trackOpens
	c.TrackClicks = trackClicks
	c.UpdatedAt = time.Now().UTC()
}

// SetSchedule sets the scheduled auto-start time.
func (c *Campaign) SetSchedule(at *time.Time) error {
	if c.Status != StatusDraft {
		return shared.NewDomainError("CONFLICT", "cannot schedule a "+c.Status.String()+" campaign", shared.ErrConflict)
	}
	c.ScheduledAt = at
	c.AutoStart = at != nil
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsDueForStart returns true if a scheduled draft campaign should be
// auto-started.
func (c *Campaign) IsDueForStart(now time.Time) bool {
	if c.Status != StatusDraft || !c.AutoStart || c.ScheduledAt == nil {
		return false
	}
	return !now.Before(*c.ScheduledAt)
}
