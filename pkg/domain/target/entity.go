// Package target models a campaign recipient and the monotonic
// engagement flags maintained by the tracking pipeline.
package target

import (
	"strings"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
)

// Status is the derived lifecycle state of a target, computed from its
// engagement flags.
type Status string

const (
	StatusPending            Status = "pending"
	StatusContacted          Status = "contacted"
	StatusClickedLink        Status = "clicked_link"
	StatusCredentialsEntered Status = "credentials_entered"
)

// Target is a recipient of a phishing-simulation campaign. The four
// engagement flags are a denormalized cache of "has at least one event
// of this type" and are set exactly once, never unset.
type Target struct {
	ID         shared.ID
	CampaignID shared.ID

	Email     string
	Phone     string
	FirstName string
	LastName  string
	Company   string
	Position  string
	Notes     string

	EmailSent          bool
	SMSSent            bool
	ClickedLink        bool
	EnteredCredentials bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTarget creates a target for a campaign. Email is normalized to
// lower case.
func NewTarget(campaignID shared.ID, email string) (*Target, error) {
	if campaignID.IsZero() {
		return nil, shared.NewDomainError("VALIDATION", "campaign id is required", shared.ErrValidation)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if !validEmail(email) {
		return nil, shared.NewDomainError("VALIDATION", "invalid email address", shared.ErrValidation)
	}

	now := time.Now().UTC()
	return &Target{
		ID:         shared.NewID(),
		CampaignID: campaignID,
		Email:      email,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func validEmail(email string) bool {
	if len(email) < 3 || len(email) > 254 {
		return false
	}
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return !strings.ContainsAny(email, " \t\r\n")
}

// FullName returns the target's full name, or an empty string when no
// name fields are set.
func (t *Target) FullName() string {
	switch {
	case t.FirstName != "" && t.LastName != "":
		return t.FirstName + " " + t.LastName
	case t.FirstName != "":
		return t.FirstName
	default:
		return t.LastName
	}
}

// DisplayName returns the full name, falling back to the email address.
func (t *Target) DisplayName() string {
	if name := t.FullName(); name != "" {
		return name
	}
	return t.Email
}

// Status derives the target's lifecycle state from its engagement
// flags. Credentials win over clicks, clicks over contact.
func (t *Target) Status() Status {
	switch {
	case t.EnteredCredentials:
		return StatusCredentialsEntered
	case t.ClickedLink:
		return StatusClickedLink
	case t.EmailSent || t.SMSSent:
		return StatusContacted
	default:
		return StatusPending
	}
}

// EngagementScore returns a 0-100 score weighting credential entry and
// clicks above plain delivery.
func (t *Target) EngagementScore() int {
	score := 0
	if t.EmailSent {
		score += 10
	}
	if t.SMSSent {
		score += 10
	}
	if t.ClickedLink {
		score += 40
	}
	if t.EnteredCredentials {
		score += 40
	}
	if score > 100 {
		score = 100
	}
	return score
}

// MarkEmailSent flips the email_sent flag. The flags are monotonic so
// repeated calls are no-ops.
func (t *Target) MarkEmailSent() {
	if t.EmailSent {
		return
	}
	t.EmailSent = true
	t.UpdatedAt = time.Now().UTC()
}

// MarkSMSSent flips the sms_sent flag.
func (t *Target) MarkSMSSent() {
	if t.SMSSent {
		return
	}
	t.SMSSent = true
	t.UpdatedAt = time.Now().UTC()
}

// MarkLinkClicked flips the clicked_link flag.
func (t *Target) MarkLinkClicked() {
	if t.ClickedLink {
		return
	}
	t.ClickedLink = true
	t.UpdatedAt = time.Now().UTC()
}

// MarkCredentialsEntered flips the entered_credentials flag.
func (t *Target) MarkCredentialsEntered() {
	if t.EnteredCredentials {
		return
	}
	t.EnteredCredentials = true
	t.UpdatedAt = time.Now().UTC()
}

// ProfileUpdate enumerates the mutable profile fields. Nil pointers
// leave the field unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Company   *string
	Position  *string
	Phone     *string
	Notes     *string
}

// UpdateProfile applies the non-nil fields of the update. It reports
// whether anything changed.
func (t *Target) UpdateProfile(u ProfileUpdate) bool {
	changed := false
	apply := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v != *dst {
			*dst = v
			changed = true
		}
	}
	apply(&t.FirstName, u.FirstName)
	apply(&t.LastName, u.LastName)
	apply(&t.Company, u.Company)
	apply(&t.Position, u.Position)
	apply(&t.Phone, u.Phone)
	apply(&t.Notes, u.Notes)

	if changed {
		t.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// FromCSVRow builds a target from an import row laid out as
// email,first_name,last_name,company,position,phone. Only email is
// required; trailing columns may be absent.
func FromCSVRow(campaignID shared.ID, row []string) (*Target, error) {
	if len(row) == 0 {
		return nil, shared.NewDomainError("VALIDATION", "empty csv row", shared.ErrValidation)
	}
	t, err := NewTarget(campaignID, row[0])
	if err != nil {
		return nil, err
	}
	field := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	t.FirstName = field(1)
	t.LastName = field(2)
	t.Company = field(3)
	t.Position = field(4)
	t.Phone = field(5)
	return t, nil
}

// CSVRow renders the target as an export row matching the import
// layout, with the derived status appended.
func (t *Target) CSVRow() []string {
	return []string{
		t.Email,
		t.FirstName,
		t.LastName,
		t.Company,
		t.Position,
		t.Phone,
		string(t.Status()),
	}
}
