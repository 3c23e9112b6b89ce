package credential

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
)

// CaptureContext carries the client signals recorded alongside a
// capture.
type CaptureContext struct {
	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string
	PageURL   string
}

// Credential is one capture attempt. The raw password is held in
// clear for training-analysis purposes alongside its SHA-256 digest.
// Rows are append-only; only the processed/notified/flagged markers
// mutate after insert.
type Credential struct {
	ID         shared.ID
	CampaignID shared.ID
	TargetID   shared.ID

	Username     string
	Password     string
	PasswordHash string

	CapturedAt time.Time

	IPAddress string
	UserAgent string
	Referrer  string
	SessionID string
	PageURL   string
	FormData  map[string]string

	PasswordStrength Strength
	IsCommonPassword bool
	CredentialType   Type
	IsRealCredential bool
	RiskScore        int
	FlaggedForReview bool

	Processed bool
	Notified  bool
}

// NewCredential creates a capture record and applies the analysis
// fields. Username and password must already be sanitized.
func NewCredential(campaignID, targetID shared.ID, username, password string, a Analysis, ctx CaptureContext) *Credential {
	return &Credential{
		ID:           shared.NewID(),
		CampaignID:   campaignID,
		TargetID:     targetID,
		Username:     username,
		Password:     password,
		PasswordHash: HashPassword(password),
		CapturedAt:   time.Now().UTC(),
		IPAddress:    ctx.IPAddress,
		UserAgent:    ctx.UserAgent,
		Referrer:     ctx.Referrer,
		SessionID:    ctx.SessionID,
		PageURL:      ctx.PageURL,
		FormData:     map[string]string{},

		PasswordStrength: a.PasswordStrength,
		IsCommonPassword: a.IsCommonPassword,
		CredentialType:   a.CredentialType,
		IsRealCredential: a.IsRealCredential,
		RiskScore:        a.RiskScore,
		FlaggedForReview: a.FlaggedForReview,
	}
}

// HashPassword returns the hex SHA-256 digest of the password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsSuspicious reports whether the risk score crossed the alert
// threshold.
func (c *Credential) IsSuspicious() bool {
	return c.RiskScore > SuspiciousThreshold
}

// MarkProcessed flips the processed flag.
func (c *Credential) MarkProcessed() {
	c.Processed = true
}

// MarkNotified records that the target was notified.
func (c *Credential) MarkNotified() {
	c.Notified = true
}

// FlagForReview marks the credential for manual review, recording the
// reason in the form data when given.
func (c *Credential) FlagForReview(reason string) {
	c.FlaggedForReview = true
	if reason != "" {
		if c.FormData == nil {
			c.FormData = map[string]string{}
		}
		c.FormData["flag_reason"] = reason
	}
}
