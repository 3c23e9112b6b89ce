package credential

import (
	"context"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// Filter narrows credential listings.
type Filter struct {
	CampaignID shared.ID
	TargetID   *shared.ID
	Flagged    *bool
	MinRisk    *int
}

// StrengthBreakdown counts credentials per strength level for a
// campaign.
type StrengthBreakdown map[Strength]int

// PasswordCount is one row of the most-used-passwords rollup. The
// password is grouped case-insensitively.
type PasswordCount struct {
	Password string
	Count    int
}

// Repository defines the persistence contract for captured
// credentials.
type Repository interface {
	Create(ctx context.Context, c *Credential) error
	GetByID(ctx context.Context, id shared.ID) (*Credential, error)
	List(ctx context.Context, filter Filter, p pagination.Pagination) (*pagination.Result[*Credential], error)
	ListByCampaign(ctx context.Context, campaignID shared.ID) ([]*Credential, error)

	// ExistsForTarget reports whether a prior capture exists for the
	// (campaign, target) pair. Used for duplicate detection.
	ExistsForTarget(ctx context.Context, campaignID, targetID shared.ID) (bool, error)

	// CountDistinctTargets counts distinct targets with at least one
	// captured credential in the campaign.
	CountDistinctTargets(ctx context.Context, campaignID shared.ID) (int, error)

	// CountByCampaign counts all capture rows of a campaign, duplicates
	// included. Feeds the funnel's credentials_entered step.
	CountByCampaign(ctx context.Context, campaignID shared.ID) (int, error)
	StrengthBreakdown(ctx context.Context, campaignID shared.ID) (StrengthBreakdown, error)
	AverageRiskScore(ctx context.Context, campaignID shared.ID) (float64, error)
	CountFlagged(ctx context.Context, campaignID shared.ID) (int, error)
	CountCommon(ctx context.Context, campaignID shared.ID) (int, error)
	CountHighRisk(ctx context.Context, campaignID shared.ID, threshold int) (int, error)
	TopPasswords(ctx context.Context, campaignID shared.ID, limit int) ([]PasswordCount, error)

	Update(ctx context.Context, c *Credential) error
}
