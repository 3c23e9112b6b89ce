package campaign

import (
	"context"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// Filter narrows campaign listings.
type Filter struct {
	Status Status
	Type   Type
	Search string
}

// Stats is the aggregated per-campaign rollup used by list and detail
// views.
type Stats struct {
	CampaignID          shared.ID `json:"campaign_id"`
	TargetCount         int       `json:"target_count"`
	EmailsSent          int       `json:"emails_sent"`
	SMSSent             int       `json:"sms_sent"`
	EmailsOpened        int       `json:"emails_opened"`
	LinksClicked        int       `json:"links_clicked"`
	CredentialsCaptured int       `json:"credentials_captured"`
	OpenRate            float64   `json:"open_rate"`
	ClickRate           float64   `json:"click_rate"`
	CaptureRate         float64   `json:"capture_rate"`
}

// Repository defines the persistence contract for campaigns.
type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id shared.ID) (*Campaign, error)
	List(ctx context.Context, filter Filter, p pagination.Pagination) (*pagination.Result[*Campaign], error)
	ListScheduled(ctx context.Context, limit int) ([]*Campaign, error)
	Update(ctx context.Context, c *Campaign) error
	Delete(ctx context.Context, id shared.ID) error
	Stats(ctx context.Context, id shared.ID) (*Stats, error)
}
