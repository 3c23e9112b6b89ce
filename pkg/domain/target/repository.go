package target

import (
	"context"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// Filter narrows target listings within a campaign.
type Filter struct {
	CampaignID shared.ID
	Status     Status
	Search     string
}

// Repository defines the persistence contract for targets.
type Repository interface {
	Create(ctx context.Context, t *Target) error
	CreateBatch(ctx context.Context, ts []*Target) error
	GetByID(ctx context.Context, id shared.ID) (*Target, error)
	GetByEmail(ctx context.Context, campaignID shared.ID, email string) (*Target, error)
	List(ctx context.Context, filter Filter, p pagination.Pagination) (*pagination.Result[*Target], error)
	ListByCampaign(ctx context.Context, campaignID shared.ID) ([]*Target, error)
	CountByCampaign(ctx context.Context, campaignID shared.ID) (int, error)
	Update(ctx context.Context, t *Target) error
	Delete(ctx context.Context, id shared.ID) error
}
