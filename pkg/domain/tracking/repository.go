package tracking

import (
	"context"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// Filter narrows event listings.
type Filter struct {
	CampaignID shared.ID
	TargetID   *shared.ID
	Type       EventType
	Since      *time.Time
	Until      *time.Time
}

// HourlyCount is one bucket of the hourly activity aggregate.
type HourlyCount struct {
	Hour  time.Time `json:"hour"`
	Count int       `json:"count"`
}

// Repository defines the persistence contract for tracking events.
type Repository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id shared.ID) (*Event, error)
	GetByToken(ctx context.Context, token string) (*Event, error)
	List(ctx context.Context, filter Filter, p pagination.Pagination) (*pagination.Result[*Event], error)
	ListByTarget(ctx context.Context, campaignID, targetID shared.ID) ([]*Event, error)

	// Exists reports whether an event already exists for the triple.
	// A nil targetID matches only events with no target.
	Exists(ctx context.Context, campaignID shared.ID, targetID *shared.ID, eventType EventType) (bool, error)

	// CountDistinctTargets counts distinct non-null target ids with at
	// least one event of the given type in the campaign.
	CountDistinctTargets(ctx context.Context, campaignID shared.ID, eventType EventType) (int, error)

	// FirstByType returns the chronologically first event of the type
	// for the target, or ErrNotFound.
	FirstByType(ctx context.Context, campaignID, targetID shared.ID, eventType EventType) (*Event, error)

	HourlyActivity(ctx context.Context, campaignID shared.ID, since time.Time) ([]HourlyCount, error)
	CountByDeviceType(ctx context.Context, campaignID shared.ID) (map[string]int, error)
	MarkProcessed(ctx context.Context, id shared.ID) error
}
