package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phishsim/api/pkg/domain/campaign"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// CampaignRepository implements campaign.Repository using PostgreSQL.
type CampaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new CampaignRepository.
func NewCampaignRepository(db *DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) selectQuery() string {
	return `
		SELECT
			id, name, description, type, status,
			auto_start, track_opens, track_clicks, scheduled_at,
			created_by, created_at, updated_at, started_at, ended_at
		FROM campaigns
	`
}

func (r *CampaignRepository) scanCampaign(row interface{ Scan(...any) error }) (*campaign.Campaign, error) {
	var (
		id          string
		name        string
		description sql.NullString
		cType       string
		status      string
		autoStart   bool
		trackOpens  bool
		trackClicks bool
		scheduledAt sql.NullTime
		createdBy   string
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
		startedAt   sql.NullTime
		endedAt     sql.NullTime
	)

	err := row.Scan(
		&id, &name, &description, &cType, &status,
		&autoStart, &trackOpens, &trackClicks, &scheduledAt,
		&createdBy, &createdAt, &updatedAt, &startedAt, &endedAt,
	)
	if err != nil {
		return nil, err
	}

	c := &campaign.Campaign{
		Name:        name,
		Description: nullStringValue(description),
		Type:        campaign.Type(cType),
		Status:      campaign.Status(status),
		AutoStart:   autoStart,
		TrackOpens:  trackOpens,
		TrackClicks: trackClicks,
		ScheduledAt: nullTimeValue(scheduledAt),
		CreatedBy:   createdBy,
		StartedAt:   nullTimeValue(startedAt),
		EndedAt:     nullTimeValue(endedAt),
	}
	c.ID, _ = shared.IDFromString(id)
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return c, nil
}

// Create persists a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) error {
	query := `
		INSERT INTO campaigns (
			id, name, description, type, status,
			auto_start, track_opens, track_clicks, scheduled_at,
			created_by, created_at, updated_at, started_at, ended_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		c.ID.String(),
		c.Name,
		nullString(c.Description),
		c.Type.String(),
		c.Status.String(),
		c.AutoStart,
		c.TrackOpens,
		c.TrackClicks,
		nullTime(c.ScheduledAt),
		c.CreatedBy,
		c.CreatedAt,
		c.UpdatedAt,
		nullTime(c.StartedAt),
		nullTime(c.EndedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: campaign already exists", shared.ErrConflict)
		}
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetByID returns a campaign by ID.
func (r *CampaignRepository) GetByID(ctx context.Context, id shared.ID) (*campaign.Campaign, error) {
	query := r.selectQuery() + " WHERE id = $1"

	row := r.db.QueryRowContext(ctx, query, id.String())
	c, err := r.scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: campaign not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return c, nil
}

// List returns campaigns matching the filter with pagination.
func (r *CampaignRepository) List(ctx context.Context, filter campaign.Filter, page pagination.Pagination) (*pagination.Result[*campaign.Campaign], error) {
	var conditions []string
	var args []any
	argIdx := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status.String())
		argIdx++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, filter.Type.String())
		argIdx++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx))
		args = append(args, wrapLikePattern(filter.Search))
		argIdx++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM campaigns" + whereClause
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count campaigns: %w", err)
	}

	query := r.selectQuery() + whereClause + " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*campaign.Campaign
	for rows.Next() {
		c, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	result := pagination.NewResult(campaigns, total, page)
	return &result, nil
}

// ListScheduled returns draft campaigns with auto-start scheduling
// enabled, oldest schedule first.
func (r *CampaignRepository) ListScheduled(ctx context.Context, limit int) ([]*campaign.Campaign, error) {
	query := r.selectQuery() + `
		WHERE status = 'draft' AND auto_start = TRUE AND scheduled_at IS NOT NULL
		ORDER BY scheduled_at ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*campaign.Campaign
	for rows.Next() {
		c, err := r.scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled campaigns: %w", err)
	}
	return campaigns, nil
}

// Update persists campaign changes.
func (r *CampaignRepository) Update(ctx context.Context, c *campaign.Campaign) error {
	query := `
		UPDATE campaigns SET
			name = $2,
			description = $3,
			type = $4,
			status = $5,
			auto_start = $6,
			track_opens = $7,
			track_clicks = $8,
			scheduled_at = $9,
			updated_at = $10,
			started_at = $11,
			ended_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID.String(),
		c.Name,
		nullString(c.Description),
		c.Type.String(),
		c.Status.String(),
		c.AutoStart,
		c.TrackOpens,
		c.TrackClicks,
		nullTime(c.ScheduledAt),
		c.UpdatedAt,
		nullTime(c.StartedAt),
		nullTime(c.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: campaign not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a campaign. Targets, events and credentials cascade
// at the schema level.
func (r *CampaignRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM campaigns WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: campaign not found", shared.ErrNotFound)
	}
	return nil
}

// Stats returns the aggregated rollup of one campaign. Counts are per
// distinct target so repeated events do not inflate the rates.
func (r *CampaignRepository) Stats(ctx context.Context, id shared.ID) (*campaign.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM targets WHERE campaign_id = $1),
			(SELECT COUNT(DISTINCT target_id) FROM tracking_events
				WHERE campaign_id = $1 AND event_type = 'email_sent' AND target_id IS NOT NULL),
			(SELECT COUNT(DISTINCT target_id) FROM tracking_events
				WHERE campaign_id = $1 AND event_type = 'sms_sent' AND target_id IS NOT NULL),
			(SELECT COUNT(DISTINCT target_id) FROM tracking_events
				WHERE campaign_id = $1 AND event_type = 'email_opened' AND target_id IS NOT NULL),
			(SELECT COUNT(DISTINCT target_id) FROM tracking_events
				WHERE campaign_id = $1 AND event_type = 'link_clicked' AND target_id IS NOT NULL),
			(SELECT COUNT(DISTINCT target_id) FROM captured_credentials WHERE campaign_id = $1)
	`

	stats := &campaign.Stats{CampaignID: id}
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&stats.TargetCount,
		&stats.EmailsSent,
		&stats.SMSSent,
		&stats.EmailsOpened,
		&stats.LinksClicked,
		&stats.CredentialsCaptured,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	contacted := stats.EmailsSent + stats.SMSSent
	if contacted > 0 {
		stats.OpenRate = float64(stats.EmailsOpened) / float64(contacted) * 100
		stats.ClickRate = float64(stats.LinksClicked) / float64(contacted) * 100
		stats.CaptureRate = float64(stats.CredentialsCaptured) / float64(contacted) * 100
	}
	return stats, nil
}
