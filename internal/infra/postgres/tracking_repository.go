package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/tracking"
	"github.com/phishsim/api/pkg/pagination"
)

// TrackingRepository implements tracking.Repository using PostgreSQL.
type TrackingRepository struct {
	db *DB
}

// NewTrackingRepository creates a new TrackingRepository.
func NewTrackingRepository(db *DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

func (r *TrackingRepository) selectQuery() string {
	return `
		SELECT
			id, campaign_id, target_id, event_type, occurred_at,
			ip_address, user_agent, referrer, session_id,
			browser_name, browser_engine,
			device_type, device_os, is_mobile, is_tablet,
			location, event_data, tracking_token, is_unique, processed
		FROM tracking_events
	`
}

func (r *TrackingRepository) scanEvent(row interface{ Scan(...any) error }) (*tracking.Event, error) {
	var (
		id            string
		campaignID    string
		targetID      sql.NullString
		eventType     string
		occurredAt    time.Time
		ipAddress     sql.NullString
		userAgent     sql.NullString
		referrer      sql.NullString
		sessionID     sql.NullString
		browserName   string
		browserEngine string
		deviceType    string
		deviceOS      string
		isMobile      bool
		isTablet      bool
		location      []byte
		eventData     []byte
		trackingToken string
		isUnique      bool
		processed     bool
	)

	err := row.Scan(
		&id, &campaignID, &targetID, &eventType, &occurredAt,
		&ipAddress, &userAgent, &referrer, &sessionID,
		&browserName, &browserEngine,
		&deviceType, &deviceOS, &isMobile, &isTablet,
		&location, &eventData, &trackingToken, &isUnique, &processed,
	)
	if err != nil {
		return nil, err
	}

	e := &tracking.Event{
		Type:      tracking.EventType(eventType),
		Timestamp: occurredAt,
		IPAddress: nullStringValue(ipAddress),
		UserAgent: nullStringValue(userAgent),
		Referrer:  nullStringValue(referrer),
		SessionID: nullStringValue(sessionID),
		Browser: tracking.BrowserInfo{
			Name:   browserName,
			Engine: browserEngine,
		},
		Device: tracking.DeviceInfo{
			Type:     deviceType,
			OS:       deviceOS,
			IsMobile: isMobile,
			IsTablet: isTablet,
		},
		Location:      unmarshalMap(location),
		EventData:     unmarshalMap(eventData),
		TrackingToken: trackingToken,
		IsUnique:      isUnique,
		Processed:     processed,
	}
	e.ID, _ = shared.IDFromString(id)
	e.CampaignID, _ = shared.IDFromString(campaignID)
	e.TargetID = parseNullID(targetID)
	return e, nil
}

// Create persists a new tracking event.
func (r *TrackingRepository) Create(ctx context.Context, e *tracking.Event) error {
	location, err := marshalMap(e.Location)
	if err != nil {
		return fmt.Errorf("failed to encode location: %w", err)
	}
	eventData, err := marshalMap(e.EventData)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	query := `
		INSERT INTO tracking_events (
			id, campaign_id, target_id, event_type, occurred_at,
			ip_address, user_agent, referrer, session_id,
			browser_name, browser_engine,
			device_type, device_os, is_mobile, is_tablet,
			location, event_data, tracking_token, is_unique, processed
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		e.ID.String(),
		e.CampaignID.String(),
		nullID(e.TargetID),
		e.Type.String(),
		e.Timestamp,
		nullString(e.IPAddress),
		nullString(e.UserAgent),
		nullString(e.Referrer),
		nullString(e.SessionID),
		e.Browser.Name,
		e.Browser.Engine,
		e.Device.Type,
		e.Device.OS,
		e.Device.IsMobile,
		e.Device.IsTablet,
		location,
		eventData,
		e.TrackingToken,
		e.IsUnique,
		e.Processed,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracking event: %w", err)
	}
	return nil
}

// GetByID returns an event by ID.
func (r *TrackingRepository) GetByID(ctx context.Context, id shared.ID) (*tracking.Event, error) {
	row := r.db.QueryRowContext(ctx, r.selectQuery()+" WHERE id = $1", id.String())
	e, err := r.scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tracking event not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tracking event: %w", err)
	}
	return e, nil
}

// GetByToken returns an event by its tracking token.
func (r *TrackingRepository) GetByToken(ctx context.Context, token string) (*tracking.Event, error) {
	row := r.db.QueryRowContext(ctx, r.selectQuery()+" WHERE tracking_token = $1", token)
	e, err := r.scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: tracking event not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get tracking event by token: %w", err)
	}
	return e, nil
}

// List returns events matching the filter, newest first.
func (r *TrackingRepository) List(ctx context.Context, filter tracking.Filter, page pagination.Pagination) (*pagination.Result[*tracking.Event], error) {
	conditions := []string{"campaign_id = $1"}
	args := []any{filter.CampaignID.String()}
	argIdx := 2

	if filter.TargetID != nil {
		conditions = append(conditions, fmt.Sprintf("target_id = $%d", argIdx))
		args = append(args, filter.TargetID.String())
		argIdx++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("event_type = $%d", argIdx))
		args = append(args, filter.Type.String())
		argIdx++
	}
	if filter.Since != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at >= $%d", argIdx))
		args = append(args, *filter.Since)
		argIdx++
	}
	if filter.Until != nil {
		conditions = append(conditions, fmt.Sprintf("occurred_at < $%d", argIdx))
		args = append(args, *filter.Until)
		argIdx++
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM tracking_events" + whereClause
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tracking events: %w", err)
	}

	query := r.selectQuery() + whereClause + " ORDER BY occurred_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking events: %w", err)
	}
	defer rows.Close()

	var events []*tracking.Event
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tracking events: %w", err)
	}

	result := pagination.NewResult(events, total, page)
	return &result, nil
}

// ListByTarget returns a target's events in chronological order.
func (r *TrackingRepository) ListByTarget(ctx context.Context, campaignID, targetID shared.ID) ([]*tracking.Event, error) {
	query := r.selectQuery() + " WHERE campaign_id = $1 AND target_id = $2 ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, query, campaignID.String(), targetID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list target events: %w", err)
	}
	defer rows.Close()

	var events []*tracking.Event
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate target events: %w", err)
	}
	return events, nil
}

// Exists reports whether an event exists for the (campaign, target,
// type) triple. A nil target matches only anonymous events.
func (r *TrackingRepository) Exists(ctx context.Context, campaignID shared.ID, targetID *shared.ID, eventType tracking.EventType) (bool, error) {
	var query string
	var args []any

	if targetID == nil {
		query = "SELECT EXISTS (SELECT 1 FROM tracking_events WHERE campaign_id = $1 AND target_id IS NULL AND event_type = $2)"
		args = []any{campaignID.String(), eventType.String()}
	} else {
		query = "SELECT EXISTS (SELECT 1 FROM tracking_events WHERE campaign_id = $1 AND target_id = $2 AND event_type = $3)"
		args = []any{campaignID.String(), targetID.String(), eventType.String()}
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check event existence: %w", err)
	}
	return exists, nil
}

// CountDistinctTargets counts distinct targets with at least one event
// of the type.
func (r *TrackingRepository) CountDistinctTargets(ctx context.Context, campaignID shared.ID, eventType tracking.EventType) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT target_id) FROM tracking_events WHERE campaign_id = $1 AND event_type = $2 AND target_id IS NOT NULL",
		campaignID.String(), eventType.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct targets: %w", err)
	}
	return count, nil
}

// FirstByType returns the chronologically first event of the type for
// the target.
func (r *TrackingRepository) FirstByType(ctx context.Context, campaignID, targetID shared.ID, eventType tracking.EventType) (*tracking.Event, error) {
	query := r.selectQuery() + `
		WHERE campaign_id = $1 AND target_id = $2 AND event_type = $3
		ORDER BY occurred_at ASC
		LIMIT 1
	`

	row := r.db.QueryRowContext(ctx, query, campaignID.String(), targetID.String(), eventType.String())
	e, err := r.scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no %s event for target", shared.ErrNotFound, eventType)
		}
		return nil, fmt.Errorf("failed to get first event: %w", err)
	}
	return e, nil
}

// HourlyActivity returns per-hour event counts since the given time.
func (r *TrackingRepository) HourlyActivity(ctx context.Context, campaignID shared.ID, since time.Time) ([]tracking.HourlyCount, error) {
	query := `
		SELECT date_trunc('hour', occurred_at) AS hour, COUNT(*)
		FROM tracking_events
		WHERE campaign_id = $1 AND occurred_at >= $2
		GROUP BY hour
		ORDER BY hour ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly activity: %w", err)
	}
	defer rows.Close()

	var counts []tracking.HourlyCount
	for rows.Next() {
		var hc tracking.HourlyCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly count: %w", err)
		}
		counts = append(counts, hc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hourly counts: %w", err)
	}
	return counts, nil
}

// CountByDeviceType returns event counts grouped by device type.
func (r *TrackingRepository) CountByDeviceType(ctx context.Context, campaignID shared.ID) (map[string]int, error) {
	query := `
		SELECT device_type, COUNT(*)
		FROM tracking_events
		WHERE campaign_id = $1
		GROUP BY device_type
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query device stats: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var deviceType string
		var count int
		if err := rows.Scan(&deviceType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan device count: %w", err)
		}
		counts[deviceType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate device counts: %w", err)
	}
	return counts, nil
}

// MarkProcessed flips the processed flag of an event.
func (r *TrackingRepository) MarkProcessed(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE tracking_events SET processed = TRUE WHERE id = $1",
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: tracking event not found", shared.ErrNotFound)
	}
	return nil
}
