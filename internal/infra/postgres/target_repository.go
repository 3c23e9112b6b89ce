package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/pagination"
)

// TargetRepository implements target.Repository using PostgreSQL.
type TargetRepository struct {
	db *DB
}

// NewTargetRepository creates a new TargetRepository.
func NewTargetRepository(db *DB) *TargetRepository {
	return &TargetRepository{db: db}
}

func (r *TargetRepository) selectQuery() string {
	return `
		SELECT
			id, campaign_id, email, phone, first_name, last_name,
			company, position, notes,
			email_sent, sms_sent, clicked_link, entered_credentials,
			created_at, updated_at
		FROM targets
	`
}

func (r *TargetRepository) scanTarget(row interface{ Scan(...any) error }) (*target.Target, error) {
	var (
		id                 string
		campaignID         string
		email              string
		phone              sql.NullString
		firstName          sql.NullString
		lastName           sql.NullString
		company            sql.NullString
		position           sql.NullString
		notes              sql.NullString
		emailSent          bool
		smsSent            bool
		clickedLink        bool
		enteredCredentials bool
		createdAt          sql.NullTime
		updatedAt          sql.NullTime
	)

	err := row.Scan(
		&id, &campaignID, &email, &phone, &firstName, &lastName,
		&company, &position, &notes,
		&emailSent, &smsSent, &clickedLink, &enteredCredentials,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t := &target.Target{
		Email:              email,
		Phone:              nullStringValue(phone),
		FirstName:          nullStringValue(firstName),
		LastName:           nullStringValue(lastName),
		Company:            nullStringValue(company),
		Position:           nullStringValue(position),
		Notes:              nullStringValue(notes),
		EmailSent:          emailSent,
		SMSSent:            smsSent,
		ClickedLink:        clickedLink,
		EnteredCredentials: enteredCredentials,
	}
	t.ID, _ = shared.IDFromString(id)
	t.CampaignID, _ = shared.IDFromString(campaignID)
	if createdAt.Valid {
		t.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		t.UpdatedAt = updatedAt.Time
	}
	return t, nil
}

const targetInsertQuery = `
	INSERT INTO targets (
		id, campaign_id, email, phone, first_name, last_name,
		company, position, notes,
		email_sent, sms_sent, clicked_link, entered_credentials,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

func targetInsertArgs(t *target.Target) []any {
	return []any{
		t.ID.String(),
		t.CampaignID.String(),
		t.Email,
		nullString(t.Phone),
		nullString(t.FirstName),
		nullString(t.LastName),
		nullString(t.Company),
		nullString(t.Position),
		nullString(t.Notes),
		t.EmailSent,
		t.SMSSent,
		t.ClickedLink,
		t.EnteredCredentials,
		t.CreatedAt,
		t.UpdatedAt,
	}
}

// Create persists a new target.
func (r *TargetRepository) Create(ctx context.Context, t *target.Target) error {
	_, err := r.db.ExecContext(ctx, targetInsertQuery, targetInsertArgs(t)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: target with email '%s' already exists in this campaign", shared.ErrAlreadyExists, t.Email)
		}
		return fmt.Errorf("failed to create target: %w", err)
	}
	return nil
}

// CreateBatch persists a batch of targets in a single transaction.
func (r *TargetRepository) CreateBatch(ctx context.Context, ts []*target.Target) error {
	if len(ts) == 0 {
		return nil
	}
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, targetInsertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare target insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range ts {
			if _, err := stmt.ExecContext(ctx, targetInsertArgs(t)...); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: target with email '%s' already exists in this campaign", shared.ErrAlreadyExists, t.Email)
				}
				return fmt.Errorf("failed to insert target %s: %w", t.Email, err)
			}
		}
		return nil
	})
}

// GetByID returns a target by ID.
func (r *TargetRepository) GetByID(ctx context.Context, id shared.ID) (*target.Target, error) {
	row := r.db.QueryRowContext(ctx, r.selectQuery()+" WHERE id = $1", id.String())
	t, err := r.scanTarget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: target not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get target: %w", err)
	}
	return t, nil
}

// GetByEmail returns a target by email within a campaign. Emails are
// stored lower case.
func (r *TargetRepository) GetByEmail(ctx context.Context, campaignID shared.ID, email string) (*target.Target, error) {
	query := r.selectQuery() + " WHERE campaign_id = $1 AND email = $2"

	row := r.db.QueryRowContext(ctx, query, campaignID.String(), strings.ToLower(email))
	t, err := r.scanTarget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: target not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get target by email: %w", err)
	}
	return t, nil
}

// List returns targets matching the filter with pagination.
func (r *TargetRepository) List(ctx context.Context, filter target.Filter, page pagination.Pagination) (*pagination.Result[*target.Target], error) {
	conditions := []string{"campaign_id = $1"}
	args := []any{filter.CampaignID.String()}
	argIdx := 2

	// Status is derived from the engagement flags, so each status maps
	// to a flag predicate rather than a column.
	switch filter.Status {
	case target.StatusCredentialsEntered:
		conditions = append(conditions, "entered_credentials = TRUE")
	case target.StatusClickedLink:
		conditions = append(conditions, "clicked_link = TRUE AND entered_credentials = FALSE")
	case target.StatusContacted:
		conditions = append(conditions, "(email_sent = TRUE OR sms_sent = TRUE) AND clicked_link = FALSE AND entered_credentials = FALSE")
	case target.StatusPending:
		conditions = append(conditions, "email_sent = FALSE AND sms_sent = FALSE AND clicked_link = FALSE AND entered_credentials = FALSE")
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d OR company ILIKE $%d)", argIdx, argIdx, argIdx, argIdx))
		args = append(args, wrapLikePattern(filter.Search))
		argIdx++
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM targets" + whereClause
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count targets: %w", err)
	}

	query := r.selectQuery() + whereClause + " ORDER BY email ASC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []*target.Target
	for rows.Next() {
		t, err := r.scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate targets: %w", err)
	}

	result := pagination.NewResult(targets, total, page)
	return &result, nil
}

// ListByCampaign returns every target of a campaign ordered by email.
func (r *TargetRepository) ListByCampaign(ctx context.Context, campaignID shared.ID) ([]*target.Target, error) {
	query := r.selectQuery() + " WHERE campaign_id = $1 ORDER BY email ASC"

	rows, err := r.db.QueryContext(ctx, query, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []*target.Target
	for rows.Next() {
		t, err := r.scanTarget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate targets: %w", err)
	}
	return targets, nil
}

// CountByCampaign returns the number of targets in a campaign.
func (r *TargetRepository) CountByCampaign(ctx context.Context, campaignID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM targets WHERE campaign_id = $1",
		campaignID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count targets: %w", err)
	}
	return count, nil
}

// Update persists target changes.
func (r *TargetRepository) Update(ctx context.Context, t *target.Target) error {
	query := `
		UPDATE targets SET
			phone = $2,
			first_name = $3,
			last_name = $4,
			company = $5,
			position = $6,
			notes = $7,
			email_sent = $8,
			sms_sent = $9,
			clicked_link = $10,
			entered_credentials = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		t.ID.String(),
		nullString(t.Phone),
		nullString(t.FirstName),
		nullString(t.LastName),
		nullString(t.Company),
		nullString(t.Position),
		nullString(t.Notes),
		t.EmailSent,
		t.SMSSent,
		t.ClickedLink,
		t.EnteredCredentials,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update target: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: target not found", shared.ErrNotFound)
	}
	return nil
}

// Delete removes a target; its events and credentials cascade.
func (r *TargetRepository) Delete(ctx context.Context, id shared.ID) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM targets WHERE id = $1", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete target: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: target not found", shared.ErrNotFound)
	}
	return nil
}
