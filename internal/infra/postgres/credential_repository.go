package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phishsim/api/pkg/domain/credential"
	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/pagination"
)

// CredentialRepository implements credential.Repository using
// PostgreSQL.
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) selectQuery() string {
	return `
		SELECT
			id, campaign_id, target_id, username, password, password_hash,
			captured_at, ip_address, user_agent, referrer, session_id,
			page_url, form_data,
			password_strength, is_common_password, credential_type,
			is_real_credential, risk_score, flagged_for_review,
			processed, notified
		FROM captured_credentials
	`
}

func (r *CredentialRepository) scanCredential(row interface{ Scan(...any) error }) (*credential.Credential, error) {
	var (
		id               string
		campaignID       string
		targetID         string
		username         string
		password         string
		passwordHash     string
		capturedAt       time.Time
		ipAddress        sql.NullString
		userAgent        sql.NullString
		referrer         sql.NullString
		sessionID        sql.NullString
		pageURL          sql.NullString
		formData         []byte
		strength         string
		isCommon         bool
		credType         string
		isReal           bool
		riskScore        int
		flaggedForReview bool
		processed        bool
		notified         bool
	)

	err := row.Scan(
		&id, &campaignID, &targetID, &username, &password, &passwordHash,
		&capturedAt, &ipAddress, &userAgent, &referrer, &sessionID,
		&pageURL, &formData,
		&strength, &isCommon, &credType,
		&isReal, &riskScore, &flaggedForReview,
		&processed, &notified,
	)
	if err != nil {
		return nil, err
	}

	c := &credential.Credential{
		Username:         username,
		Password:         password,
		PasswordHash:     passwordHash,
		CapturedAt:       capturedAt,
		IPAddress:        nullStringValue(ipAddress),
		UserAgent:        nullStringValue(userAgent),
		Referrer:         nullStringValue(referrer),
		SessionID:        nullStringValue(sessionID),
		PageURL:          nullStringValue(pageURL),
		FormData:         unmarshalMap(formData),
		PasswordStrength: credential.Strength(strength),
		IsCommonPassword: isCommon,
		CredentialType:   credential.Type(credType),
		IsRealCredential: isReal,
		RiskScore:        riskScore,
		FlaggedForReview: flaggedForReview,
		Processed:        processed,
		Notified:         notified,
	}
	c.ID, _ = shared.IDFromString(id)
	c.CampaignID, _ = shared.IDFromString(campaignID)
	c.TargetID, _ = shared.IDFromString(targetID)
	return c, nil
}

// Create persists a captured credential.
func (r *CredentialRepository) Create(ctx context.Context, c *credential.Credential) error {
	formData, err := marshalMap(c.FormData)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	query := `
		INSERT INTO captured_credentials (
			id, campaign_id, target_id, username, password, password_hash,
			captured_at, ip_address, user_agent, referrer, session_id,
			page_url, form_data,
			password_strength, is_common_password, credential_type,
			is_real_credential, risk_score, flagged_for_review,
			processed, notified
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID.String(),
		c.CampaignID.String(),
		c.TargetID.String(),
		c.Username,
		c.Password,
		c.PasswordHash,
		c.CapturedAt,
		nullString(c.IPAddress),
		nullString(c.UserAgent),
		nullString(c.Referrer),
		nullString(c.SessionID),
		nullString(c.PageURL),
		formData,
		c.PasswordStrength.String(),
		c.IsCommonPassword,
		c.CredentialType.String(),
		c.IsRealCredential,
		c.RiskScore,
		c.FlaggedForReview,
		c.Processed,
		c.Notified,
	)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// GetByID returns a credential by ID.
func (r *CredentialRepository) GetByID(ctx context.Context, id shared.ID) (*credential.Credential, error) {
	row := r.db.QueryRowContext(ctx, r.selectQuery()+" WHERE id = $1", id.String())
	c, err := r.scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: credential not found", shared.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return c, nil
}

// List returns credentials matching the filter, newest first.
func (r *CredentialRepository) List(ctx context.Context, filter credential.Filter, page pagination.Pagination) (*pagination.Result[*credential.Credential], error) {
	conditions := []string{"campaign_id = $1"}
	args := []any{filter.CampaignID.String()}
	argIdx := 2

	if filter.TargetID != nil {
		conditions = append(conditions, fmt.Sprintf("target_id = $%d", argIdx))
		args = append(args, filter.TargetID.String())
		argIdx++
	}
	if filter.Flagged != nil {
		conditions = append(conditions, fmt.Sprintf("flagged_for_review = $%d", argIdx))
		args = append(args, *filter.Flagged)
		argIdx++
	}
	if filter.MinRisk != nil {
		conditions = append(conditions, fmt.Sprintf("risk_score >= $%d", argIdx))
		args = append(args, *filter.MinRisk)
		argIdx++
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT COUNT(*) FROM captured_credentials" + whereClause
	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count credentials: %w", err)
	}

	query := r.selectQuery() + whereClause + " ORDER BY captured_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*credential.Credential
	for rows.Next() {
		c, err := r.scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		credentials = append(credentials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}

	result := pagination.NewResult(credentials, total, page)
	return &result, nil
}

// ListByCampaign returns every credential of a campaign, newest first.
func (r *CredentialRepository) ListByCampaign(ctx context.Context, campaignID shared.ID) ([]*credential.Credential, error) {
	query := r.selectQuery() + " WHERE campaign_id = $1 ORDER BY captured_at DESC"

	rows, err := r.db.QueryContext(ctx, query, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []*credential.Credential
	for rows.Next() {
		c, err := r.scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		credentials = append(credentials, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credentials: %w", err)
	}
	return credentials, nil
}

// ExistsForTarget reports whether the target already submitted in the
// campaign.
func (r *CredentialRepository) ExistsForTarget(ctx context.Context, campaignID, targetID shared.ID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM captured_credentials WHERE campaign_id = $1 AND target_id = $2)",
		campaignID.String(), targetID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check credential existence: %w", err)
	}
	return exists, nil
}

// CountDistinctTargets counts distinct targets with at least one
// captured credential.
func (r *CredentialRepository) CountDistinctTargets(ctx context.Context, campaignID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT target_id) FROM captured_credentials WHERE campaign_id = $1",
		campaignID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct targets: %w", err)
	}
	return count, nil
}

// CountByCampaign counts all capture rows of a campaign.
func (r *CredentialRepository) CountByCampaign(ctx context.Context, campaignID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM captured_credentials WHERE campaign_id = $1",
		campaignID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count credentials: %w", err)
	}
	return count, nil
}

// StrengthBreakdown returns capture counts grouped by password
// strength.
func (r *CredentialRepository) StrengthBreakdown(ctx context.Context, campaignID shared.ID) (credential.StrengthBreakdown, error) {
	query := `
		SELECT password_strength, COUNT(*)
		FROM captured_credentials
		WHERE campaign_id = $1
		GROUP BY password_strength
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query strength breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(credential.StrengthBreakdown)
	for rows.Next() {
		var strength string
		var count int
		if err := rows.Scan(&strength, &count); err != nil {
			return nil, fmt.Errorf("failed to scan strength count: %w", err)
		}
		breakdown[credential.Strength(strength)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate strength counts: %w", err)
	}
	return breakdown, nil
}

// AverageRiskScore returns the mean risk score of a campaign's
// captures, zero when there are none.
func (r *CredentialRepository) AverageRiskScore(ctx context.Context, campaignID shared.ID) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		"SELECT AVG(risk_score) FROM captured_credentials WHERE campaign_id = $1",
		campaignID.String(),
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to query average risk score: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}

// CountFlagged counts captures flagged for review.
func (r *CredentialRepository) CountFlagged(ctx context.Context, campaignID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM captured_credentials WHERE campaign_id = $1 AND flagged_for_review = TRUE",
		campaignID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count flagged credentials: %w", err)
	}
	return count, nil
}

// CountCommon counts captures whose password is on the common list.
func (r *CredentialRepository) CountCommon(ctx context.Context, campaignID shared.ID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM captured_credentials WHERE campaign_id = $1 AND is_common_password = TRUE",
		campaignID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count common passwords: %w", err)
	}
	return count, nil
}

// CountHighRisk counts captures with a risk score above the threshold.
func (r *CredentialRepository) CountHighRisk(ctx context.Context, campaignID shared.ID, threshold int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM captured_credentials WHERE campaign_id = $1 AND risk_score > $2",
		campaignID.String(), threshold,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count high risk credentials: %w", err)
	}
	return count, nil
}

// TopPasswords returns the most frequently captured passwords, grouped
// case-insensitively, most frequent first.
func (r *CredentialRepository) TopPasswords(ctx context.Context, campaignID shared.ID, limit int) ([]credential.PasswordCount, error) {
	query := `
		SELECT LOWER(password), COUNT(*)
		FROM captured_credentials
		WHERE campaign_id = $1
		GROUP BY LOWER(password)
		ORDER BY COUNT(*) DESC, LOWER(password)
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top passwords: %w", err)
	}
	defer rows.Close()

	var counts []credential.PasswordCount
	for rows.Next() {
		var pc credential.PasswordCount
		if err := rows.Scan(&pc.Password, &pc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan password count: %w", err)
		}
		counts = append(counts, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate password counts: %w", err)
	}
	return counts, nil
}

// Update persists the mutable review markers of a credential.
func (r *CredentialRepository) Update(ctx context.Context, c *credential.Credential) error {
	formData, err := marshalMap(c.FormData)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	query := `
		UPDATE captured_credentials SET
			form_data = $2,
			flagged_for_review = $3,
			processed = $4,
			notified = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		c.ID.String(),
		formData,
		c.FlaggedForReview,
		c.Processed,
		c.Notified,
	)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: credential not found", shared.ErrNotFound)
	}
	return nil
}
