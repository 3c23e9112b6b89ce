package app

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/pagination"
)

// TargetService manages campaign recipients.
type TargetService struct {
	targetRepo target.Repository
	logger     *logger.Logger
}

// NewTargetService creates a new TargetService.
func NewTargetService(targetRepo target.Repository, log *logger.Logger) *TargetService {
	return &TargetService{
		targetRepo: targetRepo,
		logger:     log.With("service", "target"),
	}
}

// CreateTargetInput is the input to add one target to a campaign.
type CreateTargetInput struct {
	CampaignID string `json:"campaign_id" validate:"required,uuid"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"omitempty,phone"`
	FirstName  string `json:"first_name" validate:"max=50"`
	LastName   string `json:"last_name" validate:"max=50"`
	Company    string `json:"company" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// Create adds a target to a campaign. Duplicate emails within a
// campaign are rejected.
func (s *TargetService) Create(ctx context.Context, input CreateTargetInput) (*target.Target, error) {
	campaignID, err := shared.IDFromString(input.CampaignID)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", "invalid campaign id", shared.ErrValidation)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.targetRepo.GetByEmail(ctx, campaignID, email); err == nil && existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "target already exists in this campaign", shared.ErrAlreadyExists)
	} else if err != nil && !shared.IsNotFound(err) {
		return nil, err
	}

	tgt, err := target.NewTarget(campaignID, email)
	if err != nil {
		return nil, err
	}
	tgt.Phone = strings.TrimSpace(input.Phone)
	tgt.FirstName = strings.TrimSpace(input.FirstName)
	tgt.LastName = strings.TrimSpace(input.LastName)
	tgt.Company = strings.TrimSpace(input.Company)
	tgt.Position = strings.TrimSpace(input.Position)
	tgt.Notes = strings.TrimSpace(input.Notes)

	if err := s.targetRepo.Create(ctx, tgt); err != nil {
		return nil, err
	}

	s.logger.Info("target created",
		"target_id", tgt.ID.String(),
		"campaign_id", campaignID.String(),
	)
	return tgt, nil
}

// Get returns a target by id.
func (s *TargetService) Get(ctx context.Context, id shared.ID) (*target.Target, error) {
	return s.targetRepo.GetByID(ctx, id)
}

// List returns targets matching the filter.
func (s *TargetService) List(ctx context.Context, filter target.Filter, p pagination.Pagination) (*pagination.Result[*target.Target], error) {
	return s.targetRepo.List(ctx, filter, p)
}

// UpdateProfile applies a partial profile update.
func (s *TargetService) UpdateProfile(ctx context.Context, id shared.ID, update target.ProfileUpdate) (*target.Target, error) {
	tgt, err := s.targetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tgt.UpdateProfile(update) {
		if err := s.targetRepo.Update(ctx, tgt); err != nil {
			return nil, err
		}
	}
	return tgt, nil
}

// Delete removes a target with its events and credentials.
func (s *TargetService) Delete(ctx context.Context, id shared.ID) error {
	return s.targetRepo.Delete(ctx, id)
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV reads rows laid out as
// email,first_name,last_name,company,position,phone and inserts them
// as targets. An optional header row is detected by the first column
// reading "email". Rows with invalid emails or duplicate addresses are
// skipped and reported, not fatal.
func (s *TargetService) ImportCSV(ctx context.Context, campaignID shared.ID, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	seen := make(map[string]bool)
	var batch []*target.Target

	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, shared.NewDomainError("VALIDATION", "malformed csv: "+err.Error(), shared.ErrValidation)
		}
		if line == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "email") {
			continue
		}

		tgt, err := target.FromCSVRow(campaignID, row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, "line "+strconv.Itoa(line)+": "+err.Error())
			continue
		}
		if seen[tgt.Email] {
			result.Skipped++
			continue
		}
		if existing, err := s.targetRepo.GetByEmail(ctx, campaignID, tgt.Email); err == nil && existing != nil {
			result.Skipped++
			continue
		} else if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}

		seen[tgt.Email] = true
		batch = append(batch, tgt)
	}

	if len(batch) > 0 {
		if err := s.targetRepo.CreateBatch(ctx, batch); err != nil {
			return nil, err
		}
	}
	result.Imported = len(batch)

	s.logger.Info("targets imported",
		"campaign_id", campaignID.String(),
		"imported", result.Imported,
		"skipped", result.Skipped,
	)
	return result, nil
}

// ExportCSV writes every target of the campaign as CSV, including the
// derived status column.
func (s *TargetService) ExportCSV(ctx context.Context, campaignID shared.ID, w io.Writer) error {
	targets, err := s.targetRepo.ListByCampaign(ctx, campaignID)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"email", "first_name", "last_name", "company", "position", "phone", "status"}); err != nil {
		return err
	}
	for _, tgt := range targets {
		if err := writer.Write(tgt.CSVRow()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
