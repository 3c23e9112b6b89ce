package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/phishsim/api/pkg/domain/shared"
	"github.com/phishsim/api/pkg/domain/target"
	"github.com/phishsim/api/pkg/logger"
)

func newTargetService() (*TargetService, *mockTargetRepo) {
	repo := newMockTargetRepo()
	return NewTargetService(repo, logger.NewNop()), repo
}

func TestTargetCreate(t *testing.T) {
	svc, _ := newTargetService()
	campaignID := shared.NewID()

	tgt, err := svc.Create(context.Background(), CreateTargetInput{
		CampaignID: campaignID.String(),
		Email:      "  Jane.Doe@Example.COM ",
		FirstName:  "Jane",
		LastName:   "Doe",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if tgt.Email != "jane.doe@example.com" {
		t.Errorf("email = %q, want normalized lowercase", tgt.Email)
	}
	if tgt.Status() != target.StatusPending {
		t.Errorf("status = %q, want pending", tgt.Status())
	}

	// Same address again, case-insensitive, is rejected.
	_, err = svc.Create(context.Background(), CreateTargetInput{
		CampaignID: campaignID.String(),
		Email:      "JANE.DOE@example.com",
	})
	if !errors.Is(err, shared.ErrAlreadyExists) {
		t.Errorf("duplicate Create() error = %v, want already exists", err)
	}
}

func TestTargetCreateAllowsSameEmailAcrossCampaigns(t *testing.T) {
	svc, _ := newTargetService()

	for _, campaignID := range []shared.ID{shared.NewID(), shared.NewID()} {
		if _, err := svc.Create(context.Background(), CreateTargetInput{
			CampaignID: campaignID.String(),
			Email:      "jane.doe@example.com",
		}); err != nil {
			t.Fatalf("Create() in campaign %s: error = %v", campaignID, err)
		}
	}
}

func TestImportCSV(t *testing.T) {
	svc, repo := newTargetService()
	campaignID := shared.NewID()

	input := strings.Join([]string{
		"email,first_name,last_name,company,position,phone",
		"jane.doe@example.com,Jane,Doe,Acme,Engineer,+15551234567",
		"john.roe@example.com,John,Roe,Acme,,",
		"not-an-email,Bad,Row,,,",
		"jane.doe@example.com,Jane,Again,,,",
		"solo@example.com",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), campaignID, strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if result.Imported != 3 {
		t.Errorf("imported = %d, want 3", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, want 2 (bad email + in-file duplicate)", result.Skipped)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "line 4") {
		t.Errorf("errors = %v, want one entry pointing at line 4", result.Errors)
	}

	jane, err := repo.GetByEmail(context.Background(), campaignID, "jane.doe@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if jane.FirstName != "Jane" || jane.Company != "Acme" || jane.Phone != "+15551234567" {
		t.Errorf("imported row lost fields: %+v", jane)
	}
}

func TestImportCSVSkipsExistingTargets(t *testing.T) {
	svc, _ := newTargetService()
	campaignID := shared.NewID()

	if _, err := svc.Create(context.Background(), CreateTargetInput{
		CampaignID: campaignID.String(),
		Email:      "jane.doe@example.com",
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := svc.ImportCSV(context.Background(), campaignID,
		strings.NewReader("jane.doe@example.com,Jane,Doe\nnew@example.com,New,Person\n"))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("imported = %d, want 1", result.Imported)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want the pre-existing address", result.Skipped)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	svc, _ := newTargetService()
	campaignID := shared.NewID()
	ctx := context.Background()

	input := "email,first_name,last_name,company,position,phone\n" +
		"a@example.com,Ada,Lovelace,Analytical,Engineer,+15550000001\n" +
		"b@example.com,Blaise,Pascal,Wager,,\n"
	if _, err := svc.ImportCSV(ctx, campaignID, strings.NewReader(input)); err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}

	var out bytes.Buffer
	if err := svc.ExportCSV(ctx, campaignID, &out); err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	rows, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("parse exported csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("exported rows = %d, want header + 2", len(rows))
	}
	header := rows[0]
	if header[0] != "email" || header[len(header)-1] != "status" {
		t.Errorf("header = %v, want email..status", header)
	}
	if rows[1][0] != "a@example.com" || rows[1][1] != "Ada" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[1][len(rows[1])-1] != "pending" {
		t.Errorf("status column = %q, want pending", rows[1][len(rows[1])-1])
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, repo := newTargetService()
	campaignID := shared.NewID()

	tgt, err := svc.Create(context.Background(), CreateTargetInput{
		CampaignID: campaignID.String(),
		Email:      "jane.doe@example.com",
		FirstName:  "Jane",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	company := "Acme"
	updated, err := svc.UpdateProfile(context.Background(), tgt.ID, target.ProfileUpdate{Company: &company})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if updated.Company != "Acme" {
		t.Errorf("company = %q, want Acme", updated.Company)
	}
	if updated.FirstName != "Jane" {
		t.Error("untouched fields must survive a partial update")
	}

	stored, err := repo.GetByID(context.Background(), tgt.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Company != "Acme" {
		t.Error("profile update was not persisted")
	}
}

func TestImportCSVMalformed(t *testing.T) {
	svc, _ := newTargetService()

	_, err := svc.ImportCSV(context.Background(), shared.NewID(),
		strings.NewReader("a@example.com,\"unterminated\n"))
	if !shared.IsValidation(err) {
		t.Errorf("ImportCSV() error = %v, want validation error", err)
	}
}
