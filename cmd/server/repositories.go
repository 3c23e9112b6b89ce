package main

import (
	"github.com/phishsim/api/internal/infra/postgres"
)

// Repositories holds all repository instances.
type Repositories struct {
	Campaign   *postgres.CampaignRepository
	Target     *postgres.TargetRepository
	Event      *postgres.TrackingRepository
	Credential *postgres.CredentialRepository
}

// NewRepositories initializes all repositories against the database.
func NewRepositories(db *postgres.DB) *Repositories {
	return &Repositories{
		Campaign:   postgres.NewCampaignRepository(db),
		Target:     postgres.NewTargetRepository(db),
		Event:      postgres.NewTrackingRepository(db),
		Credential: postgres.NewCredentialRepository(db),
	}
}
