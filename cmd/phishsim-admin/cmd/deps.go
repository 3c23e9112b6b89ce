package cmd

import (
	"fmt"

	"github.com/phishsim/api/internal/config"
	"github.com/phishsim/api/internal/infra/postgres"
	"github.com/phishsim/api/pkg/logger"
)

// deps bundles the database connection and repositories the commands
// operate on. Commands connect directly, not through the API server.
type deps struct {
	cfg *config.Config
	log *logger.Logger
	db  *postgres.DB

	campaigns   *postgres.CampaignRepository
	targets     *postgres.TargetRepository
	events      *postgres.TrackingRepository
	credentials *postgres.CredentialRepository
}

func openDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.NewNop()
	if flagVerbose {
		log = logger.NewDevelopment()
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &deps{
		cfg:         cfg,
		log:         log,
		db:          db,
		campaigns:   postgres.NewCampaignRepository(db),
		targets:     postgres.NewTargetRepository(db),
		events:      postgres.NewTrackingRepository(db),
		credentials: postgres.NewCredentialRepository(db),
	}, nil
}

func (d *deps) Close() {
	if err := d.db.Close(); err != nil {
		d.log.Warn("failed to close database", "error", err)
	}
}
