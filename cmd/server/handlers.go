package main

import (
	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/internal/config"
	"github.com/phishsim/api/internal/infra/http/handler"
	"github.com/phishsim/api/internal/infra/http/routes"
	"github.com/phishsim/api/internal/infra/postgres"
	"github.com/phishsim/api/internal/infra/redis"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/validator"
)

// NewHandlers wires the HTTP handlers for route registration.
func NewHandlers(
	cfg *config.Config,
	db *postgres.DB,
	redisClient *redis.Client,
	repos *Repositories,
	services *Services,
	v *validator.Validator,
	log *logger.Logger,
) routes.Handlers {
	// The funnel is polled by dashboards; a short redis TTL keeps the
	// aggregate queries off the hot path. Cache failures fall through
	// to the database.
	var funnelCache *redis.Cache[app.FunnelOutput]
	if redisClient != nil {
		var err error
		funnelCache, err = redis.NewCache[app.FunnelOutput](redisClient, "funnel", cfg.Redis.CacheTTL)
		if err != nil {
			log.Warn("funnel cache disabled", "error", err)
		}
	}

	return routes.Handlers{
		Health: handler.NewHealthHandler(
			handler.WithDatabase(db),
			handler.WithRedis(redisClient),
		),
		Campaign:   handler.NewCampaignHandler(services.Campaign, v, log),
		Target:     handler.NewTargetHandler(services.Target, v, log),
		Credential: handler.NewCredentialHandler(services.Capture, repos.Credential, log),
		Analytics:  handler.NewAnalyticsHandler(services.Tracking, funnelCache, log),
		Tracking: handler.NewTrackingHandler(
			services.Tracking,
			services.Capture,
			v,
			cfg.Tracking.DefaultRedirect,
			log,
		),
	}
}
