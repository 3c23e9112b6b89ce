// Command server runs the phishing-simulation API: the admin surface,
// the public tracking endpoints, the delivery worker and the campaign
// scheduler in one process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/internal/config"
	"github.com/phishsim/api/internal/infra/http"
	"github.com/phishsim/api/internal/infra/http/routes"
	"github.com/phishsim/api/internal/infra/jobs"
	"github.com/phishsim/api/internal/infra/postgres"
	"github.com/phishsim/api/internal/infra/redis"
	"github.com/phishsim/api/pkg/logger"
	"github.com/phishsim/api/pkg/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDevelopment()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := initLogger(cfg)
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	repos := NewRepositories(db)

	jobClient := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	defer closeWithLog(jobClient, "job client", log)

	services := NewServices(cfg, repos, jobClient, log)
	log.Info("services initialized")

	v := validator.New()
	handlers := NewHandlers(cfg, db, redisClient, repos, services, v, log)

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Worker.Concurrency,
		QueueDefault:  cfg.Worker.QueueDefault,
		QueueLow:      cfg.Worker.QueueLow,
	}, services.Delivery, log)
	if err := worker.Start(); err != nil {
		log.Error("failed to start worker", "error", err)
		return 1
	}

	var scheduler *app.CampaignScheduler
	if cfg.Scheduler.Enabled {
		scheduler = app.NewCampaignScheduler(services.Campaign, cfg.Scheduler.CampaignSpec, log)
		if err := scheduler.Start(); err != nil {
			log.Error("failed to start scheduler", "error", err)
			return 1
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	worker.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

func initLogger(cfg *config.Config) *logger.Logger {
	if cfg.IsProduction() {
		return logger.NewProduction()
	}
	return logger.NewDevelopment()
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
