package jobs

import (
	"github.com/hibiken/asynq"

	"github.com/phishsim/api/internal/app"
	"github.com/phishsim/api/pkg/logger"
)

// WorkerConfig holds the configuration for the job worker.
type WorkerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	QueueDefault  int
	QueueLow      int
}

// Worker processes background jobs.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker creates a new background job worker wired to the delivery
// service.
func NewWorker(cfg WorkerConfig, delivery *app.DeliveryService, log *logger.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.QueueDefault <= 0 {
		cfg.QueueDefault = 6
	}
	if cfg.QueueLow <= 0 {
		cfg.QueueLow = 2
	}

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				QueueDefault: cfg.QueueDefault,
				QueueLow:     cfg.QueueLow,
			},
		},
	)

	mux := asynq.NewServeMux()
	handler := NewDeliveryTaskHandler(delivery, log)
	mux.HandleFunc(TypeCampaignLaunch, handler.HandleCampaignLaunch)
	mux.HandleFunc(TypeTargetDeliver, handler.HandleTargetDeliver)

	return &Worker{
		server: server,
		mux:    mux,
		logger: log.With("component", "job_worker"),
	}
}

// Start starts the worker.
func (w *Worker) Start() error {
	w.logger.Info("starting job worker")
	return w.server.Start(w.mux)
}

// Stop stops the worker gracefully.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker")
	w.server.Shutdown()
}
