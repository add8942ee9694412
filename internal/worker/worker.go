// Package worker consumes booking events from the queue and runs the
// translator notification fanout for each one.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/interpretly/booking-be/internal/booking/event"
	"github.com/interpretly/booking-be/internal/booking/transition"
	"github.com/interpretly/booking-be/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Engine        *transition.Engine
	Store         transition.Store
	Concurrency   int
	PrefetchCount int
}

// eventMessage pairs a decoded booking event with its delivery tag so
// the processing goroutine can ACK or NACK it.
type eventMessage struct {
	Event       event.Event
	DeliveryTag uint64
}

// Worker is the booking notification fanout worker.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	engine        *transition.Engine
	store         transition.Store
	concurrency   int
	prefetchCount int
	workerID      string
	jobsChan      chan *eventMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		engine:        cfg.Engine,
		store:         cfg.Store,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		workerID:      fmt.Sprintf("booking-worker-%s", uuid.NewString()[:8]),
		jobsChan:      make(chan *eventMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming booking events. It blocks until the context
// is canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
