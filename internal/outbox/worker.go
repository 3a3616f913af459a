package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type WorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int32
	MaxRetries   int
	RetryDelay   time.Duration
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    100,
		MaxRetries:   3,
		RetryDelay:   time.Second,
	}
}

// Worker drains the outbox on a poll interval. It is the fallback path; the
// LISTEN/NOTIFY listener handles the hot path with lower latency.
type Worker struct {
	db        *sql.DB
	publisher EventPublisher
	config    WorkerConfig
	metrics   MetricsCollector
	log       zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewWorker(db *sql.DB, publisher EventPublisher, cfg WorkerConfig, metrics MetricsCollector, logger zerolog.Logger) *Worker {
	if metrics == nil {
		metrics = &NoOpMetricsCollector{}
	}
	return &Worker{
		db:        db,
		publisher: publisher,
		config:    cfg,
		metrics:   metrics,
		log:       logger,
		stopChan:  make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.run(ctx)

	w.log.Info().
		Dur("poll_interval", w.config.PollInterval).
		Int32("batch_size", w.config.BatchSize).
		Msg("outbox worker started")
	return nil
}

func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker not running")
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	w.wg.Wait()
	w.log.Info().Msg("outbox worker stopped")
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.processOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processOutbox(ctx)
		}
	}
}

func (w *Worker) processOutbox(ctx context.Context) {
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to begin outbox transaction")
		return
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	repo := NewRepository(tx)
	batch, err := repo.FetchUnsent(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to fetch unsent outbox events")
		return
	}
	if len(batch) == 0 {
		return
	}

	var sentIDs []uuid.UUID
	for _, ev := range batch {
		if err := w.publishWithRetry(ctx, ev); err != nil {
			w.log.Error().
				Err(err).
				Str("event_id", ev.ID.String()).
				Str("event_type", ev.EventType).
				Msg("failed to publish outbox event")
			continue
		}
		sentIDs = append(sentIDs, ev.ID)
	}

	if len(sentIDs) > 0 {
		if err := repo.MarkSent(ctx, sentIDs...); err != nil {
			w.log.Error().Err(err).Msg("failed to mark outbox events sent")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		w.log.Error().Err(err).Msg("failed to commit outbox transaction")
		return
	}
	committed = true

	w.metrics.RecordBatchProcessed(len(sentIDs), time.Since(start))
	w.log.Info().
		Int("total", len(batch)).
		Int("sent", len(sentIDs)).
		Msg("processed outbox batch")
}

func (w *Worker) publishWithRetry(ctx context.Context, event OutboxEvent) error {
	var lastErr error
	for attempt := 0; attempt <= w.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.config.RetryDelay * time.Duration(attempt)):
			}
		}

		start := time.Now()
		err := w.publisher.Publish(ctx, event)
		w.metrics.RecordPublishAttempt(event.EventType, attempt+1, err == nil)
		w.metrics.RecordEventProcessed(event.EventType, err == nil, time.Since(start))
		if err != nil {
			lastErr = err
			w.log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("publish failed, retrying")
			continue
		}
		return nil
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.config.MaxRetries+1, lastErr)
}
