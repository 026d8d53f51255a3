package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Pesokrava/review_platform/internal/domain"
	"github.com/Pesokrava/review_platform/internal/pkg/logger"
	"github.com/Pesokrava/review_platform/internal/usecase/stats"
)

const (
	maxRetries     = 3
	initialBackoff = 100 * time.Millisecond
)

// ReviewEvent represents a review event from NATS
type ReviewEvent struct {
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	Owner     domain.Owner `json:"owner"`
}

// StatsWorker consumes review events and rebuilds the affected owner's
// aggregate statistics asynchronously. The write path already settles
// deltas inline; this worker recomputes from scratch so any drift a failed
// settlement left behind is corrected shortly after the triggering event.
type StatsWorker struct {
	recalculator   *stats.Recalculator
	logger         *logger.Logger
	debounceWindow time.Duration
	updateTimeout  time.Duration

	// Debouncing state
	mu             sync.Mutex
	pendingUpdates map[domain.Owner]*pendingUpdate
	shutdownCh     chan struct{}
	wg             sync.WaitGroup
	ctx            context.Context
	cancel         context.CancelFunc
}

type pendingUpdate struct {
	owner     domain.Owner
	timestamp time.Time
	timer     *time.Timer
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(recalculator *stats.Recalculator, debounceWindow, updateTimeout time.Duration, log *logger.Logger) *StatsWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &StatsWorker{
		recalculator:   recalculator,
		logger:         log,
		debounceWindow: debounceWindow,
		updateTimeout:  updateTimeout,
		pendingUpdates: make(map[domain.Owner]*pendingUpdate),
		shutdownCh:     make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// HandleEvent processes a review event
func (w *StatsWorker) HandleEvent(data []byte) error {
	var event ReviewEvent
	if err := json.Unmarshal(data, &event); err != nil {
		w.logger.Error("Failed to unmarshal review event", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	w.logger.WithFields(map[string]any{
		"event_type": event.EventType,
		"owner":      event.Owner.String(),
		"timestamp":  event.Timestamp,
	}).Info("Received review event")

	w.scheduleUpdate(event.Owner, event.Timestamp)

	return nil
}

// scheduleUpdate implements debouncing logic. Multiple events for the same
// owner within the debounce window result in a single recomputation.
func (w *StatsWorker) scheduleUpdate(owner domain.Owner, timestamp time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.shutdownCh:
		w.logger.Info("Worker shutting down, ignoring new event")
		return
	default:
	}

	existing, found := w.pendingUpdates[owner]

	if found {
		// Ignore stale events
		if timestamp.Before(existing.timestamp) {
			w.logger.WithFields(map[string]any{
				"owner":       owner.String(),
				"existing_ts": existing.timestamp,
				"event_ts":    timestamp,
			}).Debug("Ignoring stale event")
			return
		}

		existing.timer.Stop()
		w.logger.WithFields(map[string]any{
			"owner": owner.String(),
		}).Debug("Debouncing: resetting timer for owner")
	} else {
		w.wg.Add(1)
	}

	timer := time.AfterFunc(w.debounceWindow, func() {
		w.processUpdate(owner)
	})

	w.pendingUpdates[owner] = &pendingUpdate{
		owner:     owner,
		timestamp: timestamp,
		timer:     timer,
	}
}

// processUpdate executes the recomputation with retry logic
func (w *StatsWorker) processUpdate(owner domain.Owner) {
	defer w.wg.Done()

	w.mu.Lock()
	delete(w.pendingUpdates, owner)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"owner": owner.String(),
	}).Info("Processing stats update")

	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.WithFields(map[string]any{
				"owner":      owner.String(),
				"attempt":    attempt + 1,
				"backoff_ms": backoff.Milliseconds(),
			}).Warn("Retrying stats update")

			select {
			case <-time.After(backoff):
			case <-w.ctx.Done():
				w.logger.Info("Worker context cancelled, aborting retry")
				return
			}

			backoff *= 2
		}

		ctx, cancel := context.WithTimeout(w.ctx, w.updateTimeout)
		_, err := w.recalculator.RecalculateOwner(ctx, owner)
		cancel()

		if err == nil {
			return
		}

		lastErr = err
		w.logger.WithFields(map[string]any{
			"owner":   owner.String(),
			"attempt": attempt + 1,
			"error":   err.Error(),
		}).Error("Failed to update stats", err)
	}

	w.logger.WithFields(map[string]any{
		"owner":       owner.String(),
		"max_retries": maxRetries,
		"error":       lastErr.Error(),
	}).Error("Stats update failed after all retries", lastErr)
}

// Shutdown gracefully shuts down the worker. Cancels pending timers and
// waits for in-flight updates to complete.
func (w *StatsWorker) Shutdown(ctx context.Context) error {
	w.logger.Info("Shutting down stats worker...")

	close(w.shutdownCh)
	w.cancel()

	w.mu.Lock()
	pendingCount := len(w.pendingUpdates)
	for _, update := range w.pendingUpdates {
		// Stop reports false when the timer already fired; that update's
		// goroutine owns the WaitGroup decrement.
		if update.timer.Stop() {
			w.wg.Done()
		}
	}
	w.pendingUpdates = make(map[domain.Owner]*pendingUpdate)
	w.mu.Unlock()

	w.logger.WithFields(map[string]any{
		"cancelled_updates": pendingCount,
	}).Info("Cancelled pending updates")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All in-flight updates completed")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout reached, forcing exit")
		return ctx.Err()
	}
}

// GetPendingCount returns the number of pending updates (used for monitoring/testing)
func (w *StatsWorker) GetPendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pendingUpdates)
}
