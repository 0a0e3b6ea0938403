package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/router"
)

// Refresher periodically folds recorded attempt latencies back into the
// router's model descriptors so routing reflects observed behavior.
type Refresher struct {
	recorder Recorder
	router   *router.Router
	cronSpec string
	cron     *cron.Cron
	running  bool
	mu       sync.Mutex
}

// NewRefresher creates a refresher. cronSpec is a standard cron expression,
// e.g. "*/5 * * * *" for every five minutes.
func NewRefresher(recorder Recorder, rt *router.Router, cronSpec string) *Refresher {
	return &Refresher{
		recorder: recorder,
		router:   rt,
		cronSpec: cronSpec,
		cron:     cron.New(),
	}
}

// Start registers the refresh job and starts the cron scheduler
func (r *Refresher) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("refresher already running")
	}

	_, err := r.cron.AddFunc(r.cronSpec, func() {
		if err := r.Refresh(context.Background()); err != nil {
			logger.Error("Failed to refresh model latency stats: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	r.cron.Start()
	r.running = true

	logger.Info("Latency refresher started with schedule: %s", r.cronSpec)
	return nil
}

// Stop stops the cron scheduler
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.cron.Stop()
	r.running = false

	logger.Info("Latency refresher stopped")
}

// Refresh runs one aggregation pass immediately
func (r *Refresher) Refresh(ctx context.Context) error {
	modelStats, err := r.recorder.ModelStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load model stats: %w", err)
	}

	for _, s := range modelStats {
		if s.Attempts == 0 {
			continue
		}
		r.router.SetAvgLatency(s.Model, s.AvgLatencyMs)
		logger.Debug("Refreshed avg latency for %s: %dms over %d attempts", s.Model, s.AvgLatencyMs, s.Attempts)
	}
	return nil
}
