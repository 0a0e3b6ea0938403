package stats

import (
	"context"
	"time"
)

// Attempt is one provider/model invocation outcome
type Attempt struct {
	Provider  string
	Model     string
	Purpose   string
	Success   bool
	Error     string
	LatencyMs int64
	CreatedAt time.Time
}

// ModelStat is the aggregated view of one model's recorded attempts
type ModelStat struct {
	Model        string `json:"model"`
	Attempts     int    `json:"attempts"`
	Failures     int    `json:"failures"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// Recorder is the observability sink for attempt telemetry. The pipeline
// itself holds no cross-run state; everything durable lives behind this
// interface and the core runs fine with the no-op implementation.
type Recorder interface {
	RecordAttempt(ctx context.Context, attempt *Attempt) error
	ModelStats(ctx context.Context) ([]ModelStat, error)
	Close() error
}

// Noop discards all telemetry
type Noop struct{}

func (Noop) RecordAttempt(ctx context.Context, attempt *Attempt) error { return nil }
func (Noop) ModelStats(ctx context.Context) ([]ModelStat, error)       { return nil, nil }
func (Noop) Close() error                                              { return nil }
