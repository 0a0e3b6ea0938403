package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/temic137/formforge/internal/gateway"
	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/stats"
)

// DefaultAttemptTimeout bounds a single model attempt when the caller
// supplies no timeout of its own.
const DefaultAttemptTimeout = 45 * time.Second

// Executor drives one ordered model chain against one request: strictly
// sequential attempts, each bounded by a per-attempt timeout. Attempts are
// deliberately not concurrent across fallback tiers; correlated outages and
// shared rate limits make parallel tiers burn quota on requests that are
// likely to fail together.
type Executor struct {
	gw       *gateway.Gateway
	router   *router.Router
	recorder stats.Recorder
	timeout  time.Duration
}

// New creates an executor. recorder may be stats.Noop{}; timeout <= 0 falls
// back to DefaultAttemptTimeout.
func New(gw *gateway.Gateway, rt *router.Router, recorder stats.Recorder, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}
	if recorder == nil {
		recorder = stats.Noop{}
	}
	return &Executor{
		gw:       gw,
		router:   rt,
		recorder: recorder,
		timeout:  timeout,
	}
}

// Execute resolves the model chain for a purpose and drives it
func (e *Executor) Execute(ctx context.Context, purpose string, req *models.CompletionRequest) (*models.CompletionResult, error) {
	chain, err := e.router.Chain(purpose)
	if err != nil {
		return nil, err
	}
	return e.ExecuteChain(ctx, purpose, chain, req)
}

// ExecuteChain drives one ordered model list. On success it returns
// immediately with UsedFallback set when any earlier attempt failed. A model
// id is never attempted twice within one call. On exhaustion it returns an
// aggregate error with one entry per attempt, in attempt order.
func (e *Executor) ExecuteChain(ctx context.Context, purpose string, chain []router.ModelDescriptor, req *models.CompletionRequest) (*models.CompletionResult, error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("empty model chain for purpose %s", purpose)
	}

	agg := &llm.AggregateError{}
	tried := make(map[string]bool)
	attempts := 0

	for _, model := range chain {
		if tried[model.ID] {
			continue
		}
		tried[model.ID] = true

		// The attempt context is cancelled as soon as the attempt is
		// decided, so an abandoned call can never resolve late and
		// overwrite a result chosen from a later attempt.
		attemptCtx, cancel := context.WithTimeout(ctx, e.timeout)
		start := time.Now()
		resp, err := e.gw.Invoke(attemptCtx, model.Provider, model.ID, req)
		cancel()
		latency := time.Since(start).Milliseconds()

		attemptErr := ""
		switch {
		case err != nil:
			attemptErr = err.Error()
		case resp.Error != "":
			attemptErr = resp.Error
		}

		if recErr := e.recorder.RecordAttempt(ctx, &stats.Attempt{
			Provider:  model.Provider,
			Model:     model.ID,
			Purpose:   purpose,
			Success:   attemptErr == "",
			Error:     attemptErr,
			LatencyMs: latency,
			CreatedAt: time.Now(),
		}); recErr != nil {
			logger.Warning("Failed to record attempt telemetry: %v", recErr)
		}

		if attemptErr != "" {
			logger.Warning("Attempt %d for purpose %s failed on %s/%s: %s", attempts+1, purpose, model.Provider, model.ID, attemptErr)
			agg.Attempts = append(agg.Attempts, &llm.AttemptError{
				Provider: model.Provider,
				Model:    model.ID,
				Err:      fmt.Errorf("%s", attemptErr),
			})
			attempts++

			if ctx.Err() != nil {
				// Caller is gone; no point trying further tiers.
				return nil, agg
			}
			continue
		}

		logger.Debug("Purpose %s served by %s/%s in %dms (attempt %d)", purpose, model.Provider, model.ID, latency, attempts+1)
		return &models.CompletionResult{
			Text:         resp.Text,
			Provider:     model.Provider,
			Model:        model.ID,
			UsedFallback: attempts > 0,
			TokensUsed:   resp.TokensUsed,
			LatencyMs:    latency,
		}, nil
	}

	return nil, agg
}
