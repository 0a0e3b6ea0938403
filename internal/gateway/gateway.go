package gateway

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
)

// ProviderConfig binds a registered provider to its default model and
// throughput limit.
type ProviderConfig struct {
	Name    string
	Model   string
	MaxRPM  int
	Enabled bool
}

// Gateway invokes provider adapters in priority order, returning the first
// successful result. A provider is never re-invoked within one call.
type Gateway struct {
	registry *llm.Registry
	defaults map[string]string
	limiters map[string]*rate.Limiter
}

// New creates a gateway over a provider registry. Providers with a MaxRPM
// limit get a token-bucket limiter that every invocation waits on.
func New(registry *llm.Registry, providers []ProviderConfig) *Gateway {
	g := &Gateway{
		registry: registry,
		defaults: make(map[string]string),
		limiters: make(map[string]*rate.Limiter),
	}
	for _, pc := range providers {
		if pc.Model != "" {
			g.defaults[pc.Name] = pc.Model
		}
		if pc.MaxRPM > 0 {
			g.limiters[pc.Name] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(pc.MaxRPM)), 1)
		}
	}
	return g
}

// Invoke sends one request to one provider with the given model, honoring
// the provider's rate limiter. Transport-level failures come back in the
// Response.Error field; hard errors are reserved for local failures.
func (g *Gateway) Invoke(ctx context.Context, provider, model string, req *models.CompletionRequest) (*llm.Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("completion request has no messages")
	}

	p, ok := g.registry.Get(provider)
	if !ok {
		return nil, fmt.Errorf("provider not found: %s", provider)
	}

	if limiter, ok := g.limiters[provider]; ok {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait aborted for %s: %w", provider, err)
		}
	}

	if req.StructuredOutput && !p.SupportsStructuredOutput() {
		// The raw text comes back unmodified; the caller is responsible
		// for extraction and repair.
		logger.Debug("provider %s has no structured output mode, returning raw text", provider)
	}

	return p.Complete(ctx, req, llm.Config{Model: model})
}

// Complete tries the given providers in order with each provider's default
// model and returns the first success, annotated with which provider
// answered. On exhaustion it returns an aggregate error carrying each
// provider's individual failure.
func (g *Gateway) Complete(ctx context.Context, providers []string, req *models.CompletionRequest) (*models.CompletionResult, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	agg := &llm.AggregateError{}
	tried := make(map[string]bool)
	attempt := 0

	for _, name := range providers {
		if tried[name] {
			continue
		}
		tried[name] = true

		resp, err := g.Invoke(ctx, name, g.defaults[name], req)
		if err != nil {
			logger.Warning("provider %s failed: %v", name, err)
			agg.Attempts = append(agg.Attempts, &llm.AttemptError{Provider: name, Err: err})
			attempt++
			continue
		}
		if resp.Error != "" {
			logger.Warning("provider %s returned error: %s", name, resp.Error)
			agg.Attempts = append(agg.Attempts, &llm.AttemptError{Provider: name, Err: fmt.Errorf("%s", resp.Error)})
			attempt++
			continue
		}

		return &models.CompletionResult{
			Text:         resp.Text,
			Provider:     name,
			Model:        resp.Model,
			UsedFallback: attempt > 0,
			TokensUsed:   resp.TokensUsed,
			LatencyMs:    resp.LatencyMs,
		}, nil
	}

	return nil, agg
}
