package perplexity

import (
	"context"
	"fmt"
	"time"

	pplx "github.com/sgaunet/perplexity-go/v2"

	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/models"
)

// Provider implements the LLM Provider interface for Perplexity
type Provider struct {
	apiKey string
	client *pplx.Client
}

// New creates a new Perplexity provider
func New(apiKey string) *Provider {
	return &Provider{
		apiKey: apiKey,
		client: pplx.NewClient(apiKey),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "perplexity"
}

// Validate validates the provider configuration
func (p *Provider) Validate(config map[string]string) error {
	if config["api_key"] == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}

// SupportsStructuredOutput reports JSON-mode support. Perplexity returns
// free text; callers must repair the raw output themselves.
func (p *Provider) SupportsStructuredOutput() bool {
	return false
}

// Complete sends a completion request to Perplexity and returns the response
func (p *Provider) Complete(ctx context.Context, req *models.CompletionRequest, cfg llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "sonar"
	if cfg.Model != "" {
		model = cfg.Model
	}

	msgs := make([]pplx.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		msgs = append(msgs, pplx.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	completionReq := pplx.NewCompletionRequest(
		pplx.WithMessages(msgs),
		pplx.WithModel(model),
	)

	if err := ctx.Err(); err != nil {
		return &llm.Response{
			Error:     err.Error(),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	// The client library takes no context, so the blocking call runs in a
	// goroutine raced against ctx. On expiry the eventual result is
	// discarded; the buffered channel lets the goroutine exit either way.
	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := p.client.SendCompletionRequest(completionReq)
		if err != nil {
			done <- outcome{err: err}
			return
		}
		done <- outcome{text: res.GetLastContent()}
	}()

	select {
	case <-ctx.Done():
		return &llm.Response{
			Error:     ctx.Err().Error(),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	case out := <-done:
		if out.err != nil {
			return &llm.Response{
				Error:     out.err.Error(),
				LatencyMs: time.Since(startTime).Milliseconds(),
			}, nil
		}
		return &llm.Response{
			Text:      out.text,
			LatencyMs: time.Since(startTime).Milliseconds(),
			Model:     model,
			Provider:  "perplexity",
		}, nil
	}
}

// ListModels lists available Perplexity models.
// Perplexity has no public models API, so this returns a curated list.
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	return []models.ModelInfo{
		{
			ID:          "sonar",
			Name:        "Sonar",
			Description: "Fast general-purpose model with search grounding",
		},
		{
			ID:          "sonar-pro",
			Name:        "Sonar Pro",
			Description: "Higher-quality model for complex tasks",
		},
	}, nil
}
