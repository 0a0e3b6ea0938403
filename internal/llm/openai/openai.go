package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/models"
)

// Provider implements the LLM Provider interface for OpenAI
type Provider struct {
	apiKey string
	client openai.Client
}

// New creates a new OpenAI provider
func New(apiKey, baseURL string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Provider{
		apiKey: apiKey,
		client: openai.NewClient(opts...),
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "openai"
}

// Validate validates the provider configuration
func (p *Provider) Validate(config map[string]string) error {
	if config["api_key"] == "" {
		return fmt.Errorf("api_key is required")
	}
	return nil
}

// SupportsStructuredOutput reports JSON-mode support
func (p *Provider) SupportsStructuredOutput() bool {
	return true
}

// Complete sends a completion request to OpenAI and returns the response
func (p *Provider) Complete(ctx context.Context, req *models.CompletionRequest, cfg llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "gpt-4o-mini"
	if cfg.Model != "" {
		model = cfg.Model
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case models.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case models.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: msgs,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.StructuredOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return &llm.Response{
			Error:     err.Error(),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	if len(resp.Choices) == 0 {
		return &llm.Response{
			Error:     "no choices returned from API",
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	return &llm.Response{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      resp.Model,
		Provider:   "openai",
	}, nil
}

// ListModels lists available text-to-text models from OpenAI
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	// Filter for GPT chat models only
	var textModels []models.ModelInfo
	seen := make(map[string]bool)

	for _, model := range page.Data {
		modelID := strings.ToLower(model.ID)

		if !strings.HasPrefix(modelID, "gpt-") || seen[model.ID] {
			continue
		}

		// Skip fine-tuned models (contains colons)
		if strings.Contains(model.ID, ":") {
			continue
		}

		// Skip embedding, image and audio models
		if strings.Contains(modelID, "embed") || strings.Contains(modelID, "embedding") ||
			strings.Contains(modelID, "vision") || strings.Contains(modelID, "image") ||
			strings.Contains(modelID, "whisper") || strings.Contains(modelID, "audio") {
			continue
		}

		textModels = append(textModels, models.ModelInfo{
			ID:          model.ID,
			Name:        model.ID,
			Description: fmt.Sprintf("OpenAI %s", model.ID),
		})
		seen[model.ID] = true
	}

	return textModels, nil
}
