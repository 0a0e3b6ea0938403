package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/models"
)

// Provider implements the LLM Provider interface for Google AI
type Provider struct {
	apiKey string
	client *genai.Client
}

// New creates a new Google provider
func New(apiKey string) *Provider {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		client = nil
	}

	return &Provider{
		apiKey: apiKey,
		client: client,
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "google"
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

// Complete sends a completion request to Google AI and returns the response
func (p *Provider) Complete(ctx context.Context, req *models.CompletionRequest, cfg llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "gemini-2.0-flash"
	if cfg.Model != "" {
		model = cfg.Model
	}

	client := p.client
	if client == nil {
		var err error
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google client: %w", err)
		}
	}

	var content []*genai.Content
	for _, msg := range req.Messages {
		if msg.Role == models.RoleSystem {
			continue
		}
		role := "user"
		if msg.Role == models.RoleAssistant {
			role = "model"
		}
		content = append(content, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	generationConfig := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		generationConfig.Temperature = float32Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		generationConfig.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.StructuredOutput {
		generationConfig.ResponseMIMEType = "application/json"
	}
	if system := req.SystemPrompt(); system != "" {
		generationConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, content, generationConfig)
	if err != nil {
		return &llm.Response{
			Error:     fmt.Sprintf("Google AI API error: %v", err),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	var generatedText string
	if len(result.Candidates) > 0 && result.Candidates[0].Content != nil && len(result.Candidates[0].Content.Parts) > 0 {
		if text := result.Candidates[0].Content.Parts[0].Text; text != "" {
			generatedText = text
		}
	}

	tokensUsed := 0
	if result.UsageMetadata != nil {
		tokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}

	return &llm.Response{
		Text:       generatedText,
		TokensUsed: tokensUsed,
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      model,
		Provider:   "google",
	}, nil
}

// ListModels lists available Google AI models
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	client := p.client
	if client == nil {
		var err error
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  p.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Google client: %w", err)
		}
	}

	modelPage, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var modelList []models.ModelInfo
	for _, model := range modelPage.Items {
		lower := strings.ToLower(model.Name)

		if strings.Contains(lower, "embed") || strings.Contains(lower, "embedding") ||
			strings.Contains(lower, "vision") || strings.Contains(lower, "image") {
			continue
		}

		if strings.Contains(lower, "gemini") {
			name := strings.TrimPrefix(model.Name, "models/")
			modelList = append(modelList, models.ModelInfo{
				ID:          model.Name,
				Name:        name,
				Description: model.Description,
			})
		}
	}

	return modelList, nil
}

func float32Ptr(f float32) *float32 {
	return &f
}
