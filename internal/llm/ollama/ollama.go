package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/temic137/formforge/internal/llm"
	"github.com/temic137/formforge/internal/models"
)

// Provider implements the LLM Provider interface for Ollama
type Provider struct {
	baseURL string
	client  *http.Client
}

// New creates a new Ollama provider
func New(baseURL string) *Provider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	return &Provider{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "ollama"
}

// Validate validates the provider configuration
func (p *Provider) Validate(config map[string]string) error {
	// Ollama doesn't require an API key, just a reachable endpoint
	return nil
}

// SupportsStructuredOutput reports JSON-mode support (format=json)
func (p *Provider) SupportsStructuredOutput() bool {
	return true
}

// Complete sends a completion request to Ollama and returns the response
func (p *Provider) Complete(ctx context.Context, req *models.CompletionRequest, cfg llm.Config) (*llm.Response, error) {
	startTime := time.Now()

	model := "llama3"
	if cfg.Model != "" {
		model = cfg.Model
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.7
	}

	requestBody := map[string]interface{}{
		"model":  model,
		"prompt": req.Prompt(),
		"stream": false,
		"options": map[string]interface{}{
			"temperature": temperature,
		},
	}
	if system := req.SystemPrompt(); system != "" {
		requestBody["system"] = system
	}
	if req.StructuredOutput {
		requestBody["format"] = "json"
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/api/generate", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return &llm.Response{
			Error:     err.Error(),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &llm.Response{
			Error:     fmt.Sprintf("API error: %s", string(body)),
			LatencyMs: time.Since(startTime).Milliseconds(),
		}, nil
	}

	var ollamaResp struct {
		Model    string `json:"model"`
		Response string `json:"response"`
		Done     bool   `json:"done"`
		Context  []int  `json:"context"`
	}

	if err := json.Unmarshal(body, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	// Ollama doesn't report token usage directly, estimate from context length
	tokensUsed := len(ollamaResp.Context)

	return &llm.Response{
		Text:       ollamaResp.Response,
		TokensUsed: tokensUsed,
		LatencyMs:  time.Since(startTime).Milliseconds(),
		Model:      ollamaResp.Model,
		Provider:   "ollama",
	}, nil
}

// ListModels lists models available on the local Ollama instance
func (p *Provider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s", string(body))
	}

	var tagsResp struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.Unmarshal(body, &tagsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	modelList := make([]models.ModelInfo, 0, len(tagsResp.Models))
	for _, model := range tagsResp.Models {
		modelList = append(modelList, models.ModelInfo{
			ID:          model.Name,
			Name:        model.Name,
			Description: fmt.Sprintf("Ollama %s", model.Name),
		})
	}

	return modelList, nil
}
