package models

import "strings"

// Message roles understood by every provider adapter
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents one LLM call, independent of the backend
// that ends up serving it. Messages must be non-empty.
type CompletionRequest struct {
	Messages         []Message `json:"messages"`
	Temperature      float64   `json:"temperature,omitempty"`
	MaxTokens        int       `json:"max_tokens,omitempty"`
	StructuredOutput bool      `json:"structured_output,omitempty"`
}

// Prompt flattens the message list into a single prompt string for
// backends that only accept plain text (e.g. Ollama's generate endpoint).
func (r *CompletionRequest) Prompt() string {
	var b strings.Builder
	for i, msg := range r.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(msg.Content)
	}
	return b.String()
}

// SystemPrompt returns the concatenated system messages, if any.
func (r *CompletionRequest) SystemPrompt() string {
	var parts []string
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// CompletionResult is the outcome of a completion request that succeeded
// somewhere along a fallback chain.
type CompletionResult struct {
	Text         string `json:"text"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	UsedFallback bool   `json:"used_fallback"`
	TokensUsed   int    `json:"tokens_used,omitempty"`
	LatencyMs    int64  `json:"latency_ms"`
}
