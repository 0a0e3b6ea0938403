package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/temic137/formforge/internal/models"
)

// Config carries per-call provider configuration
type Config struct {
	Model string
}

// Response represents a raw provider response. Transport-level failures are
// carried in Error with the latency still recorded, so callers can treat them
// as attempt outcomes rather than hard errors.
type Response struct {
	Text       string
	TokensUsed int
	LatencyMs  int64
	Model      string
	Provider   string
	Error      string
}

// Provider is the uniform capability every backend adapter implements
type Provider interface {
	// Name returns the provider name used in routing tables
	Name() string

	// Validate validates the provider configuration
	Validate(config map[string]string) error

	// SupportsStructuredOutput reports whether the backend guarantees
	// syntactically valid JSON when structured output is requested
	SupportsStructuredOutput() bool

	// Complete sends a completion request to the backend
	Complete(ctx context.Context, req *models.CompletionRequest, cfg Config) (*Response, error)

	// ListModels lists text models available from this provider
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}

// Registry holds the registered providers, keyed by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the names of all registered providers
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// AttemptError records the failure of one provider/model attempt
type AttemptError struct {
	Provider string
	Model    string
	Err      error
}

func (e *AttemptError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s/%s: %v", e.Provider, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// AggregateError is raised when every provider or model in a chain has been
// tried and failed. It carries one error per attempt, in attempt order.
type AggregateError struct {
	Attempts []*AttemptError
}

func (e *AggregateError) Error() string {
	if len(e.Attempts) == 0 {
		return "all attempts failed"
	}
	msg := fmt.Sprintf("all %d attempts failed", len(e.Attempts))
	for _, a := range e.Attempts {
		msg += "; " + a.Error()
	}
	return msg
}
