package router

import (
	"fmt"
	"sync"
)

// Task purposes used to select a preferred model
const (
	PurposeAnalysis            = "content_analysis"
	PurposeSynthesis           = "schema_synthesis"
	PurposeFieldOptimization   = "field_optimization"
	PurposeQuestionEnhancement = "question_enhancement"
)

// ModelDescriptor describes a callable backend model
type ModelDescriptor struct {
	ID               string   `json:"id" yaml:"id"`
	Provider         string   `json:"provider" yaml:"provider"`
	MaxRPM           int      `json:"max_rpm,omitempty" yaml:"max_rpm,omitempty"`
	Strengths        []string `json:"strengths,omitempty" yaml:"strengths,omitempty"`
	Purposes         []string `json:"purposes" yaml:"purposes"`
	AvgLatencyMs     int64    `json:"avg_latency_ms,omitempty" yaml:"avg_latency_ms,omitempty"`
	StructuredOutput bool     `json:"structured_output" yaml:"structured_output"`
}

// PurposeRoute maps a purpose to an ordered model chain
type PurposeRoute struct {
	Purpose   string   `json:"purpose" yaml:"purpose"`
	Primary   string   `json:"primary" yaml:"primary"`
	Fallbacks []string `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// Router is a static purpose-indexed routing table. Lookups are pure; the
// only mutation after construction is the rolling average latency refresh.
type Router struct {
	mu     sync.RWMutex
	models map[string]*ModelDescriptor
	routes map[string]PurposeRoute
}

// New builds a router from a descriptor table and a route table, validating
// both: every model must declare at least one purpose, every route must name
// known models, and a primary must never reappear among its own fallbacks.
func New(descriptors []ModelDescriptor, routes []PurposeRoute) (*Router, error) {
	r := &Router{
		models: make(map[string]*ModelDescriptor, len(descriptors)),
		routes: make(map[string]PurposeRoute, len(routes)),
	}

	for i := range descriptors {
		d := descriptors[i]
		if d.ID == "" {
			return nil, fmt.Errorf("model descriptor %d has no id", i)
		}
		if d.Provider == "" {
			return nil, fmt.Errorf("model %s has no provider", d.ID)
		}
		if len(d.Purposes) == 0 {
			return nil, fmt.Errorf("model %s declares no purposes", d.ID)
		}
		if _, exists := r.models[d.ID]; exists {
			return nil, fmt.Errorf("duplicate model id: %s", d.ID)
		}
		r.models[d.ID] = &d
	}

	for _, route := range routes {
		if route.Purpose == "" {
			return nil, fmt.Errorf("route has no purpose")
		}
		if route.Primary == "" {
			return nil, fmt.Errorf("route %s has no primary model", route.Purpose)
		}
		if _, ok := r.models[route.Primary]; !ok {
			return nil, fmt.Errorf("route %s names unknown primary model %s", route.Purpose, route.Primary)
		}
		for _, fb := range route.Fallbacks {
			if fb == route.Primary {
				return nil, fmt.Errorf("route %s repeats primary %s in fallbacks", route.Purpose, route.Primary)
			}
			if _, ok := r.models[fb]; !ok {
				return nil, fmt.Errorf("route %s names unknown fallback model %s", route.Purpose, fb)
			}
		}
		r.routes[route.Purpose] = route
	}

	return r, nil
}

// GetPrimary returns the primary model id for a purpose
func (r *Router) GetPrimary(purpose string) (string, error) {
	route, ok := r.routes[purpose]
	if !ok {
		return "", fmt.Errorf("no route for purpose: %s", purpose)
	}
	return route.Primary, nil
}

// GetFallbacks returns the ordered fallback model ids for a purpose
func (r *Router) GetFallbacks(purpose string) []string {
	route, ok := r.routes[purpose]
	if !ok {
		return nil
	}
	fallbacks := make([]string, len(route.Fallbacks))
	copy(fallbacks, route.Fallbacks)
	return fallbacks
}

// Chain returns the full ordered model chain for a purpose, primary first,
// with duplicate fallback entries removed.
func (r *Router) Chain(purpose string) ([]ModelDescriptor, error) {
	route, ok := r.routes[purpose]
	if !ok {
		return nil, fmt.Errorf("no route for purpose: %s", purpose)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{route.Primary: true}
	chain := []ModelDescriptor{*r.models[route.Primary]}
	for _, fb := range route.Fallbacks {
		if seen[fb] {
			continue
		}
		seen[fb] = true
		chain = append(chain, *r.models[fb])
	}
	return chain, nil
}

// Descriptor returns a copy of the descriptor for a model id
func (r *Router) Descriptor(modelID string) (ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.models[modelID]
	if !ok {
		return ModelDescriptor{}, false
	}
	return *d, true
}

// Models returns copies of all registered model descriptors
func (r *Router) Models() []ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelDescriptor, 0, len(r.models))
	for _, d := range r.models {
		out = append(out, *d)
	}
	return out
}

// Routes returns all configured purpose routes
func (r *Router) Routes() []PurposeRoute {
	out := make([]PurposeRoute, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out
}

// SetAvgLatency folds a refreshed average latency into a model descriptor
func (r *Router) SetAvgLatency(modelID string, avgMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.models[modelID]; ok {
		d.AvgLatencyMs = avgMs
	}
}
