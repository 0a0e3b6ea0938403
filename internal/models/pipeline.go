package models

import "time"

// Question count bounds applied to pipeline input
const (
	MinQuestionCount = 1
	MaxQuestionCount = 120
)

// GenerateRequest is the pipeline input. Content is required; ReferenceData
// is contextual material for synthesis only and is never passed to the
// classification instruction. QuestionCount is a pointer so an absent count
// (synthesizer chooses) is distinguishable from an explicit value.
type GenerateRequest struct {
	Content       string `json:"content" binding:"required"`
	ReferenceData string `json:"reference_data,omitempty"`
	UserContext   string `json:"user_context,omitempty"`
	QuestionCount *int   `json:"question_count,omitempty"`
}

// ClampQuestionCount bounds a requested question count to [1, 120].
func ClampQuestionCount(n int) int {
	if n < MinQuestionCount {
		return MinQuestionCount
	}
	if n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return n
}

// GenerateOptions selects optional pipeline behavior
type GenerateOptions struct {
	SkipFieldOptimization   bool `json:"skip_field_optimization,omitempty"`
	SkipQuestionEnhancement bool `json:"skip_question_enhancement,omitempty"`
	ParallelOptimization    bool `json:"parallel_optimization,omitempty"`
}

// Pipeline stage names, in execution order
const (
	StageAnalyzing    = "analyzing"
	StageSynthesizing = "synthesizing"
	StageOptimizing   = "optimizing"
	StageMerging      = "merging"
	StageCompiling    = "compiling"
)

// StageRecord captures one completed stage of a run
type StageRecord struct {
	Name      string `json:"name"`
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// PipelineRun accumulates observability data for one end-to-end execution.
// Stages is append-only while the run is in flight.
type PipelineRun struct {
	ID             string        `json:"id"`
	Stages         []StageRecord `json:"stages"`
	ModelsUsed     []string      `json:"models_used"`
	Warnings       []string      `json:"warnings,omitempty"`
	TotalLatencyMs int64         `json:"total_latency_ms"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    time.Time     `json:"completed_at"`
}

// StageNames returns the names of completed stages in order.
func (r *PipelineRun) StageNames() []string {
	names := make([]string, len(r.Stages))
	for i, s := range r.Stages {
		names[i] = s.Name
	}
	return names
}

// RecordStage appends a completed stage and remembers the model that served it.
func (r *PipelineRun) RecordStage(name, model string, latencyMs int64) {
	r.Stages = append(r.Stages, StageRecord{Name: name, Model: model, LatencyMs: latencyMs})
	if model == "" {
		return
	}
	for _, m := range r.ModelsUsed {
		if m == model {
			return
		}
	}
	r.ModelsUsed = append(r.ModelsUsed, model)
}
