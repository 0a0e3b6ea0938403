package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/temic137/formforge/internal/executor"
	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/shared"
)

// Completer drives purpose-routed completions. *executor.Executor satisfies
// it; tests substitute fakes.
type Completer interface {
	Execute(ctx context.Context, purpose string, req *models.CompletionRequest) (*models.CompletionResult, error)
	Dispatch(ctx context.Context, tasks []executor.Task) map[string]executor.TaskResult
}

// Analyzer runs stage 1: classify the input and extract entities,
// suggested questions and a relationship graph.
type Analyzer struct {
	exec Completer
}

// NewAnalyzer creates a stage-1 analyzer
func NewAnalyzer(exec Completer) *Analyzer {
	return &Analyzer{exec: exec}
}

const analysisSystemPrompt = `You classify content for form generation. Respond with a single JSON object and nothing else:
{
  "documentType": "prompt" | "document" | "webpage",
  "domain": string (e.g. "events", "healthcare", "education", "feedback", "general"),
  "formType": "form" | "quiz" | "survey" | "registration" | "application",
  "isQuiz": boolean,
  "isSurvey": boolean,
  "tone": "professional" | "casual" | "formal" | "friendly",
  "complexity": "simple" | "moderate" | "complex",
  "entities": [{"name": string, "type": string}],
  "suggestedQuestions": [{"question": string, "fieldType": string}],
  "relationships": [{"from": int, "to": int, "type": "depends_on" | "requires" | "validates" | "thresholds"}],
  "confidence": number between 0 and 1
}
Relationship indices refer to positions in suggestedQuestions.`

// Analyze classifies the content. Reference data is deliberately not part of
// this call: it is contextual material for synthesis only and must never
// influence classification. This stage degrades rather than fails: a
// structurally invalid response yields the all-default analysis. The only
// fatal outcome is the whole model chain being exhausted.
func (a *Analyzer) Analyze(ctx context.Context, content, userContext string) (*models.ContentAnalysis, *models.CompletionResult, error) {
	user := fmt.Sprintf("Content to classify:\n%s", content)
	if userContext != "" {
		user += fmt.Sprintf("\n\nAdditional context from the user:\n%s", userContext)
	}

	req := &models.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: analysisSystemPrompt},
			{Role: models.RoleUser, Content: user},
		},
		Temperature:      0.2,
		MaxTokens:        2048,
		StructuredOutput: true,
	}

	result, err := a.exec.Execute(ctx, router.PurposeAnalysis, req)
	if err != nil {
		return nil, nil, fmt.Errorf("content analysis chain exhausted: %w", err)
	}

	var raw struct {
		DocumentType       string                     `json:"documentType"`
		Domain             string                     `json:"domain"`
		FormType           string                     `json:"formType"`
		IsQuiz             bool                       `json:"isQuiz"`
		IsSurvey           bool                       `json:"isSurvey"`
		Tone               string                     `json:"tone"`
		Complexity         string                     `json:"complexity"`
		Entities           []models.Entity            `json:"entities"`
		SuggestedQuestions []models.SuggestedQuestion `json:"suggestedQuestions"`
		Relationships      []models.RelationshipEdge  `json:"relationships"`
		Confidence         float64                    `json:"confidence"`
	}

	if err := shared.DecodeModelJSON(result.Text, &raw); err != nil {
		logger.Warning("Content analysis response unparsable, falling back to defaults: %v", err)
		return models.DefaultAnalysis(), result, nil
	}

	analysis := &models.ContentAnalysis{
		DocumentType:       defaultIfEmpty(raw.DocumentType, models.DefaultDocumentType),
		Domain:             defaultIfEmpty(strings.ToLower(raw.Domain), models.DefaultDomain),
		FormType:           defaultIfEmpty(strings.ToLower(raw.FormType), models.DefaultFormType),
		IsQuiz:             raw.IsQuiz,
		IsSurvey:           raw.IsSurvey,
		Tone:               defaultIfEmpty(raw.Tone, models.DefaultTone),
		Complexity:         defaultIfEmpty(raw.Complexity, models.DefaultComplexity),
		Entities:           raw.Entities,
		SuggestedQuestions: raw.SuggestedQuestions,
		Relationships:      raw.Relationships,
		Confidence:         clamp01(raw.Confidence),
	}

	// List fields default to empty, never nil
	if analysis.Entities == nil {
		analysis.Entities = []models.Entity{}
	}
	if analysis.SuggestedQuestions == nil {
		analysis.SuggestedQuestions = []models.SuggestedQuestion{}
	}
	if analysis.Relationships == nil {
		analysis.Relationships = []models.RelationshipEdge{}
	}

	if analysis.FormType == "quiz" {
		analysis.IsQuiz = true
	}
	if analysis.FormType == "survey" {
		analysis.IsSurvey = true
	}

	return analysis, result, nil
}

func defaultIfEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
