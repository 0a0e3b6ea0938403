package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/shared"
)

// SynthesisError is raised when stage 2 cannot produce a usable schema.
// Unlike analysis, an empty schema is not a usable degraded result.
type SynthesisError struct {
	Reason string
	Err    error
}

func (e *SynthesisError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema synthesis failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("schema synthesis failed: %s", e.Reason)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Instruction blocks composed into the synthesis prompt. Keeping them as
// data makes the instruction corpus testable independent of call sites.
const (
	blockBaseline = `Design a form schema for the brief. Respond with a single JSON object and nothing else:
{"title": string, "fields": [{"label": string, "type": "text"|"textarea"|"email"|"phone"|"number"|"date"|"select"|"radio"|"checkbox"|"rating"|"url", "required": boolean, "options": [string] (for select/radio/checkbox), "placeholder": string, "helpText": string, "quizConfig": {"correctAnswer": string, "points": int, "explanation": string} (quizzes only)}]}
Choose the most specific field type available. Keep labels short and unambiguous.`

	blockQuizDistractors = `This is a quiz. Every question needs a quizConfig with the correct answer. For choice questions, write plausible distractors of similar length and register to the correct option; never make the correct answer the longest option.`

	blockQuizCognitive = `Distribute questions across cognitive levels: roughly half recall, the rest application and analysis. Record the level in quizConfig.cognitiveLevel as "recall", "application" or "analysis".`

	blockSurveyScales = `This is a survey. Prefer rating scales with consistent direction (low to high) and 5 points. Label scale endpoints in helpText. Avoid double-barreled questions.`

	blockEventFields = `Event forms need an attendance question with Yes/No/Maybe options and, when guests are implied, a numeric guest-count field.`

	blockHealthcareCare = `Healthcare forms must ask only for information the brief justifies. Mark clinically relevant fields required and add a short helpText explaining why the data is needed.`

	blockEducationTone = `Education forms address students directly. Keep the reading level appropriate and group related questions.`

	blockFeedbackDesign = `Feedback forms lead with an overall rating, follow with specifics, and end with an open comment field.`

	blockComplexityCap = `Keep the form focused: prefer fewer, sharper questions over exhaustive coverage.`
)

// instructionRule selects instruction blocks by classification. The zero
// value "" for Domain/FormType matches anything; Quiz and Survey use
// "true"/"false"/"" semantics.
type instructionRule struct {
	Domain   string
	FormType string
	Quiz     string
	Survey   string
	Blocks   []string
}

var instructionRules = []instructionRule{
	{Blocks: []string{blockBaseline}},
	{Quiz: "true", Blocks: []string{blockQuizDistractors, blockQuizCognitive}},
	{Survey: "true", Quiz: "false", Blocks: []string{blockSurveyScales}},
	{Domain: "events", Quiz: "false", Blocks: []string{blockEventFields}},
	{Domain: "healthcare", Blocks: []string{blockHealthcareCare}},
	{Domain: "education", Quiz: "false", Blocks: []string{blockEducationTone}},
	{Domain: "feedback", Quiz: "false", Blocks: []string{blockFeedbackDesign}},
	{FormType: "application", Blocks: []string{blockComplexityCap}},
}

func (r instructionRule) matches(a *models.ContentAnalysis) bool {
	if r.Domain != "" && r.Domain != a.Domain {
		return false
	}
	if r.FormType != "" && r.FormType != a.FormType {
		return false
	}
	if r.Quiz != "" && r.Quiz != fmt.Sprintf("%t", a.IsQuiz) {
		return false
	}
	if r.Survey != "" && r.Survey != fmt.Sprintf("%t", a.IsSurvey) {
		return false
	}
	return true
}

// selectInstructionBlocks returns the ordered, deduplicated instruction
// blocks for a classification.
func selectInstructionBlocks(a *models.ContentAnalysis) []string {
	var blocks []string
	seen := make(map[string]bool)
	for _, rule := range instructionRules {
		if !rule.matches(a) {
			continue
		}
		for _, b := range rule.Blocks {
			if seen[b] {
				continue
			}
			seen[b] = true
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// SynthesizedSchema is the stage-2 candidate before merging and compilation
type SynthesizedSchema struct {
	Title  string
	Fields []models.FieldSpec
}

// Synthesizer runs stage 2: turn the analysis plus the original brief into
// a field-schema candidate.
type Synthesizer struct {
	exec Completer
}

// NewSynthesizer creates a stage-2 synthesizer
func NewSynthesizer(exec Completer) *Synthesizer {
	return &Synthesizer{exec: exec}
}

// Synthesize issues one completion call and validates the result. Reference
// data is passed here (and only here) as supporting context.
func (s *Synthesizer) Synthesize(ctx context.Context, brief, referenceData string, questionCount int, analysis *models.ContentAnalysis) (*SynthesizedSchema, *models.CompletionResult, error) {
	system := strings.Join(selectInstructionBlocks(analysis), "\n\n")

	var user strings.Builder
	fmt.Fprintf(&user, "Brief:\n%s\n\nClassification: domain=%s formType=%s tone=%s complexity=%s",
		brief, analysis.Domain, analysis.FormType, analysis.Tone, analysis.Complexity)
	if questionCount > 0 {
		fmt.Fprintf(&user, "\n\nThe form must contain exactly %d fields.", questionCount)
	}
	if len(analysis.SuggestedQuestions) > 0 {
		// Relationship edges index suggested-question positions, so the
		// prompt pins these to the head of the field list in order.
		user.WriteString("\n\nQuestions the analysis suggested. Cover these first, in this order, one field each, before any additional fields:")
		for _, q := range analysis.SuggestedQuestions {
			fmt.Fprintf(&user, "\n- %s", q.Question)
		}
	}
	if referenceData != "" {
		fmt.Fprintf(&user, "\n\nReference material (context only):\n%s", referenceData)
	}

	req := &models.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: system},
			{Role: models.RoleUser, Content: user.String()},
		},
		Temperature:      0.7,
		MaxTokens:        8192,
		StructuredOutput: true,
	}

	result, err := s.exec.Execute(ctx, router.PurposeSynthesis, req)
	if err != nil {
		return nil, nil, &SynthesisError{Reason: "model chain exhausted", Err: err}
	}

	var raw struct {
		Title  string `json:"title"`
		Fields []struct {
			Label       string                  `json:"label"`
			Type        string                  `json:"type"`
			Required    bool                    `json:"required"`
			Options     []string                `json:"options"`
			Placeholder string                  `json:"placeholder"`
			HelpText    string                  `json:"helpText"`
			Validation  *models.FieldValidation `json:"validation"`
			QuizConfig  *models.QuizConfig      `json:"quizConfig"`
		} `json:"fields"`
	}

	if err := shared.DecodeModelJSON(result.Text, &raw); err != nil {
		return nil, result, &SynthesisError{Reason: "unparsable model response", Err: err}
	}
	if strings.TrimSpace(raw.Title) == "" {
		return nil, result, &SynthesisError{Reason: "empty title"}
	}
	if len(raw.Fields) == 0 {
		return nil, result, &SynthesisError{Reason: "empty fields array"}
	}

	fields := make([]models.FieldSpec, 0, len(raw.Fields))
	for i, f := range raw.Fields {
		if strings.TrimSpace(f.Label) == "" {
			continue
		}
		fields = append(fields, models.FieldSpec{
			ID:          uuid.New().String(),
			Label:       strings.TrimSpace(f.Label),
			Type:        normalizeType(f.Type),
			Required:    f.Required,
			Options:     f.Options,
			Placeholder: f.Placeholder,
			HelpText:    f.HelpText,
			Validation:  f.Validation,
			QuizConfig:  f.QuizConfig,
			Order:       i,
		})
	}
	if len(fields) == 0 {
		return nil, result, &SynthesisError{Reason: "no usable fields in model response"}
	}

	return &SynthesizedSchema{Title: strings.TrimSpace(raw.Title), Fields: fields}, result, nil
}
