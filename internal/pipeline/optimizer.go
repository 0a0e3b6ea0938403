package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
	"github.com/temic137/formforge/internal/shared"
)

// Optimizer runs the best-effort refinement stages. Both stages follow the
// degrade-not-fail policy: callers pass the prior output through unchanged
// when a stage errors.
type Optimizer struct {
	exec Completer
}

// NewOptimizer creates the optimization stage runner
func NewOptimizer(exec Completer) *Optimizer {
	return &Optimizer{exec: exec}
}

const fieldTypePrompt = `Review the fields below and propose better field types where the current one is too generic. Respond with a JSON array and nothing else: [{"index": int, "type": string, "options": [string] (only for choice types)}]. Only include fields that should change. Valid types: text, textarea, email, phone, number, date, select, radio, checkbox, rating, url.`

const questionPrompt = `Improve the phrasing of the field labels below: clear, concise, directly addressed to the person filling the form. Respond with a JSON array and nothing else: [{"index": int, "label": string, "helpText": string, "placeholder": string}]. Only include fields whose phrasing you improved; omit attributes you leave unchanged.`

func fieldListing(fields []models.FieldSpec) string {
	var b strings.Builder
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. %q (type=%s", i, f.Label, f.Type)
		if len(f.Options) > 0 {
			fmt.Fprintf(&b, ", options=%s", strings.Join(f.Options, "|"))
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// FieldTypeRequest builds the field-type refinement request
func (o *Optimizer) FieldTypeRequest(fields []models.FieldSpec) *models.CompletionRequest {
	return &models.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: fieldTypePrompt},
			{Role: models.RoleUser, Content: fieldListing(fields)},
		},
		Temperature:      0.3,
		MaxTokens:        2048,
		StructuredOutput: true,
	}
}

// ApplyFieldTypes applies a refinement response defensively: unknown
// indices and types are ignored rather than corrupting the list.
func (o *Optimizer) ApplyFieldTypes(fields []models.FieldSpec, text string) ([]models.FieldSpec, error) {
	var changes []struct {
		Index   int      `json:"index"`
		Type    string   `json:"type"`
		Options []string `json:"options"`
	}
	if err := shared.DecodeModelJSON(text, &changes); err != nil {
		return nil, err
	}

	out := make([]models.FieldSpec, len(fields))
	copy(out, fields)
	for _, ch := range changes {
		if ch.Index < 0 || ch.Index >= len(out) {
			continue
		}
		out[ch.Index].Type = normalizeType(ch.Type)
		if len(ch.Options) > 0 {
			out[ch.Index].Options = ch.Options
		}
	}
	return out, nil
}

// QuestionRequest builds the question-enhancement request
func (o *Optimizer) QuestionRequest(fields []models.FieldSpec) *models.CompletionRequest {
	return &models.CompletionRequest{
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: questionPrompt},
			{Role: models.RoleUser, Content: fieldListing(fields)},
		},
		Temperature:      0.5,
		MaxTokens:        2048,
		StructuredOutput: true,
	}
}

// ApplyQuestions applies an enhancement response defensively
func (o *Optimizer) ApplyQuestions(fields []models.FieldSpec, text string) ([]models.FieldSpec, error) {
	var changes []struct {
		Index       int    `json:"index"`
		Label       string `json:"label"`
		HelpText    string `json:"helpText"`
		Placeholder string `json:"placeholder"`
	}
	if err := shared.DecodeModelJSON(text, &changes); err != nil {
		return nil, err
	}

	out := make([]models.FieldSpec, len(fields))
	copy(out, fields)
	for _, ch := range changes {
		if ch.Index < 0 || ch.Index >= len(out) {
			continue
		}
		if strings.TrimSpace(ch.Label) != "" {
			out[ch.Index].Label = strings.TrimSpace(ch.Label)
		}
		if ch.HelpText != "" {
			out[ch.Index].HelpText = ch.HelpText
		}
		if ch.Placeholder != "" {
			out[ch.Index].Placeholder = ch.Placeholder
		}
	}
	return out, nil
}

// RefineFieldTypes runs the field-type stage sequentially
func (o *Optimizer) RefineFieldTypes(ctx context.Context, fields []models.FieldSpec) ([]models.FieldSpec, *models.CompletionResult, error) {
	result, err := o.exec.Execute(ctx, router.PurposeFieldOptimization, o.FieldTypeRequest(fields))
	if err != nil {
		return nil, nil, err
	}
	out, err := o.ApplyFieldTypes(fields, result.Text)
	if err != nil {
		return nil, result, err
	}
	return out, result, nil
}

// EnhanceQuestions runs the question-phrasing stage sequentially
func (o *Optimizer) EnhanceQuestions(ctx context.Context, fields []models.FieldSpec) ([]models.FieldSpec, *models.CompletionResult, error) {
	result, err := o.exec.Execute(ctx, router.PurposeQuestionEnhancement, o.QuestionRequest(fields))
	if err != nil {
		return nil, nil, err
	}
	out, err := o.ApplyQuestions(fields, result.Text)
	if err != nil {
		return nil, result, err
	}
	return out, result, nil
}
