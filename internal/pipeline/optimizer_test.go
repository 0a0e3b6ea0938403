package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
)

func optimizerFixture() []models.FieldSpec {
	return []models.FieldSpec{
		{ID: "f0", Label: "Contact", Type: models.FieldText},
		{ID: "f1", Label: "When were you born", Type: models.FieldText},
	}
}

func TestApplyFieldTypes(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())

	out, err := o.ApplyFieldTypes(optimizerFixture(), `[
		{"index": 0, "type": "phone"},
		{"index": 1, "type": "date"}
	]`)
	require.NoError(t, err)
	assert.Equal(t, models.FieldPhone, out[0].Type)
	assert.Equal(t, models.FieldDate, out[1].Type)
}

func TestApplyFieldTypesIgnoresBadIndicesAndTypes(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())
	fields := optimizerFixture()

	out, err := o.ApplyFieldTypes(fields, `[
		{"index": -1, "type": "phone"},
		{"index": 99, "type": "phone"},
		{"index": 0, "type": "quantum"}
	]`)
	require.NoError(t, err)
	// Unknown types normalize to text, out-of-range indices are skipped
	assert.Equal(t, models.FieldText, out[0].Type)
	assert.Equal(t, models.FieldText, out[1].Type)
	// Inputs are never mutated
	assert.Equal(t, models.FieldText, fields[0].Type)
}

func TestApplyFieldTypesSetsOptions(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())

	out, err := o.ApplyFieldTypes(optimizerFixture(), `[
		{"index": 0, "type": "radio", "options": ["Email", "Phone"]}
	]`)
	require.NoError(t, err)
	assert.Equal(t, models.FieldRadio, out[0].Type)
	assert.Equal(t, []string{"Email", "Phone"}, out[0].Options)
}

func TestApplyQuestions(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())

	out, err := o.ApplyQuestions(optimizerFixture(), `[
		{"index": 1, "label": "What is your date of birth?", "helpText": "DD/MM/YYYY", "placeholder": "01/01/1990"}
	]`)
	require.NoError(t, err)
	assert.Equal(t, "Contact", out[0].Label)
	assert.Equal(t, "What is your date of birth?", out[1].Label)
	assert.Equal(t, "DD/MM/YYYY", out[1].HelpText)
	assert.Equal(t, "01/01/1990", out[1].Placeholder)
}

func TestApplyQuestionsKeepsLabelWhenBlank(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())

	out, err := o.ApplyQuestions(optimizerFixture(), `[{"index": 0, "label": "  "}]`)
	require.NoError(t, err)
	assert.Equal(t, "Contact", out[0].Label)
}

func TestApplyRejectsUnparsableResponse(t *testing.T) {
	o := NewOptimizer(newFakeCompleter())

	_, err := o.ApplyFieldTypes(optimizerFixture(), "no json")
	assert.Error(t, err)
	_, err = o.ApplyQuestions(optimizerFixture(), "no json")
	assert.Error(t, err)
}

func TestRefineFieldTypesEndToEnd(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeFieldOptimization] = `[{"index": 0, "type": "phone"}]`

	o := NewOptimizer(fake)
	out, result, err := o.RefineFieldTypes(context.Background(), optimizerFixture())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.FieldPhone, out[0].Type)

	req := fake.lastRequest(router.PurposeFieldOptimization)
	require.NotNil(t, req)
	assert.Contains(t, req.Messages[1].Content, "Contact")
}

func TestEnhanceQuestionsEndToEnd(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeQuestionEnhancement] = `[{"index": 0, "label": "How should we contact you?"}]`

	o := NewOptimizer(fake)
	out, _, err := o.EnhanceQuestions(context.Background(), optimizerFixture())
	require.NoError(t, err)
	assert.Equal(t, "How should we contact you?", out[0].Label)
}
