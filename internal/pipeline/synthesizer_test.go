package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
)

func TestSelectInstructionBlocksBaselineAlwaysFirst(t *testing.T) {
	blocks := selectInstructionBlocks(&models.ContentAnalysis{Domain: "general", FormType: "form"})
	require.NotEmpty(t, blocks)
	assert.Equal(t, blockBaseline, blocks[0])
}

func TestSelectInstructionBlocksQuiz(t *testing.T) {
	blocks := selectInstructionBlocks(&models.ContentAnalysis{
		Domain: "education", FormType: "quiz", IsQuiz: true,
	})
	assert.Contains(t, blocks, blockQuizDistractors)
	assert.Contains(t, blocks, blockQuizCognitive)
	// Quiz suppresses the education tone and survey blocks
	assert.NotContains(t, blocks, blockEducationTone)
	assert.NotContains(t, blocks, blockSurveyScales)
}

func TestSelectInstructionBlocksSurveyAndDomain(t *testing.T) {
	blocks := selectInstructionBlocks(&models.ContentAnalysis{
		Domain: "feedback", FormType: "survey", IsSurvey: true,
	})
	assert.Contains(t, blocks, blockSurveyScales)
	assert.Contains(t, blocks, blockFeedbackDesign)
	assert.NotContains(t, blocks, blockQuizDistractors)
}

func TestSynthesizeAssignsIDsAndOrder(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeSynthesis] = `{
		"title": "Event Registration",
		"fields": [
			{"label": "Full name", "type": "text", "required": true},
			{"label": "Ticket type", "type": "dropdown", "options": ["Standard", "VIP"]},
			{"label": "  ", "type": "text"},
			{"label": "Comments", "type": "paragraph"}
		]
	}`

	s := NewSynthesizer(fake)
	schema, result, err := s.Synthesize(context.Background(), "register for the event", "", 0, models.DefaultAnalysis())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Event Registration", schema.Title)
	// The blank label is dropped
	require.Len(t, schema.Fields, 3)

	seen := make(map[string]bool)
	for _, f := range schema.Fields {
		assert.NotEmpty(t, f.ID)
		assert.False(t, seen[f.ID])
		seen[f.ID] = true
	}
	assert.Equal(t, models.FieldSelect, schema.Fields[1].Type)
	assert.Equal(t, models.FieldTextarea, schema.Fields[2].Type)
}

func TestSynthesizeFatalOnUnparsable(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeSynthesis] = "sorry, no schema today"

	s := NewSynthesizer(fake)
	_, _, err := s.Synthesize(context.Background(), "brief", "", 0, models.DefaultAnalysis())
	require.Error(t, err)

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "unparsable model response", synthErr.Reason)
}

func TestSynthesizeFatalOnEmptyTitleOrFields(t *testing.T) {
	fake := newFakeCompleter()
	s := NewSynthesizer(fake)

	fake.responses[router.PurposeSynthesis] = `{"title": "", "fields": [{"label": "x", "type": "text"}]}`
	_, _, err := s.Synthesize(context.Background(), "brief", "", 0, models.DefaultAnalysis())
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "empty title", synthErr.Reason)

	fake.responses[router.PurposeSynthesis] = `{"title": "T", "fields": []}`
	_, _, err = s.Synthesize(context.Background(), "brief", "", 0, models.DefaultAnalysis())
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "empty fields array", synthErr.Reason)
}

func TestSynthesizeChainExhausted(t *testing.T) {
	fake := newFakeCompleter()
	fake.errs[router.PurposeSynthesis] = errors.New("all attempts failed")

	s := NewSynthesizer(fake)
	_, _, err := s.Synthesize(context.Background(), "brief", "", 0, models.DefaultAnalysis())
	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, "model chain exhausted", synthErr.Reason)
}

func TestSynthesizePinsSuggestedQuestionOrder(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeSynthesis] = `{"title": "T", "fields": [{"label": "x", "type": "text"}]}`

	analysis := models.DefaultAnalysis()
	analysis.SuggestedQuestions = []models.SuggestedQuestion{
		{Question: "How many guests?", FieldType: "number"},
		{Question: "Any dietary needs?", FieldType: "textarea"},
	}

	s := NewSynthesizer(fake)
	_, _, err := s.Synthesize(context.Background(), "the brief", "", 0, analysis)
	require.NoError(t, err)

	req := fake.lastRequest(router.PurposeSynthesis)
	require.NotNil(t, req)
	user := req.Messages[1].Content
	// Relationship edges index suggested-question positions, so the prompt
	// must pin the questions to the head of the field list in order.
	assert.Contains(t, user, "Cover these first, in this order")
	first := strings.Index(user, "How many guests?")
	second := strings.Index(user, "Any dietary needs?")
	require.GreaterOrEqual(t, first, 0)
	require.GreaterOrEqual(t, second, 0)
	assert.Less(t, first, second)
}

func TestSynthesizeReferenceDataOnlyInUserMessage(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeSynthesis] = `{"title": "T", "fields": [{"label": "x", "type": "text"}]}`

	s := NewSynthesizer(fake)
	_, _, err := s.Synthesize(context.Background(), "the brief", "reference corpus", 3, models.DefaultAnalysis())
	require.NoError(t, err)

	req := fake.lastRequest(router.PurposeSynthesis)
	require.NotNil(t, req)
	assert.NotContains(t, req.Messages[0].Content, "reference corpus")
	assert.Contains(t, req.Messages[1].Content, "reference corpus")
	assert.Contains(t, req.Messages[1].Content, "exactly 3 fields")
}
