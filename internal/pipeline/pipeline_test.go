package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temic137/formforge/internal/executor"
	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
)

// fakeCompleter scripts completion responses per purpose and counts calls.
type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     map[string]int
	requests  map[string]*models.CompletionRequest
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{
		responses: make(map[string]string),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
		requests:  make(map[string]*models.CompletionRequest),
	}
}

func (f *fakeCompleter) Execute(ctx context.Context, purpose string, req *models.CompletionRequest) (*models.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[purpose]++
	f.requests[purpose] = req
	if err, ok := f.errs[purpose]; ok {
		return nil, err
	}
	return &models.CompletionResult{
		Text:     f.responses[purpose],
		Provider: "fake",
		Model:    "fake-" + purpose,
	}, nil
}

func (f *fakeCompleter) Dispatch(ctx context.Context, tasks []executor.Task) map[string]executor.TaskResult {
	results := make(map[string]executor.TaskResult, len(tasks))
	for _, task := range tasks {
		result, err := f.Execute(ctx, task.Purpose, task.Request)
		results[task.ID] = executor.TaskResult{TaskID: task.ID, Result: result, Err: err}
	}
	return results
}

func (f *fakeCompleter) callCount(purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[purpose]
}

func (f *fakeCompleter) lastRequest(purpose string) *models.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[purpose]
}

func analysisJSON(t *testing.T, a map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(a)
	require.NoError(t, err)
	return string(data)
}

func synthesisJSON(t *testing.T, title string, fields []map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"title": title, "fields": fields})
	require.NoError(t, err)
	return string(data)
}

func skipAll() models.GenerateOptions {
	return models.GenerateOptions{SkipFieldOptimization: true, SkipQuestionEnhancement: true}
}

func intPtr(n int) *int { return &n }

func TestGenerateRequiresContent(t *testing.T) {
	p := New(newFakeCompleter())
	_, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "   "}, skipAll())
	assert.Error(t, err)
}

func TestGenerateSkippedStagesAreNeverInvoked(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "form", "confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Contact", []map[string]interface{}{
		{"label": "Full name", "type": "text"},
		{"label": "Email address", "type": "email"},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "contact form"}, skipAll())
	require.NoError(t, err)
	require.NotNil(t, result.Schema)

	assert.Equal(t, 0, fake.callCount(router.PurposeFieldOptimization))
	assert.Equal(t, 0, fake.callCount(router.PurposeQuestionEnhancement))
	assert.NotContains(t, result.Run.StageNames(), models.StageOptimizing)
}

func TestGenerateWeddingRSVP(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"documentType": "prompt",
		"domain":       "events",
		"formType":     "form",
		"tone":         "friendly",
		"confidence":   0.95,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Wedding RSVP", []map[string]interface{}{
		{"label": "Your name", "type": "text", "required": true},
		{"label": "Meal preference", "type": "select", "options": []string{"Chicken", "Fish", "Vegetarian"}},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{
		Content: "wedding rsvp with meal preference and plus one",
	}, skipAll())
	require.NoError(t, err)

	var attendance, guests *models.FieldSpec
	for i := range result.Schema.Fields {
		f := &result.Schema.Fields[i]
		switch normalizeLabel(f.Label) {
		case "will you attend":
			attendance = f
		case "number of guests":
			guests = f
		}
	}

	require.NotNil(t, attendance, "expected an attendance field")
	assert.Equal(t, models.FieldRadio, attendance.Type)
	assert.ElementsMatch(t, []string{"Yes", "No", "Maybe"}, attendance.Options)

	require.NotNil(t, guests, "expected a guest-count field")
	assert.Equal(t, models.FieldNumber, guests.Type)

	// The synthesized meal preference covers the suggestion by label, so it
	// must not be duplicated.
	mealCount := 0
	for _, f := range result.Schema.Fields {
		if normalizeLabel(f.Label) == "meal preference" {
			mealCount++
		}
	}
	assert.Equal(t, 1, mealCount)
}

func TestGenerateQuizScenario(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "quiz", "isQuiz": true, "confidence": 0.9,
	})

	fields := make([]map[string]interface{}, 5)
	for i := range fields {
		fields[i] = map[string]interface{}{
			"label":   fmt.Sprintf("Trivia question %d", i+1),
			"type":    "radio",
			"options": []string{"A", "B", "C", "D"},
			"quizConfig": map[string]interface{}{
				"correctAnswer": "A",
			},
		}
	}
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Trivia Quiz", fields)

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{
		Content:       "5 question trivia quiz",
		QuestionCount: intPtr(5),
	}, skipAll())
	require.NoError(t, err)

	assert.Len(t, result.Schema.Fields, 5)
	require.NotNil(t, result.Schema.QuizMode)
	assert.True(t, result.Schema.QuizMode.Enabled)
	assert.Equal(t, 70, result.Schema.QuizMode.PassingScore)

	for _, f := range result.Schema.Fields {
		require.NotNil(t, f.QuizConfig, "field %q has no quiz config", f.Label)
		assert.NotEmpty(t, f.QuizConfig.CorrectAnswer)
		// Omitted points default to 1
		assert.Equal(t, 1, f.QuizConfig.Points)
	}

	// The synthesis prompt carries the exact count
	synthReq := fake.lastRequest(router.PurposeSynthesis)
	require.NotNil(t, synthReq)
	assert.Contains(t, synthReq.Messages[1].Content, "exactly 5 fields")
}

func TestGenerateQuizWithoutCountHasNoAnswerlessFields(t *testing.T) {
	// With no explicit count nothing is truncated, so analyzer-suggested
	// questions must not reach a quiz as plain fields without a correct
	// answer.
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "quiz", "isQuiz": true, "confidence": 0.9,
		"suggestedQuestions": []map[string]interface{}{
			{"question": "What year was the company founded?", "fieldType": "number"},
			{"question": "Who is the current CEO?", "fieldType": "text"},
		},
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Company Quiz", []map[string]interface{}{
		{
			"label": "What year was the company founded?", "type": "radio",
			"options":    []string{"1998", "2004", "2010"},
			"quizConfig": map[string]interface{}{"correctAnswer": "2004"},
		},
		{
			"label": "Who is the current CEO?", "type": "text",
			"quizConfig": map[string]interface{}{"correctAnswer": "Jordan Lee"},
		},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{
		Content: "quiz about the company",
	}, skipAll())
	require.NoError(t, err)

	require.Len(t, result.Schema.Fields, 2)
	for _, f := range result.Schema.Fields {
		require.NotNil(t, f.QuizConfig, "field %q has no quiz config", f.Label)
		assert.NotEmpty(t, f.QuizConfig.CorrectAnswer)
	}
}

func TestGenerateTruncatesToQuestionCount(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "quiz", "isQuiz": true, "confidence": 0.8,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Quiz", []map[string]interface{}{
		{"label": "Q1", "type": "text"},
		{"label": "Q2", "type": "text"},
		{"label": "Q3", "type": "text"},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{
		Content:       "short quiz",
		QuestionCount: intPtr(2),
	}, skipAll())
	require.NoError(t, err)
	assert.Len(t, result.Schema.Fields, 2)
}

func TestGenerateAnalyzerUnparsableStillCompletes(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = "I could not classify that, sorry!"
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Generic Form", []map[string]interface{}{
		{"label": "Full name", "type": "text"},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "something vague"}, skipAll())
	require.NoError(t, err)

	// Classification fell back to defaults, synthesis still ran
	assert.Equal(t, models.DefaultFormType, result.Schema.Metadata.FormType)
	assert.Equal(t, models.DefaultDomain, result.Schema.Metadata.Domain)
	assert.NotEmpty(t, result.Schema.Fields)
}

func TestGenerateAnalysisChainExhaustedIsFatal(t *testing.T) {
	fake := newFakeCompleter()
	fake.errs[router.PurposeAnalysis] = errors.New("all 2 attempts failed")

	p := New(fake)
	_, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "anything"}, skipAll())
	require.Error(t, err)
	assert.Equal(t, 0, fake.callCount(router.PurposeSynthesis))
}

func TestGenerateSynthesisFailureIsFatal(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "form", "confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = "no json here"

	p := New(fake)
	_, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "anything"}, skipAll())
	require.Error(t, err)

	var synthErr *SynthesisError
	assert.ErrorAs(t, err, &synthErr)
}

func TestGenerateOptimizationFailureDegrades(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "form", "confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Form", []map[string]interface{}{
		{"label": "Full name", "type": "text"},
		{"label": "Email address", "type": "email"},
	})
	fake.errs[router.PurposeFieldOptimization] = errors.New("chain exhausted")
	fake.errs[router.PurposeQuestionEnhancement] = errors.New("chain exhausted")

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "contact form"}, models.GenerateOptions{})
	require.NoError(t, err)

	// Both stages were attempted and their failures swallowed
	assert.Equal(t, 1, fake.callCount(router.PurposeFieldOptimization))
	assert.Equal(t, 1, fake.callCount(router.PurposeQuestionEnhancement))
	assert.NotEmpty(t, result.Schema.Fields)
	assert.Contains(t, result.Run.StageNames(), models.StageOptimizing)
}

func TestGenerateParallelOptimizationApplies(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "form", "confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Form", []map[string]interface{}{
		{"label": "Contact", "type": "text"},
		{"label": "Email address", "type": "email"},
	})
	fake.responses[router.PurposeFieldOptimization] = `[{"index": 0, "type": "phone"}]`
	fake.responses[router.PurposeQuestionEnhancement] = `[{"index": 0, "label": "Phone number"}]`

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "contact form"}, models.GenerateOptions{
		ParallelOptimization: true,
	})
	require.NoError(t, err)

	var phone *models.FieldSpec
	for i := range result.Schema.Fields {
		if result.Schema.Fields[i].Type == models.FieldPhone {
			phone = &result.Schema.Fields[i]
		}
	}
	require.NotNil(t, phone)
	assert.Equal(t, "Phone number", phone.Label)
}

func TestGenerateRelationshipRulesSurviveMerge(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain":   "general",
		"formType": "form",
		"relationships": []map[string]interface{}{
			{"from": 0, "to": 1, "type": "depends_on"},
		},
		"confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Form", []map[string]interface{}{
		{"label": "Do you have allergies?", "type": "radio", "options": []string{"Yes", "No"}},
		{"label": "List your allergies", "type": "textarea"},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "allergy intake"}, skipAll())
	require.NoError(t, err)

	var source, target *models.FieldSpec
	for i := range result.Schema.Fields {
		f := &result.Schema.Fields[i]
		if normalizeLabel(f.Label) == "do you have allergies" {
			source = f
		}
		if normalizeLabel(f.Label) == "list your allergies" {
			target = f
		}
	}
	require.NotNil(t, source)
	require.NotNil(t, target)
	require.Len(t, target.ConditionalLogic, 1)

	rule := target.ConditionalLogic[0]
	assert.Equal(t, models.ConditionEquals, rule.Condition)
	assert.Equal(t, "yes", rule.Value)
	assert.Equal(t, models.ActionShow, rule.Action)
	assert.Equal(t, source.ID, rule.SourceFieldID)
}

func TestGenerateStagesAndModelsRecorded(t *testing.T) {
	fake := newFakeCompleter()
	fake.responses[router.PurposeAnalysis] = analysisJSON(t, map[string]interface{}{
		"domain": "general", "formType": "form", "confidence": 0.9,
	})
	fake.responses[router.PurposeSynthesis] = synthesisJSON(t, "Form", []map[string]interface{}{
		{"label": "Full name", "type": "text"},
	})

	p := New(fake)
	result, err := p.Generate(context.Background(), &models.GenerateRequest{Content: "form"}, skipAll())
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.StageAnalyzing,
		models.StageSynthesizing,
		models.StageMerging,
		models.StageCompiling,
	}, result.Run.StageNames())
	assert.Contains(t, result.Schema.Metadata.Pipeline.ModelsUsed, "fake-"+router.PurposeAnalysis)
	assert.Contains(t, result.Schema.Metadata.Pipeline.ModelsUsed, "fake-"+router.PurposeSynthesis)
	assert.NotEmpty(t, result.Run.ID)
}

func TestClampQuestionCountBounds(t *testing.T) {
	assert.Equal(t, 120, models.ClampQuestionCount(500))
	assert.Equal(t, 1, models.ClampQuestionCount(0))
	assert.Equal(t, 1, models.ClampQuestionCount(-5))
	assert.Equal(t, 5, models.ClampQuestionCount(5))
	assert.Equal(t, 120, models.ClampQuestionCount(120))
}
