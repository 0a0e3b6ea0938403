package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/temic137/formforge/internal/executor"
	"github.com/temic137/formforge/internal/logger"
	"github.com/temic137/formforge/internal/models"
	"github.com/temic137/formforge/internal/router"
)

// State is the orchestrator's position in the run
type State string

const (
	StateIdle         State = "idle"
	StateAnalyzing    State = "analyzing"
	StateSynthesizing State = "synthesizing"
	StateOptimizing   State = "optimizing"
	StateMerging      State = "merging"
	StateCompiling    State = "compiling"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Pipeline sequences analysis, synthesis, optional optimization, merging
// and relationship compilation into one run. Failed is reachable only from
// the analyzing and synthesizing states; every later stage degrades instead.
type Pipeline struct {
	analyzer    *Analyzer
	synthesizer *Synthesizer
	optimizer   *Optimizer
	exec        Completer
}

// New creates a pipeline over a purpose-routed completer
func New(exec Completer) *Pipeline {
	return &Pipeline{
		analyzer:    NewAnalyzer(exec),
		synthesizer: NewSynthesizer(exec),
		optimizer:   NewOptimizer(exec),
		exec:        exec,
	}
}

// Result bundles the generated schema with its run record
type Result struct {
	Schema *models.FormSchema
	Run    *models.PipelineRun
}

// Generate runs the full pipeline for one request
func (p *Pipeline) Generate(ctx context.Context, req *models.GenerateRequest, opts models.GenerateOptions) (*Result, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("content is required")
	}
	// Zero means the synthesizer chooses the count
	questionCount := 0
	if req.QuestionCount != nil {
		questionCount = models.ClampQuestionCount(*req.QuestionCount)
	}

	run := &models.PipelineRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
	}
	state := StateIdle
	transition := func(next State) {
		logger.Debug("Pipeline %s: %s -> %s", run.ID, state, next)
		state = next
	}

	// Stage 1: analysis. Reference data is deliberately withheld here.
	transition(StateAnalyzing)
	stageStart := time.Now()
	analysis, analysisResult, err := p.analyzer.Analyze(ctx, req.Content, req.UserContext)
	if err != nil {
		transition(StateFailed)
		return nil, p.fail(run, err)
	}
	analysisModel := ""
	if analysisResult != nil {
		analysisModel = analysisResult.Model
	}
	run.RecordStage(models.StageAnalyzing, analysisModel, time.Since(stageStart).Milliseconds())

	// Stage 2: synthesis, the only other fatal stage.
	transition(StateSynthesizing)
	stageStart = time.Now()
	synth, synthResult, err := p.synthesizer.Synthesize(ctx, req.Content, req.ReferenceData, questionCount, analysis)
	if err != nil {
		transition(StateFailed)
		return nil, p.fail(run, err)
	}
	run.RecordStage(models.StageSynthesizing, synthResult.Model, time.Since(stageStart).Milliseconds())

	// The pre-merge candidate list is what relationship edges index into.
	// Edges nominally reference suggested-question positions; the synthesis
	// prompt pins those questions to the head of the field list in order,
	// which keeps the two index spaces aligned. A model that strays from
	// that order degrades to misattached rules, never to a failed run.
	candidates := synth.Fields

	// Optional optimization, best effort: on any error the prior output
	// passes through unchanged.
	if !opts.SkipFieldOptimization || !opts.SkipQuestionEnhancement {
		transition(StateOptimizing)
		stageStart = time.Now()
		var optModels string
		candidates, optModels = p.optimize(ctx, candidates, opts, run)
		run.RecordStage(models.StageOptimizing, optModels, time.Since(stageStart).Milliseconds())
	}

	transition(StateMerging)
	stageStart = time.Now()
	suggestions := SuggestFields(analysis, req.Content)
	merged := MergeFields(candidates, suggestions)
	if questionCount > 0 && len(merged) > questionCount {
		merged = merged[:questionCount]
	}
	run.RecordStage(models.StageMerging, "", time.Since(stageStart).Milliseconds())

	transition(StateCompiling)
	stageStart = time.Now()
	rules, warnings := CompileRelationships(candidates, analysis.Relationships)
	for i := range merged {
		if attached, ok := rules[merged[i].ID]; ok {
			merged[i].ConditionalLogic = append(merged[i].ConditionalLogic, attached...)
		}
	}
	for _, w := range warnings {
		logger.Warning("Pipeline %s: %s", run.ID, w)
	}
	run.Warnings = append(run.Warnings, warnings...)
	run.RecordStage(models.StageCompiling, "", time.Since(stageStart).Milliseconds())

	schema := p.assemble(synth.Title, merged, analysis, run)

	transition(StateDone)
	run.CompletedAt = time.Now()
	run.TotalLatencyMs = run.CompletedAt.Sub(run.StartedAt).Milliseconds()
	schema.Metadata.Pipeline.TotalLatencyMs = run.TotalLatencyMs

	return &Result{Schema: schema, Run: run}, nil
}

// optimize runs the enabled optimization stages, sequentially or in
// parallel through the dispatcher. Errors are logged and swallowed.
func (p *Pipeline) optimize(ctx context.Context, fields []models.FieldSpec, opts models.GenerateOptions, run *models.PipelineRun) ([]models.FieldSpec, string) {
	var usedModels []string

	if opts.ParallelOptimization {
		var tasks []executor.Task
		if !opts.SkipFieldOptimization {
			tasks = append(tasks, executor.Task{
				ID:      "field_types",
				Purpose: router.PurposeFieldOptimization,
				Request: p.optimizer.FieldTypeRequest(fields),
			})
		}
		if !opts.SkipQuestionEnhancement {
			tasks = append(tasks, executor.Task{
				ID:      "questions",
				Purpose: router.PurposeQuestionEnhancement,
				Request: p.optimizer.QuestionRequest(fields),
			})
		}

		results := p.exec.Dispatch(ctx, tasks)

		if tr, ok := results["field_types"]; ok {
			fields = p.applyOptimization(fields, tr, "field type refinement", p.optimizer.ApplyFieldTypes, &usedModels)
		}
		if tr, ok := results["questions"]; ok {
			fields = p.applyOptimization(fields, tr, "question enhancement", p.optimizer.ApplyQuestions, &usedModels)
		}
		return fields, strings.Join(usedModels, ",")
	}

	if !opts.SkipFieldOptimization {
		refined, result, err := p.optimizer.RefineFieldTypes(ctx, fields)
		if err != nil {
			logger.Warning("Field type refinement failed, passing fields through: %v", err)
		} else {
			fields = refined
			usedModels = append(usedModels, result.Model)
		}
	}
	if !opts.SkipQuestionEnhancement {
		enhanced, result, err := p.optimizer.EnhanceQuestions(ctx, fields)
		if err != nil {
			logger.Warning("Question enhancement failed, passing fields through: %v", err)
		} else {
			fields = enhanced
			usedModels = append(usedModels, result.Model)
		}
	}
	return fields, strings.Join(usedModels, ",")
}

func (p *Pipeline) applyOptimization(fields []models.FieldSpec, tr executor.TaskResult, name string, apply func([]models.FieldSpec, string) ([]models.FieldSpec, error), usedModels *[]string) []models.FieldSpec {
	if tr.Err != nil {
		logger.Warning("%s failed, passing fields through: %v", name, tr.Err)
		return fields
	}
	out, err := apply(fields, tr.Result.Text)
	if err != nil {
		logger.Warning("%s response unusable, passing fields through: %v", name, err)
		return fields
	}
	*usedModels = append(*usedModels, tr.Result.Model)
	return out
}

// assemble builds the final schema with quiz normalization and metadata
func (p *Pipeline) assemble(title string, fields []models.FieldSpec, analysis *models.ContentAnalysis, run *models.PipelineRun) *models.FormSchema {
	// quizConfig.points always defaults to 1 when the model omitted it
	for i := range fields {
		if fields[i].QuizConfig != nil && fields[i].QuizConfig.Points == 0 {
			fields[i].QuizConfig.Points = 1
		}
	}

	schema := &models.FormSchema{
		Title:  title,
		Fields: fields,
		Metadata: models.FormMetadata{
			FormType: analysis.FormType,
			Domain:   analysis.Domain,
			Tone:     analysis.Tone,
			Pipeline: models.PipelineMetadata{
				Stages:     run.StageNames(),
				ModelsUsed: run.ModelsUsed,
			},
		},
	}

	if analysis.IsQuiz {
		schema.QuizMode = &models.QuizMode{
			Enabled:              true,
			ShowScoreImmediately: true,
			ShowCorrectAnswers:   true,
			ShowExplanations:     true,
			PassingScore:         70,
		}
	}

	return schema
}

// fail finalizes the run record for a fatal error. Diagnostic detail stays
// in the logs; callers surface a single generic message to users.
func (p *Pipeline) fail(run *models.PipelineRun, err error) error {
	run.CompletedAt = time.Now()
	run.TotalLatencyMs = run.CompletedAt.Sub(run.StartedAt).Milliseconds()
	logger.Error("Pipeline %s failed after %dms: %v", run.ID, run.TotalLatencyMs, err)
	return err
}
