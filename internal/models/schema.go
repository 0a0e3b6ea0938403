package models

// Field types emitted by the synthesis pipeline
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldNumber   = "number"
	FieldDate     = "date"
	FieldSelect   = "select"
	FieldRadio    = "radio"
	FieldCheckbox = "checkbox"
	FieldRating   = "rating"
	FieldURL      = "url"
)

// Conditional logic conditions and actions
const (
	ConditionEquals         = "equals"
	ConditionNotEmpty       = "not_empty"
	ConditionMatchesPattern = "matches_pattern"
	ConditionGreaterThan    = "greater_than"

	ActionShow     = "show"
	ActionRequire  = "require"
	ActionValidate = "validate"
)

// FieldValidation carries optional constraints attached to a field
type FieldValidation struct {
	Pattern   string `json:"pattern,omitempty"`
	Min       *int   `json:"min,omitempty"`
	Max       *int   `json:"max,omitempty"`
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ConditionalLogic is a visibility/requirement rule attached to a field.
// SourceFieldID may be empty when the originating relationship edge pointed
// at an out-of-range position; that is a data-quality warning, not an error.
type ConditionalLogic struct {
	ID            string `json:"id"`
	SourceFieldID string `json:"sourceFieldId"`
	Condition     string `json:"condition"`
	Value         string `json:"value,omitempty"`
	Action        string `json:"action"`
}

// QuizConfig holds per-field quiz grading data
type QuizConfig struct {
	CorrectAnswer  string `json:"correctAnswer,omitempty"`
	Points         int    `json:"points"`
	Explanation    string `json:"explanation,omitempty"`
	CognitiveLevel string `json:"cognitiveLevel,omitempty"`
}

// FieldSpec represents one field of a generated schema
type FieldSpec struct {
	ID               string             `json:"id"`
	Label            string             `json:"label"`
	Type             string             `json:"type"`
	Required         bool               `json:"required"`
	Options          []string           `json:"options,omitempty"`
	Placeholder      string             `json:"placeholder,omitempty"`
	HelpText         string             `json:"helpText,omitempty"`
	Validation       *FieldValidation   `json:"validation,omitempty"`
	ConditionalLogic []ConditionalLogic `json:"conditionalLogic,omitempty"`
	QuizConfig       *QuizConfig        `json:"quizConfig,omitempty"`
	Order            int                `json:"order"`
}

// QuizMode configures quiz behavior for the whole form
type QuizMode struct {
	Enabled              bool `json:"enabled"`
	ShowScoreImmediately bool `json:"showScoreImmediately"`
	ShowCorrectAnswers   bool `json:"showCorrectAnswers"`
	ShowExplanations     bool `json:"showExplanations"`
	PassingScore         int  `json:"passingScore"`
}

// PipelineMetadata summarizes one pipeline run for the caller
type PipelineMetadata struct {
	Stages         []string `json:"stages"`
	ModelsUsed     []string `json:"modelsUsed"`
	TotalLatencyMs int64    `json:"totalLatencyMs"`
}

// FormMetadata carries classification results and run telemetry
type FormMetadata struct {
	FormType string           `json:"formType"`
	Domain   string           `json:"domain"`
	Tone     string           `json:"tone"`
	Pipeline PipelineMetadata `json:"pipeline"`
}

// FormSchema is the final pipeline output
type FormSchema struct {
	Title    string       `json:"title"`
	Fields   []FieldSpec  `json:"fields"`
	QuizMode *QuizMode    `json:"quizMode,omitempty"`
	Metadata FormMetadata `json:"metadata"`
}
