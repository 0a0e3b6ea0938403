package pipeline

import (
	"strings"

	"github.com/google/uuid"

	"github.com/temic137/formforge/internal/models"
)

// Rule-based field suggestions, derived from the same analysis the
// synthesizer sees but without another model call. The merger treats these
// as supplementary: they recover well-known fields the model omitted.

type suggestionRule struct {
	Label    string
	Type     string
	Required bool
	Options  []string
	HelpText string
	// Keywords restrict the rule to briefs mentioning one of them; empty
	// means the rule applies to the whole domain.
	Keywords []string
}

var domainSuggestions = map[string][]suggestionRule{
	"events": {
		{Label: "Will you attend?", Type: models.FieldRadio, Required: true, Options: []string{"Yes", "No", "Maybe"}},
		{Label: "Number of guests", Type: models.FieldNumber, Keywords: []string{"guest", "plus one", "plus-one", "party"}},
		{Label: "Meal preference", Type: models.FieldSelect, Options: []string{"Standard", "Vegetarian", "Vegan", "Gluten-free"}, Keywords: []string{"meal", "dinner", "food", "dietary"}},
		{Label: "Dietary restrictions", Type: models.FieldTextarea, Keywords: []string{"dietary", "allerg"}},
	},
	"feedback": {
		{Label: "Overall rating", Type: models.FieldRating, Required: true},
		{Label: "What could we improve?", Type: models.FieldTextarea},
	},
	"healthcare": {
		{Label: "Date of birth", Type: models.FieldDate, Required: true},
		{Label: "Current medications", Type: models.FieldTextarea, Keywords: []string{"medication", "prescription", "treatment"}},
	},
	"education": {
		{Label: "Student name", Type: models.FieldText, Required: true},
		{Label: "Student email", Type: models.FieldEmail},
	},
}

var generalSuggestions = []suggestionRule{
	{Label: "Full name", Type: models.FieldText, Required: true},
	{Label: "Email address", Type: models.FieldEmail, Required: true},
}

// SuggestFields derives the supplementary suggestion list from the analysis
// and the original brief. Quizzes get nothing here: a suggested question
// appended as a plain field would lack a correct answer, so quiz fields come
// entirely from synthesis, which sees the suggested questions in its prompt.
func SuggestFields(analysis *models.ContentAnalysis, brief string) []models.FieldSpec {
	if analysis.IsQuiz {
		return nil
	}

	lower := strings.ToLower(brief)
	var out []models.FieldSpec

	appendRule := func(rule suggestionRule) {
		if len(rule.Keywords) > 0 && !containsAny(lower, rule.Keywords) {
			return
		}
		out = append(out, models.FieldSpec{
			ID:       uuid.New().String(),
			Label:    rule.Label,
			Type:     rule.Type,
			Required: rule.Required,
			Options:  rule.Options,
			HelpText: rule.HelpText,
		})
	}

	if rules, ok := domainSuggestions[analysis.Domain]; ok {
		for _, rule := range rules {
			appendRule(rule)
		}
	} else if !analysis.IsSurvey {
		for _, rule := range generalSuggestions {
			appendRule(rule)
		}
	}

	// RSVP briefs imply attendance and guest count even when the
	// classifier missed the events domain.
	if strings.Contains(lower, "rsvp") && analysis.Domain != "events" {
		for _, rule := range domainSuggestions["events"] {
			appendRule(rule)
		}
	}

	// Analyzer-suggested questions become plain fields of the hinted type
	for _, q := range analysis.SuggestedQuestions {
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		out = append(out, models.FieldSpec{
			ID:    uuid.New().String(),
			Label: strings.TrimSpace(q.Question),
			Type:  normalizeType(q.FieldType),
		})
	}

	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
