package pipeline

import (
	"sort"
	"strings"

	"github.com/temic137/formforge/internal/models"
)

// normalizeLabel lowercases a label, strips punctuation and collapses
// whitespace so near-identical labels compare equal.
func normalizeLabel(s string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// normalizeType maps the loose type names models emit onto the canonical
// field types.
func normalizeType(t string) string {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "", "text", "string", "short_text", "shorttext":
		return models.FieldText
	case "textarea", "long_text", "longtext", "paragraph":
		return models.FieldTextarea
	case "email":
		return models.FieldEmail
	case "phone", "tel", "telephone":
		return models.FieldPhone
	case "number", "numeric", "integer":
		return models.FieldNumber
	case "date", "datetime":
		return models.FieldDate
	case "select", "dropdown":
		return models.FieldSelect
	case "radio", "choice", "multiple_choice", "multiplechoice", "single_choice":
		return models.FieldRadio
	case "checkbox", "checkboxes", "boolean", "multi_select", "multiselect":
		return models.FieldCheckbox
	case "rating", "scale", "likert":
		return models.FieldRating
	case "url", "link", "website":
		return models.FieldURL
	default:
		return models.FieldText
	}
}

// MergeFields reconciles the synthesized field list (authoritative) with a
// rule-based suggestion list (supplementary). A suggestion is covered when
// its normalized label or its type matches an authoritative field; covered
// suggestions only backfill missing optional metadata, and uncovered ones
// are appended. The result is stably sorted by order and never contains two
// fields with equal normalized labels.
func MergeFields(fields, suggestions []models.FieldSpec) []models.FieldSpec {
	merged := make([]models.FieldSpec, 0, len(fields)+len(suggestions))
	byLabel := make(map[string]int)
	byType := make(map[string]int)

	for _, f := range fields {
		label := normalizeLabel(f.Label)
		if _, dup := byLabel[label]; dup {
			continue
		}
		merged = append(merged, f)
		idx := len(merged) - 1
		byLabel[label] = idx
		if _, seen := byType[f.Type]; !seen {
			byType[f.Type] = idx
		}
	}

	for _, sug := range suggestions {
		label := normalizeLabel(sug.Label)

		idx, covered := byLabel[label]
		if !covered {
			idx, covered = byType[sug.Type]
		}

		if covered {
			// Backfill only missing optional metadata; never overwrite.
			target := &merged[idx]
			if target.HelpText == "" && sug.HelpText != "" {
				target.HelpText = sug.HelpText
			}
			if target.Placeholder == "" && sug.Placeholder != "" {
				target.Placeholder = sug.Placeholder
			}
			if target.Validation == nil && sug.Validation != nil {
				target.Validation = sug.Validation
			}
			continue
		}

		// Appended fields default their order to the append position
		if sug.Order == 0 {
			sug.Order = len(merged)
		}
		merged = append(merged, sug)
		newIdx := len(merged) - 1
		byLabel[label] = newIdx
		if _, seen := byType[sug.Type]; !seen {
			byType[sug.Type] = newIdx
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Order < merged[j].Order
	})
	return merged
}
