package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/temic137/formforge/internal/models"
)

// edgeRules is the fixed translation from relationship edge type to
// conditional-logic rule.
var edgeRules = map[string]struct {
	Condition string
	Value     string
	Action    string
}{
	models.EdgeDependsOn:  {models.ConditionEquals, "yes", models.ActionShow},
	models.EdgeRequires:   {models.ConditionNotEmpty, "", models.ActionRequire},
	models.EdgeValidates:  {models.ConditionMatchesPattern, "", models.ActionValidate},
	models.EdgeThresholds: {models.ConditionGreaterThan, "0", models.ActionShow},
}

// CompileRelationships translates relationship edges into per-field
// conditional-logic rules. fields must be the candidate list as it existed
// before merging, because edge indices reference pre-merge positions. The
// returned map is keyed by field id so rules survive any later reordering.
//
// An out-of-range source index still produces a rule, just with an
// unresolved source; that is a data-quality warning for the caller to log,
// not a fatal condition. An out-of-range target or unknown edge type drops
// the edge with a warning.
func CompileRelationships(fields []models.FieldSpec, edges []models.RelationshipEdge) (map[string][]models.ConditionalLogic, []string) {
	rules := make(map[string][]models.ConditionalLogic)
	var warnings []string

	for _, edge := range edges {
		rule, ok := edgeRules[edge.Type]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown relationship type %q, edge dropped", edge.Type))
			continue
		}

		if edge.To < 0 || edge.To >= len(fields) {
			warnings = append(warnings, fmt.Sprintf("relationship target index %d out of range, edge dropped", edge.To))
			continue
		}
		target := fields[edge.To]

		sourceID := ""
		if edge.From >= 0 && edge.From < len(fields) {
			sourceID = fields[edge.From].ID
		} else {
			warnings = append(warnings, fmt.Sprintf("relationship source index %d out of range, rule attached unresolved", edge.From))
		}

		rules[target.ID] = append(rules[target.ID], models.ConditionalLogic{
			ID:            uuid.New().String(),
			SourceFieldID: sourceID,
			Condition:     rule.Condition,
			Value:         rule.Value,
			Action:        rule.Action,
		})
	}

	return rules, warnings
}
