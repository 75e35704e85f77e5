package rules

import (
	"strings"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/entity"
	"github.com/adelaunay/paperbase/internal/llm"
)

// Outcome reports whether a user rule overrode the model-assigned category.
type Outcome struct {
	Matched  bool
	RuleID   uuid.UUID
	RuleName string
	Category string // target category of the winning rule
}

// Evaluate runs the rule set against a merged analysis and the full extracted
// text. Disabled rules are discarded; the rest are ordered by priority
// descending (creation order breaks ties) and the first rule whose conditions
// ALL hold wins. Evaluation is pure: rules are read, never mutated.
//
// All string matching is case-insensitive, including category equality, for
// consistency across condition kinds.
func Evaluate(ruleset []entity.ClassificationRule, analysis llm.Analysis, text string) Outcome {
	enabled := make([]entity.ClassificationRule, 0, len(ruleset))
	for _, r := range ruleset {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	entity.SortRulesForEvaluation(enabled)

	textLower := strings.ToLower(text)
	for _, r := range enabled {
		if ruleMatches(r, analysis, textLower) {
			return Outcome{
				Matched:  true,
				RuleID:   r.ID,
				RuleName: r.Name,
				Category: r.TargetCategory,
			}
		}
	}
	return Outcome{}
}

func ruleMatches(r entity.ClassificationRule, analysis llm.Analysis, textLower string) bool {
	for _, c := range r.Conditions {
		if !conditionHolds(c, analysis, textLower) {
			return false
		}
	}
	// Validate rejects empty condition lists at creation time, so a rule
	// reaching this point has matched at least one real predicate.
	return len(r.Conditions) > 0
}

func conditionHolds(c entity.RuleCondition, analysis llm.Analysis, textLower string) bool {
	switch c.Field {
	case entity.CondIssuer:
		if !llm.Has(analysis.Issuer) {
			return false
		}
		return strings.Contains(strings.ToLower(*analysis.Issuer), strings.ToLower(c.Value))
	case entity.CondContent:
		return strings.Contains(textLower, strings.ToLower(c.Value))
	case entity.CondCategory:
		if !llm.Has(analysis.Category) {
			return false
		}
		return strings.EqualFold(*analysis.Category, c.Value)
	case entity.CondAmountNotNull:
		return llm.Has(analysis.Amount)
	case entity.CondAmountNull:
		return !llm.Has(analysis.Amount)
	default:
		return false
	}
}
