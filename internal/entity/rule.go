package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConditionField enumerates the predicates a rule condition can test.
type ConditionField string

const (
	CondIssuer        ConditionField = "issuer"
	CondContent       ConditionField = "content"
	CondCategory      ConditionField = "category"
	CondAmountNotNull ConditionField = "amount_not_null"
	CondAmountNull    ConditionField = "amount_null"
)

var (
	ErrRuleWithoutConditions = errors.New("rule must have at least one condition")
	ErrUnknownConditionField = errors.New("unknown condition field")
	ErrConditionNeedsValue   = errors.New("condition requires a value")
)

// RuleCondition is a single predicate. Value is required for issuer/content/
// category and ignored for the two amount presence predicates. All string
// matching is case-insensitive, category equality included.
type RuleCondition struct {
	Field ConditionField `json:"field"`
	Value string         `json:"value,omitempty"`
}

// ClassificationRule is a user-authored override: when every condition
// matches, TargetCategory replaces the model-assigned category.
type ClassificationRule struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Priority       int             `json:"priority"` // higher wins
	Enabled        bool            `json:"enabled"`
	TargetCategory string          `json:"target_category"`
	Conditions     []RuleCondition `json:"conditions"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate rejects misconfigured rules before they are persisted. A rule with
// zero conditions would match everything; it never reaches evaluation.
func (r *ClassificationRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name is required")
	}
	if strings.TrimSpace(r.TargetCategory) == "" {
		return errors.New("target category is required")
	}
	if len(r.Conditions) == 0 {
		return ErrRuleWithoutConditions
	}
	for i, c := range r.Conditions {
		switch c.Field {
		case CondIssuer, CondContent, CondCategory:
			if strings.TrimSpace(c.Value) == "" {
				return fmt.Errorf("condition %d (%s): %w", i, c.Field, ErrConditionNeedsValue)
			}
		case CondAmountNotNull, CondAmountNull:
			// presence predicates carry no value
		default:
			return fmt.Errorf("condition %d: %w: %q", i, ErrUnknownConditionField, c.Field)
		}
	}
	return nil
}

// SortRulesForEvaluation orders rules by priority descending, ties broken by
// creation time ascending then ID, so evaluation order is total and stable
// regardless of how the store returned them.
func SortRulesForEvaluation(rules []ClassificationRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		if !rules[i].CreatedAt.Equal(rules[j].CreatedAt) {
			return rules[i].CreatedAt.Before(rules[j].CreatedAt)
		}
		return rules[i].ID.String() < rules[j].ID.String()
	})
}
