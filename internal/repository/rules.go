package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/common"
	"github.com/adelaunay/paperbase/internal/entity"
)

// RuleRepository persists classification rules with their conditions. Create
// is transactional: a rule is never visible without its conditions.
type RuleRepository interface {
	Create(ctx context.Context, rule *entity.ClassificationRule) error
	List(ctx context.Context) ([]entity.ClassificationRule, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type ruleRepository struct {
	db *sql.DB
}

func NewRuleRepository(db *sql.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) Create(ctx context.Context, rule *entity.ClassificationRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("RULE_CREATE", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO classification_rules (id, name, priority, enabled, target_category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rule.ID.String(), rule.Name, rule.Priority, boolToInt(rule.Enabled),
		rule.TargetCategory, formatTime(rule.CreatedAt),
	)
	if err != nil {
		return common.NewAppError("RULE_CREATE", "failed to insert rule", err)
	}
	for i, c := range rule.Conditions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rule_conditions (rule_id, position, field, value)
			VALUES ($1, $2, $3, $4)`,
			rule.ID.String(), i, string(c.Field), c.Value,
		)
		if err != nil {
			return common.NewAppError("RULE_CREATE", "failed to insert condition", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("RULE_CREATE", "failed to commit", err)
	}
	return nil
}

func (r *ruleRepository) List(ctx context.Context) ([]entity.ClassificationRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, priority, enabled, target_category, created_at
		FROM classification_rules
		ORDER BY priority DESC, created_at ASC, id ASC`)
	if err != nil {
		return nil, common.NewAppError("RULE_LIST", "failed to list rules", err)
	}
	defer rows.Close()

	var (
		ruleset []entity.ClassificationRule
		index   = map[string]int{}
	)
	for rows.Next() {
		var (
			rule      entity.ClassificationRule
			idStr     string
			enabled   int
			createdAt string
		)
		if err := rows.Scan(&idStr, &rule.Name, &rule.Priority, &enabled, &rule.TargetCategory, &createdAt); err != nil {
			return nil, common.NewAppError("RULE_LIST", "failed to scan rule", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse rule id %q: %w", idStr, err)
		}
		rule.ID = id
		rule.Enabled = enabled != 0
		rule.CreatedAt = parseTime(createdAt)
		index[idStr] = len(ruleset)
		ruleset = append(ruleset, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("RULE_LIST", "row iteration failed", err)
	}
	if len(ruleset) == 0 {
		return nil, nil
	}

	condRows, err := r.db.QueryContext(ctx, `
		SELECT rule_id, field, value
		FROM rule_conditions
		ORDER BY rule_id, position`)
	if err != nil {
		return nil, common.NewAppError("RULE_LIST", "failed to list conditions", err)
	}
	defer condRows.Close()

	for condRows.Next() {
		var (
			ruleID string
			cond   entity.RuleCondition
			field  string
		)
		if err := condRows.Scan(&ruleID, &field, &cond.Value); err != nil {
			return nil, common.NewAppError("RULE_LIST", "failed to scan condition", err)
		}
		cond.Field = entity.ConditionField(field)
		if i, ok := index[ruleID]; ok {
			ruleset[i].Conditions = append(ruleset[i].Conditions, cond)
		}
	}
	if err := condRows.Err(); err != nil {
		return nil, common.NewAppError("RULE_LIST", "condition iteration failed", err)
	}
	return ruleset, nil
}

func (r *ruleRepository) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE classification_rules SET enabled = $1 WHERE id = $2`,
		boolToInt(enabled), id.String())
	if err != nil {
		return common.NewAppError("RULE_TOGGLE", "failed to update rule", err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func (r *ruleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("RULE_DELETE", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	// explicit delete in case the backend ignores ON DELETE CASCADE
	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_conditions WHERE rule_id = $1`, id.String()); err != nil {
		return common.NewAppError("RULE_DELETE", "failed to delete conditions", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM classification_rules WHERE id = $1`, id.String())
	if err != nil {
		return common.NewAppError("RULE_DELETE", "failed to delete rule", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("RULE_DELETE", "failed to commit", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
