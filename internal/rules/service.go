package rules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/entity"
)

// Repository is the persistence boundary for classification rules. Writes
// must be atomic relative to concurrent List calls: a rule is either fully
// visible with all of its conditions or not at all.
type Repository interface {
	Create(ctx context.Context, rule *entity.ClassificationRule) error
	List(ctx context.Context) ([]entity.ClassificationRule, error)
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service is the management API the external UI drives. Misconfigured rules
// are rejected here, before persistence, so evaluation never sees one.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Create validates and persists a new rule; it comes back enabled.
func (s *Service) Create(ctx context.Context, name, targetCategory string, priority int, conditions []entity.RuleCondition) (*entity.ClassificationRule, error) {
	rule := &entity.ClassificationRule{
		ID:             uuid.New(),
		Name:           name,
		Priority:       priority,
		Enabled:        true,
		TargetCategory: targetCategory,
		Conditions:     conditions,
		CreatedAt:      time.Now().UTC(),
	}
	if err := rule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("persist rule: %w", err)
	}
	s.logger.Info("rules.create",
		"rule_id", rule.ID,
		"name", rule.Name,
		"priority", rule.Priority,
		"conditions", len(rule.Conditions),
	)
	return rule, nil
}

// List returns all rules, enabled or not, in evaluation order.
func (s *Service) List(ctx context.Context) ([]entity.ClassificationRule, error) {
	ruleset, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	entity.SortRulesForEvaluation(ruleset)
	return ruleset, nil
}

// Toggle flips a rule's enabled flag.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID, enabled bool) error {
	if err := s.repo.SetEnabled(ctx, id, enabled); err != nil {
		return fmt.Errorf("toggle rule: %w", err)
	}
	s.logger.Info("rules.toggle", "rule_id", id, "enabled", enabled)
	return nil
}

// Delete removes a rule and its conditions.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	s.logger.Info("rules.delete", "rule_id", id)
	return nil
}
