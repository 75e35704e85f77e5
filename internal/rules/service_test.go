package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/entity"
)

type repoFake struct {
	created []entity.ClassificationRule
	listed  []entity.ClassificationRule
	listErr error

	toggled map[uuid.UUID]bool
	deleted []uuid.UUID
}

func (f *repoFake) Create(_ context.Context, r *entity.ClassificationRule) error {
	f.created = append(f.created, *r)
	return nil
}

func (f *repoFake) List(context.Context) ([]entity.ClassificationRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listed, nil
}

func (f *repoFake) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	if f.toggled == nil {
		f.toggled = map[uuid.UUID]bool{}
	}
	f.toggled[id] = enabled
	return nil
}

func (f *repoFake) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestServiceCreateRejectsEmptyConditions(t *testing.T) {
	repo := &repoFake{}
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), "catch all", "Autre", 1, nil)
	if !errors.Is(err, entity.ErrRuleWithoutConditions) {
		t.Fatalf("err = %v, want ErrRuleWithoutConditions", err)
	}
	if len(repo.created) != 0 {
		t.Errorf("invalid rule reached the repository")
	}
}

func TestServiceCreateRejectsValuelessCondition(t *testing.T) {
	svc := NewService(&repoFake{}, nil)

	_, err := svc.Create(context.Background(), "bad", "Facture", 1, []entity.RuleCondition{
		{Field: entity.CondIssuer, Value: "  "},
	})
	if !errors.Is(err, entity.ErrConditionNeedsValue) {
		t.Fatalf("err = %v, want ErrConditionNeedsValue", err)
	}
}

func TestServiceCreatePersistsEnabledRule(t *testing.T) {
	repo := &repoFake{}
	svc := NewService(repo, nil)

	r, err := svc.Create(context.Background(), "edf invoices", "Facture", 40, []entity.RuleCondition{
		{Field: entity.CondIssuer, Value: "edf"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.ID == uuid.Nil || !r.Enabled || r.CreatedAt.IsZero() {
		t.Errorf("rule not initialized: %+v", r)
	}
	if len(repo.created) != 1 || repo.created[0].Name != "edf invoices" {
		t.Errorf("created = %+v", repo.created)
	}
}

func TestServiceListSortsForEvaluation(t *testing.T) {
	low := entity.ClassificationRule{ID: uuid.New(), Name: "low", Priority: 1}
	high := entity.ClassificationRule{ID: uuid.New(), Name: "high", Priority: 9}
	repo := &repoFake{listed: []entity.ClassificationRule{low, high}}
	svc := NewService(repo, nil)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got[0].Name != "high" {
		t.Errorf("order = [%s, %s], want priority descending", got[0].Name, got[1].Name)
	}
}

func TestServiceToggleAndDelete(t *testing.T) {
	repo := &repoFake{}
	svc := NewService(repo, nil)
	id := uuid.New()

	if err := svc.Toggle(context.Background(), id, false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if enabled, ok := repo.toggled[id]; !ok || enabled {
		t.Errorf("toggled = %v", repo.toggled)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != id {
		t.Errorf("deleted = %v", repo.deleted)
	}
}
