package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/entity"
	"github.com/adelaunay/paperbase/internal/llm"
)

func rule(name string, priority int, target string, conds ...entity.RuleCondition) entity.ClassificationRule {
	return entity.ClassificationRule{
		ID:             uuid.New(),
		Name:           name,
		Priority:       priority,
		Enabled:        true,
		TargetCategory: target,
		Conditions:     conds,
		CreatedAt:      time.Now(),
	}
}

func cond(field entity.ConditionField, value string) entity.RuleCondition {
	return entity.RuleCondition{Field: field, Value: value}
}

func TestEvaluateHighestPriorityWins(t *testing.T) {
	ruleset := []entity.ClassificationRule{
		rule("pharmacy", 10, "Santé", cond(entity.CondContent, "pharmacie")),
		rule("taxes", 50, "Impôts", cond(entity.CondContent, "impôt")),
	}
	text := "Pharmacie du Centre, participation impôt sur le revenu"

	got := Evaluate(ruleset, llm.Analysis{}, text)
	if !got.Matched || got.Category != "Impôts" {
		t.Fatalf("got %+v, want the priority-50 rule", got)
	}
	if got.RuleName != "taxes" {
		t.Errorf("rule = %q", got.RuleName)
	}
}

func TestEvaluateTieBrokenByCreationOrder(t *testing.T) {
	older := rule("first", 10, "Banque", cond(entity.CondContent, "relevé"))
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := rule("second", 10, "Courrier", cond(entity.CondContent, "relevé"))
	newer.CreatedAt = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// store order must not matter
	got := Evaluate([]entity.ClassificationRule{newer, older}, llm.Analysis{}, "relevé de compte")
	if got.Category != "Banque" {
		t.Fatalf("category = %q, want the older rule to win the tie", got.Category)
	}
}

func TestEvaluateAllConditionsMustHold(t *testing.T) {
	r := rule("hydro invoice", 10, "Facture",
		cond(entity.CondIssuer, "hydro"),
		cond(entity.CondAmountNotNull, ""),
	)

	withAmount := llm.Analysis{Issuer: llm.Str("Hydro-Québec"), Amount: llm.Str("83.20 CAD")}
	if got := Evaluate([]entity.ClassificationRule{r}, withAmount, ""); !got.Matched {
		t.Errorf("expected match when both conditions hold")
	}

	noAmount := llm.Analysis{Issuer: llm.Str("Hydro-Québec")}
	if got := Evaluate([]entity.ClassificationRule{r}, noAmount, ""); got.Matched {
		t.Errorf("matched with a missing amount; conditions are conjunctive")
	}
}

func TestEvaluateDisabledRulesIgnored(t *testing.T) {
	r := rule("off", 99, "Travail", cond(entity.CondContent, "salaire"))
	r.Enabled = false

	if got := Evaluate([]entity.ClassificationRule{r}, llm.Analysis{}, "bulletin de salaire"); got.Matched {
		t.Fatalf("disabled rule matched")
	}
}

func TestEvaluateMatchingIsCaseInsensitive(t *testing.T) {
	ruleset := []entity.ClassificationRule{
		rule("issuer", 30, "Assurance", cond(entity.CondIssuer, "MAIF")),
		rule("category", 20, "Banque", cond(entity.CondCategory, "banque")),
	}

	got := Evaluate(ruleset, llm.Analysis{Issuer: llm.Str("maif assurances")}, "")
	if got.Category != "Assurance" {
		t.Errorf("issuer match: got %+v", got)
	}

	got = Evaluate(ruleset, llm.Analysis{Category: llm.Str("BANQUE")}, "")
	if got.Category != "Banque" {
		t.Errorf("category match: got %+v", got)
	}
}

func TestEvaluateAmountNullPredicate(t *testing.T) {
	r := rule("plain mail", 5, "Courrier", cond(entity.CondAmountNull, ""))

	if got := Evaluate([]entity.ClassificationRule{r}, llm.Analysis{}, ""); !got.Matched {
		t.Errorf("amount_null should match an absent amount")
	}
	withAmount := llm.Analysis{Amount: llm.Str("10 EUR")}
	if got := Evaluate([]entity.ClassificationRule{r}, withAmount, ""); got.Matched {
		t.Errorf("amount_null matched a present amount")
	}
}

func TestEvaluateMissingFieldNeverMatches(t *testing.T) {
	r := rule("needs issuer", 10, "Facture", cond(entity.CondIssuer, "edf"))

	if got := Evaluate([]entity.ClassificationRule{r}, llm.Analysis{}, "EDF mentioned in text only"); got.Matched {
		t.Fatalf("issuer condition matched with no issuer extracted")
	}
}

func TestEvaluateNoRules(t *testing.T) {
	if got := Evaluate(nil, llm.Analysis{Category: llm.Str("Facture")}, "x"); got.Matched {
		t.Fatalf("matched with an empty rule set")
	}
}
