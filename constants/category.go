package constants

import (
	"strings"
)

type Category string

// Administrative document taxonomy presented to the reasoning engine.
const (
	Facture   Category = "Facture"
	Impots    Category = "Impôts"
	Sante     Category = "Santé"
	Banque    Category = "Banque"
	Contrat   Category = "Contrat"
	Assurance Category = "Assurance"
	Travail   Category = "Travail"
	Courrier  Category = "Courrier"
	Autre     Category = "Autre"
)

var allCategories = []Category{
	Facture,
	Impots,
	Sante,
	Banque,
	Contrat,
	Assurance,
	Travail,
	Courrier,
	Autre,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-form model label onto the taxonomy.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Autre, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]Category{
		"invoice":       Facture,
		"bill":          Facture,
		"reçu":          Facture,
		"receipt":       Facture,
		"tax":           Impots,
		"taxes":         Impots,
		"impôt":         Impots,
		"impot":         Impots,
		"impots":        Impots,
		"health":        Sante,
		"sante":         Sante,
		"médical":       Sante,
		"medical":       Sante,
		"bank":          Banque,
		"banking":       Banque,
		"contract":      Contrat,
		"insurance":     Assurance,
		"mutuelle":      Assurance,
		"work":          Travail,
		"emploi":        Travail,
		"payslip":       Travail,
		"salaire":       Travail,
		"mail":          Courrier,
		"letter":        Courrier,
		"lettre":        Courrier,
		"other":         Autre,
		"misc":          Autre,
		"miscellaneous": Autre,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	// check if it matches any category string
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Autre, false
}
