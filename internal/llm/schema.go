package llm

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass it to the engine as a structured output constraint and
// also use it locally to validate before falling back to lenient decoding.
func BuildAnalysisJSONSchema(allowedCategories []string) map[string]any {
	nullableString := func() map[string]any {
		return map[string]any{"type": []string{"string", "null"}}
	}

	dateSchema := func() map[string]any {
		return map[string]any{
			"type":    []string{"string", "null"},
			"pattern": `^\d{4}-\d{2}-\d{2}$`,
		}
	}

	props := map[string]any{
		"category": nullableString(),
		"issuer":   nullableString(),
		// the prompt uses "date"; "doc_date" is accepted for engines with
		// structured-output templates keyed on the storage name
		"date":     dateSchema(),
		"doc_date": dateSchema(),
		"amount":   nullableString(),
		"summary":  nullableString(),
	}

	// Constrain category if a taxonomy is provided.
	if len(allowedCategories) > 0 {
		enum := make([]any, 0, len(allowedCategories)+1)
		for _, c := range allowedCategories {
			enum = append(enum, c)
		}
		enum = append(enum, nil)
		props["category"] = map[string]any{"enum": enum}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}
