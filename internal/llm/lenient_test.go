package llm

import "testing"

func TestDecodeAnalysisLenientCodeFences(t *testing.T) {
	raw := "Voici le résultat :\n```json\n{\"category\": \"Facture\", \"issuer\": \"EDF\"}\n```"

	got := DecodeAnalysisLenient([]byte(raw), nil)
	if !Has(got.Category) || *got.Category != "Facture" {
		t.Errorf("category = %v", got.Category)
	}
	if !Has(got.Issuer) || *got.Issuer != "EDF" {
		t.Errorf("issuer = %v", got.Issuer)
	}
}

func TestDecodeAnalysisLenientPartialFields(t *testing.T) {
	raw := `{"category": "Santé", "issuer": null, "doc_date": "", "amount": "25,50 EUR"}`

	got := DecodeAnalysisLenient([]byte(raw), nil)
	if *got.Category != "Santé" || *got.Amount != "25,50 EUR" {
		t.Errorf("got %+v", got)
	}
	if got.Issuer != nil || got.DocDate != nil {
		t.Errorf("null/empty fields must stay nil, got %+v", got)
	}
}

func TestDecodeAnalysisLenientNumericAmount(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`{"amount": 42.5}`, "42.50"},
		{`{"amount": 100}`, "100.00"},
		{`{"amount": 19.99}`, "19.99"},
	}
	for _, c := range cases {
		got := DecodeAnalysisLenient([]byte(c.raw), nil)
		if got.Amount == nil || *got.Amount != c.want {
			t.Errorf("DecodeAnalysisLenient(%s).Amount = %v, want %q", c.raw, got.Amount, c.want)
		}
	}
}

func TestDecodeAnalysisLenientLegacyDateKey(t *testing.T) {
	raw := `{"date": "2026-02-11"}`

	got := DecodeAnalysisLenient([]byte(raw), nil)
	if got.DocDate == nil || *got.DocDate != "2026-02-11" {
		t.Errorf("doc_date = %v", got.DocDate)
	}
}

func TestDecodeAnalysisLenientGarbage(t *testing.T) {
	got := DecodeAnalysisLenient([]byte("sorry, I cannot read this document"), nil)
	if !got.Empty() {
		t.Errorf("got %+v, want empty analysis", got)
	}
}

func TestDecodeAnalysisLenientNullString(t *testing.T) {
	got := DecodeAnalysisLenient([]byte(`{"issuer": "null"}`), nil)
	if got.Issuer != nil {
		t.Errorf("issuer = %q, literal null string must be dropped", *got.Issuer)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"prefix {\"a\":1} suffix", `{"a":1}`},
		{"no json here", "no json here"},
		{"```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
	}
	for _, c := range cases {
		if got := ExtractJSONObject(c.in); got != c.want {
			t.Errorf("ExtractJSONObject(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
