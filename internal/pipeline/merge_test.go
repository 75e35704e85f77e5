package pipeline

import (
	"reflect"
	"testing"

	"github.com/adelaunay/paperbase/internal/llm"
)

func TestMergeOCRWinsOnSharedFields(t *testing.T) {
	vision := &llm.Analysis{
		Category: llm.Str("Courrier"),
		Issuer:   llm.Str("EDF SA"),
		Amount:   llm.Str("99.99 EUR"),
	}
	ocrLLM := &llm.Analysis{
		Category: llm.Str("Facture"),
		Issuer:   llm.Str("EDF"),
		DocDate:  llm.Str("2026-03-14"),
	}

	got := Merge(vision, ocrLLM)

	if deref(got.Category) != "Facture" {
		t.Errorf("category = %q, want OCR path value", deref(got.Category))
	}
	if deref(got.Issuer) != "EDF" {
		t.Errorf("issuer = %q, want OCR path value", deref(got.Issuer))
	}
	if deref(got.DocDate) != "2026-03-14" {
		t.Errorf("doc_date = %q, want OCR path value", deref(got.DocDate))
	}
	// vision fills the gap the OCR path left
	if deref(got.Amount) != "99.99 EUR" {
		t.Errorf("amount = %q, want vision fallback", deref(got.Amount))
	}
	if !reflect.DeepEqual(got.Sources, []string{SourceOCRLLM, SourceVision}) {
		t.Errorf("sources = %v", got.Sources)
	}
}

func TestMergeSinglePathIsIdentity(t *testing.T) {
	ocrLLM := &llm.Analysis{
		Category: llm.Str("Impôts"),
		Summary:  llm.Str("avis d'imposition 2025"),
	}

	got := Merge(nil, ocrLLM)

	if deref(got.Category) != "Impôts" || deref(got.Summary) != "avis d'imposition 2025" {
		t.Errorf("merged = %+v, want pass-through", got.Analysis)
	}
	if got.Issuer != nil || got.DocDate != nil || got.Amount != nil {
		t.Errorf("unexpected fields filled: %+v", got.Analysis)
	}
	if !reflect.DeepEqual(got.Sources, []string{SourceOCRLLM}) {
		t.Errorf("sources = %v", got.Sources)
	}
}

func TestMergeVisionOnly(t *testing.T) {
	vision := &llm.Analysis{Issuer: llm.Str("CPAM")}

	got := Merge(vision, nil)

	if deref(got.Issuer) != "CPAM" {
		t.Errorf("issuer = %q", deref(got.Issuer))
	}
	if !reflect.DeepEqual(got.Sources, []string{SourceVision}) {
		t.Errorf("sources = %v", got.Sources)
	}
}

func TestMergeSourcesNeverEmptyForSettledPath(t *testing.T) {
	// a path can settle successfully yet extract nothing
	got := Merge(nil, &llm.Analysis{})

	if !reflect.DeepEqual(got.Sources, []string{SourceOCRLLM}) {
		t.Errorf("sources = %v, want the settled path tagged", got.Sources)
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
