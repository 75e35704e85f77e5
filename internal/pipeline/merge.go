package pipeline

import (
	"github.com/adelaunay/paperbase/internal/llm"
)

// MergedAnalysis is one document's consolidated structured analysis plus the
// provenance of which path(s) produced it.
type MergedAnalysis struct {
	llm.Analysis
	Sources []string `json:"sources"`
}

// Merge combines the two paths' analyses into one. Priority is asymmetric:
// the OCR+LLM path read the literal document text and wins on every
// structured field; vision only fills the gaps. When a single path settled
// successfully the merge is an identity pass-through under that path's tag.
func Merge(vision, ocrLLM *llm.Analysis) MergedAnalysis {
	var out MergedAnalysis

	pickField := func(ocrVal, visionVal *string) *string {
		if llm.Has(ocrVal) {
			return ocrVal
		}
		if llm.Has(visionVal) {
			return visionVal
		}
		return nil
	}

	var v, o llm.Analysis
	if vision != nil {
		v = *vision
	}
	if ocrLLM != nil {
		o = *ocrLLM
	}

	out.Category = pickField(o.Category, v.Category)
	out.Issuer = pickField(o.Issuer, v.Issuer)
	out.DocDate = pickField(o.DocDate, v.DocDate)
	out.Amount = pickField(o.Amount, v.Amount)
	out.Summary = pickField(o.Summary, v.Summary)

	if ocrLLM != nil && !o.Empty() {
		out.Sources = append(out.Sources, SourceOCRLLM)
	}
	if vision != nil && !v.Empty() {
		out.Sources = append(out.Sources, SourceVision)
	}
	// A path that settled successfully but extracted nothing still counts as
	// the analysis's source; provenance must never be empty after a
	// successful run.
	if len(out.Sources) == 0 {
		if ocrLLM != nil {
			out.Sources = append(out.Sources, SourceOCRLLM)
		} else if vision != nil {
			out.Sources = append(out.Sources, SourceVision)
		}
	}
	return out
}
