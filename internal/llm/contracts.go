package llm

import "context"

// Analysis is the normalized structured shape we want from the reasoning
// engine. Every field is optional: nil means the model could not extract it,
// which callers must treat as "unknown", never as an error.
type Analysis struct {
	Category *string `json:"category,omitempty"`
	Issuer   *string `json:"issuer,omitempty"`
	DocDate  *string `json:"doc_date,omitempty"` // YYYY-MM-DD
	Amount   *string `json:"amount,omitempty"`   // main amount, digits plus currency
	Summary  *string `json:"summary,omitempty"`  // <=15 words
}

// Has reports whether a field pointer carries a non-empty value.
func Has(p *string) bool {
	return p != nil && *p != ""
}

// Empty reports whether no field was extracted at all.
func (a Analysis) Empty() bool {
	return !Has(a.Category) && !Has(a.Issuer) && !Has(a.DocDate) && !Has(a.Amount) && !Has(a.Summary)
}

// AnalyzeRequest carries one structuring call.
type AnalyzeRequest struct {
	Text string

	// VisionContext, when non-nil, is a prior vision analysis used to
	// disambiguate; only supplied when fusion is enabled.
	VisionContext *Analysis

	AllowedCategories []string
}

// CorrectRequest carries one OCR-noise correction call.
type CorrectRequest struct {
	Text       string
	Confidence float32 // aggregate OCR confidence 0..100
	// VisionContext seeds the correction with the vision analysis when
	// fusion is enabled.
	VisionContext *Analysis
}

// VisionResult is the vision path's output: a structured interpretation plus
// the text the model transcribed from the image.
type VisionResult struct {
	Analysis
	ExtractedText string
}

// Structurer is the uniform adapter both paths use to reach the reasoning
// engine for text work.
type Structurer interface {
	// Analyze returns the structured analysis for free text. Malformed or
	// partial model output degrades field-by-field; it never fails the call.
	Analyze(ctx context.Context, req AnalyzeRequest) (Analysis, error)
	// Correct rewrites OCR noise (letter/digit confusions, hyphenation) and
	// returns the corrected text. On failure callers keep the raw text.
	Correct(ctx context.Context, req CorrectRequest) (string, error)
}

// VisionAnalyzer sends raw image bytes to a multimodal engine.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, data []byte, mediaType string) (VisionResult, error)
}

// Str is a convenience for building optional fields in tests and callers.
func Str(s string) *string { return &s }
