package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b(20\d{2}[-/.]\d{2}[-/.]\d{2}|\d{2}[-/.]\d{2}[-/.]20\d{2})\b`)
	reCurr   = regexp.MustCompile(`\b(eur|usd|gbp|chf|cad)\b|[$£€]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}([ .]\d{3})*([.,]\d{2})\b|\b\d+[.,]\d{2}\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// aggregateConfidence is the document-level score on a 0..100 scale:
// the mean of token confidences when the engine produced any, blended
// with a text-shape heuristic; heuristic alone otherwise.
func aggregateConfidence(tokens []Token, text string) float32 {
	heur := heuristicConfidence(text)
	if len(tokens) == 0 {
		return heur
	}
	var sum float64
	for _, t := range tokens {
		sum += float64(t.Confidence)
	}
	mean := float32(sum / float64(len(tokens)))

	// weight the engine's own confidence higher
	conf := 0.7*mean + 0.3*heur
	if conf > 100 {
		conf = 100
	}
	return conf
}

// naive heuristic confidence based on decoded text characteristics
func heuristicConfidence(txt string) float32 {
	// boost if we see common administrative-document artifacts
	// (date-ish, currency-ish, amount-ish).
	txtL := strings.ToLower(txt)
	score := float32(20) // base
	if hasDatePattern(txtL) {
		score += 20
	}
	if hasCurrencyPattern(txtL) {
		score += 15
	}
	if hasAmountPattern(txtL) {
		score += 15
	}
	if len(txt) > 120 {
		score += 10
	} // enough content
	if score > 100 {
		score = 100
	}
	return score
}
