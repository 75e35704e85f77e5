package ocr

import "testing"

func TestAggregateConfidenceBlendsTokensAndHeuristic(t *testing.T) {
	tokens := []Token{{Text: "a", Confidence: 90}, {Text: "b", Confidence: 70}}
	text := "plain words only"

	// token mean 80, heuristic base 20: 0.7*80 + 0.3*20
	got := aggregateConfidence(tokens, text)
	if got < 61.9 || got > 62.1 {
		t.Errorf("confidence = %v, want ~62", got)
	}
}

func TestAggregateConfidenceHeuristicOnly(t *testing.T) {
	text := "Facture du 14/03/2026 montant 42,50 € merci de votre règlement"

	got := aggregateConfidence(nil, text)
	// base 20 + date 20 + currency 15 + amount 15
	if got != 70 {
		t.Errorf("confidence = %v, want 70", got)
	}
}

func TestHeuristicConfidenceCaps(t *testing.T) {
	if got := heuristicConfidence(""); got != 20 {
		t.Errorf("empty text confidence = %v, want base 20", got)
	}
}
