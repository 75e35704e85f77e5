package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Prompt builders for the three reasoning-engine calls. The documents are
// French administrative paperwork, so the correction guidance is phrased for
// that corpus; the instructions themselves stay in English for model
// portability.

func BuildAnalysisSystemPrompt(allowedCategories []string) string {
	parts := []string{
		"You are an assistant specialized in analyzing administrative documents.",
		"Analyze the provided text and answer ONLY with a valid JSON object containing:",
		`{"category": <one of: ` + strings.Join(allowedCategories, ", ") + `>,`,
		`"summary": <summary, 15 words max>,`,
		`"date": <main document date as YYYY-MM-DD, or null>,`,
		`"amount": <main amount in digits with currency, or null>,`,
		`"issuer": <issuing organization or company, or null>}`,
		"Answer with nothing but the JSON.",
	}
	return strings.Join(parts, "\n")
}

// BuildCorrectionPrompt asks for character-level OCR repair. The confidence
// score tells the model how aggressive to be.
func BuildCorrectionPrompt(confidence float32) string {
	return fmt.Sprintf(`You are an expert at correcting OCR output from French administrative documents.
The following text was extracted by optical character recognition and may contain typical errors:
- confused letters (l/1/I, 0/O, rn/m, ...)
- missing or spurious spaces
- broken punctuation
- hyphenated words split across lines
Fix these errors based on context. Return ONLY the corrected text, no commentary.
Preserve the original structure and layout as much as possible.
OCR confidence score: %.0f%% - the lower it is, the more correction is warranted.`, confidence)
}

// BuildFusionCorrectionPrompt seeds the correction with a prior vision
// analysis so factual fields (dates, amounts, reference numbers, issuer
// names) can be consolidated across both sources.
func BuildFusionCorrectionPrompt(confidence float32, visionContext *Analysis) string {
	ctxJSON := "{}"
	if visionContext != nil {
		if b, err := json.Marshal(visionContext); err == nil {
			ctxJSON = string(b)
		}
	}
	return fmt.Sprintf(`You are an expert at factual consolidation of French administrative documents.
You have two sources: a preliminary vision analysis of the original image, and an imperfect OCR text.
Produce a factually correct textual version of the document by consolidating both.
Rules:
- Fix obvious OCR reading errors.
- Resolve divergences in favor of internal consistency (dates, amounts, references must agree).
- Never invent information absent from both sources.
- Do not summarize, do not rephrase, do not explain.
Accuracy matters most for dates, amounts, numbers (invoice, contract, IBAN, SIRET) and organization names.
OCR confidence score: %.0f%%
Vision context: %s
Return only the consolidated text. No commentary.`, confidence, ctxJSON)
}

// BuildVisionPrompt asks a multimodal engine for the structured analysis plus
// a faithful transcription of the visible text. Handwritten mentions take
// priority over print for dates, amounts and names.
func BuildVisionPrompt(allowedCategories []string) string {
	parts := []string{
		"You are an assistant specialized in visual analysis of administrative and medical documents.",
		"You are given the image of a document. Read everything: printed text, checked boxes, stamps, signatures and handwritten mentions (high priority).",
		"Handwritten elements may amend the printed content and must be transcribed and folded into the analysis.",
		"Answer ONLY with a strictly valid JSON object:",
		`{"category": <one of: ` + strings.Join(allowedCategories, ", ") + `>,`,
		`"summary": <summary, 15 words max>,`,
		`"date": <main visible date (handwritten wins) as YYYY-MM-DD, or null>,`,
		`"amount": <main amount in digits with currency, or null>,`,
		`"issuer": <issuing organization, or null>,`,
		`"ocr_text": <the full text you read in the image, faithfully transcribed>}`,
		"Never invent illegible text; a partially readable handwritten word is transcribed only for its certain part, null if fully illegible.",
		"Nothing outside the JSON.",
	}
	return strings.Join(parts, "\n")
}
