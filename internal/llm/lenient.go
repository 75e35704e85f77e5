package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// DecodeAnalysisLenient extracts whatever structured fields are salvageable
// from raw model output. Code fences and prose around the JSON object are
// stripped; wrong-typed values are coerced where sensible and dropped
// otherwise. It never returns an error for malformed content: the worst case
// is an empty Analysis, which callers treat as "nothing extracted".
func DecodeAnalysisLenient(raw []byte, logger *slog.Logger) Analysis {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(ExtractJSONObject(string(raw))), &m); err != nil {
		logger.Warn("llm.decode.unparseable", "error", err, "raw_bytes", len(raw))
		return Analysis{}
	}

	var out Analysis
	var dropped []string

	pick := func(key string, dst **string) {
		v, ok := m[key]
		if !ok || v == nil {
			return
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s == "" || strings.EqualFold(s, "null") {
				return
			}
			*dst = &s
		case float64:
			// amounts sometimes come back as bare numbers; keep the
			// two-decimal form so "42.5" renders as "42.50"
			s := fmt.Sprintf("%.2f", t)
			*dst = &s
		default:
			dropped = append(dropped, key)
		}
	}

	pick("category", &out.Category)
	pick("issuer", &out.Issuer)
	pick("doc_date", &out.DocDate)
	if out.DocDate == nil {
		pick("date", &out.DocDate) // older prompt revisions used "date"
	}
	pick("amount", &out.Amount)
	pick("summary", &out.Summary)

	if len(dropped) > 0 {
		logger.Warn("llm.decode.dropped_fields", "fields", dropped)
	}
	return out
}

// ExtractJSONObject trims everything outside the outermost JSON object,
// which also takes care of ```json fences and chatty preambles.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
