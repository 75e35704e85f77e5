package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/llm"
)

// AnalyzeImage implements llm.VisionAnalyzer: the raw image goes to the
// multimodal model as a base64 data URL, bypassing text extraction entirely.
func (c *Client) AnalyzeImage(ctx context.Context, data []byte, mediaType string) (llm.VisionResult, error) {
	rid := uuid.New().String()
	start := time.Now()

	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	dataURL := "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)

	c.logger.Info("llm.vision.start",
		"req_id", rid,
		"model", c.cfg.VisionModel,
		"image_bytes", len(data),
		"media_type", mediaType,
	)

	messages := []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
				{"type": "text", "text": llm.BuildVisionPrompt(constants.AsStringSlice())},
			},
		},
	}

	content, err := c.chatCompletion(ctx, "vision", c.cfg.VisionModel, messages, false)
	if err != nil {
		c.logger.Error("llm.vision.transport_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.VisionResult{}, err
	}

	raw := llm.ExtractJSONObject(content)
	out := llm.VisionResult{
		Analysis: llm.DecodeAnalysisLenient([]byte(raw), c.logger),
	}
	// ocr_text rides alongside the structured fields in the vision response
	var aux struct {
		OCRText string `json:"ocr_text"`
	}
	if err := json.Unmarshal([]byte(raw), &aux); err == nil {
		out.ExtractedText = aux.OCRText
	}

	c.logger.Info("llm.vision.ok",
		"req_id", rid,
		"category", deref(out.Category),
		"transcribed_len", len(out.ExtractedText),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
