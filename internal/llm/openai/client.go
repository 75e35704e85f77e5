package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/llm"
	"github.com/adelaunay/paperbase/internal/resilience"
)

// Prompts are capped at roughly this many characters of document text; long
// contracts blow past small local-model context windows otherwise.
const maxPromptTextLen = 4000

// Analyze implements llm.Structurer. Transport failures surface as errors;
// malformed model output never does: it degrades through strict schema
// validation into lenient field-by-field decoding.
func (c *Client) Analyze(ctx context.Context, req llm.AnalyzeRequest) (llm.Analysis, error) {
	rid := uuid.New().String()
	start := time.Now()

	cats := req.AllowedCategories
	if len(cats) == 0 {
		cats = constants.AsStringSlice()
	}

	c.logger.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"has_vision_context", req.VisionContext != nil,
	)

	user := req.Text
	if len(user) > maxPromptTextLen {
		user = user[:maxPromptTextLen]
	}
	messages := []map[string]any{
		{"role": "system", "content": llm.BuildAnalysisSystemPrompt(cats)},
	}
	if req.VisionContext != nil {
		if b, err := json.Marshal(req.VisionContext); err == nil {
			messages = append(messages, map[string]any{
				"role":    "system",
				"content": "Preliminary vision analysis of the same document, for disambiguation only: " + string(b),
			})
		}
	}
	messages = append(messages, map[string]any{"role": "user", "content": user})

	content, err := c.chatCompletion(ctx, "analyze", c.cfg.Model, messages, true)
	if err != nil {
		c.logger.Error("llm.analyze.transport_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Analysis{}, err
	}

	raw := []byte(llm.ExtractJSONObject(content))
	schema := llm.BuildAnalysisJSONSchema(cats)
	if err := llm.ValidateJSONAgainstSchema(schema, raw); err != nil {
		c.logger.Warn("llm.analyze.schema_mismatch", "req_id", rid, "error", err)
	}
	out := llm.DecodeAnalysisLenient(raw, c.logger)

	c.logger.Info("llm.analyze.ok",
		"req_id", rid,
		"category", deref(out.Category),
		"issuer", deref(out.Issuer),
		"date", deref(out.DocDate),
		"amount", deref(out.Amount),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Correct implements llm.Structurer: one pass of OCR-noise repair, fused with
// the vision analysis when one is supplied.
func (c *Client) Correct(ctx context.Context, req llm.CorrectRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	var sys string
	if req.VisionContext != nil {
		sys = llm.BuildFusionCorrectionPrompt(req.Confidence, req.VisionContext)
	} else {
		sys = llm.BuildCorrectionPrompt(req.Confidence)
	}

	c.logger.Info("llm.correct.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.Text),
		"confidence", req.Confidence,
		"fused", req.VisionContext != nil,
	)

	text := req.Text
	if len(text) > maxPromptTextLen {
		text = text[:maxPromptTextLen]
	}
	messages := []map[string]any{
		{"role": "system", "content": sys},
		{"role": "user", "content": text},
	}

	content, err := c.chatCompletion(ctx, "correct", c.cfg.Model, messages, false)
	if err != nil {
		c.logger.Error("llm.correct.transport_error",
			"req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return "", err
	}
	corrected := strings.TrimSpace(content)
	if corrected == "" {
		return "", fmt.Errorf("empty correction response")
	}

	c.logger.Info("llm.correct.ok",
		"req_id", rid,
		"in_len", len(req.Text),
		"out_len", len(corrected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return corrected, nil
}

// chatCompletion runs one /chat/completions round trip through the rate
// limiter and the resilience executor, returning the first choice's content.
func (c *Client) chatCompletion(ctx context.Context, operation, model string, messages []map[string]any, jsonMode bool) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	body := map[string]any{
		"model":       model,
		"temperature": c.cfg.Temperature,
		"messages":    messages,
	}
	if jsonMode {
		body["response_format"] = map[string]any{"type": "json_object"}
	}

	var content string
	err := c.exec.Execute(ctx, operation, func(ctx context.Context) error {
		raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
		if err != nil {
			return err
		}
		var cc struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(raw, &cc); err != nil {
			return fmt.Errorf("decode chat response: %w", err)
		}
		if len(cc.Choices) == 0 {
			return fmt.Errorf("no choices in chat response")
		}
		content = strings.TrimSpace(cc.Choices[0].Message.Content)
		return nil
	}, classifyTransportError)
	return content, err
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm status %d: %s", e.code, e.body)
}

func classifyTransportError(err error) resilience.ErrorClassification {
	var se *statusError
	if errors.As(err, &se) {
		// 429 and 5xx are worth retrying; 4xx means the request is wrong
		retryable := se.code == http.StatusTooManyRequests || se.code >= 500
		return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	// network-level failure
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("llm response body close error", "error", err)
		}
	}()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: truncate(string(raw), 512)}
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
