package pipeline

import (
	"context"
	"log/slog"

	"github.com/adelaunay/paperbase/internal/llm"
)

// StructuringStage turns extracted text into an Analysis, optionally running
// the confidence-gated OCR-noise correction first.
type StructuringStage struct {
	structurer llm.Structurer
	logger     *slog.Logger
}

func NewStructuringStage(structurer llm.Structurer, logger *slog.Logger) *StructuringStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuringStage{structurer: structurer, logger: logger}
}

type StructureInput struct {
	Text       string
	Confidence float32 // aggregate OCR confidence 0..100

	// CorrectFirst requests the correction pass; whether it actually runs is
	// gated below on the snapshot.
	CorrectFirst bool

	// VisionContext is non-nil only when fusion is enabled and the vision
	// path produced an analysis.
	VisionContext *llm.Analysis
}

type StructureOutput struct {
	Analysis  llm.Analysis
	Text      string // corrected text when the correction call ran, input text otherwise
	Corrected bool
}

// shouldCorrect applies the correction gate: forced by configuration, or the
// OCR confidence fell below the threshold.
func shouldCorrect(in StructureInput, snap Snapshot) bool {
	if !in.CorrectFirst {
		return false
	}
	if snap.OCRCorrectionEnabled {
		return true
	}
	return in.Confidence < float32(snap.CorrectionThreshold)
}

// Run never hard-fails on malformed model output; only transport-level
// failures of the structuring call itself propagate (and fail this path, not
// the document).
func (s *StructuringStage) Run(ctx context.Context, in StructureInput, snap Snapshot) (StructureOutput, error) {
	out := StructureOutput{Text: in.Text}

	if shouldCorrect(in, snap) {
		corrected, err := s.structurer.Correct(ctx, llm.CorrectRequest{
			Text:          in.Text,
			Confidence:    in.Confidence,
			VisionContext: in.VisionContext,
		})
		if err != nil {
			// correction is best-effort: keep the raw text
			s.logger.Warn("pipeline.correct.failed", "error", err, "confidence", in.Confidence)
		} else {
			out.Text = corrected
			out.Corrected = true
			s.logger.Info("pipeline.correct.ok",
				"confidence", in.Confidence,
				"forced", snap.OCRCorrectionEnabled,
			)
		}
	} else {
		s.logger.Debug("pipeline.correct.skipped",
			"confidence", in.Confidence,
			"threshold", snap.CorrectionThreshold,
		)
	}

	analysis, err := s.structurer.Analyze(ctx, llm.AnalyzeRequest{
		Text:          out.Text,
		VisionContext: in.VisionContext,
	})
	if err != nil {
		return StructureOutput{}, err
	}
	out.Analysis = analysis
	return out, nil
}
