package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/repository"
)

// Assembler writes the pipeline's output into the externally-owned document
// record. Reprocessing the same input under the same configuration and rules
// writes the same record.
type Assembler struct {
	docs   repository.DocumentRepository
	logger *slog.Logger
}

func NewAssembler(docs repository.DocumentRepository, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{docs: docs, logger: logger}
}

// Complete persists the final structured fields, the canonical text and the
// provenance tags.
func (a *Assembler) Complete(ctx context.Context, docID uuid.UUID, merged MergedAnalysis, text string) error {
	if err := a.docs.SaveResult(ctx, docID, repository.DocumentResult{
		Content:  text,
		Category: merged.Category,
		Issuer:   merged.Issuer,
		DocDate:  merged.DocDate,
		Amount:   merged.Amount,
		Summary:  merged.Summary,
		Sources:  merged.Sources,
	}); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	a.logger.Info("pipeline.assemble.ok",
		"doc_id", docID,
		"category", strDeref(merged.Category),
		"sources", merged.Sources,
	)
	return nil
}

// Fail marks the document unprocessed so the caller can retry; it never
// fabricates a category for a failed run.
func (a *Assembler) Fail(ctx context.Context, docID uuid.UUID, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	if err := a.docs.MarkUnprocessed(ctx, docID, msg); err != nil {
		return fmt.Errorf("mark unprocessed: %w", err)
	}
	a.logger.Warn("pipeline.assemble.unprocessed", "doc_id", docID, "cause", msg)
	return nil
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
