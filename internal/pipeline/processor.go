package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/entity"
	"github.com/adelaunay/paperbase/internal/llm"
	"github.com/adelaunay/paperbase/internal/observability/metrics"
	"github.com/adelaunay/paperbase/internal/repository"
	"github.com/adelaunay/paperbase/internal/rules"
)

// RuleSource provides the rule set evaluated after the merge.
type RuleSource interface {
	List(ctx context.Context) ([]entity.ClassificationRule, error)
}

// Processor runs the full lifecycle for one document: mark it processing,
// execute the extraction paths, apply user rules on top of the merged
// analysis, and persist the outcome. The configuration snapshot is taken by
// the caller when the job is enqueued, so a document sees one consistent
// configuration end to end.
type Processor struct {
	docs         repository.DocumentRepository
	ruleSource   RuleSource
	orchestrator *Orchestrator
	assembler    *Assembler
	metrics      *metrics.Pipeline
	logger       *slog.Logger
}

func NewProcessor(
	docs repository.DocumentRepository,
	ruleSource RuleSource,
	orchestrator *Orchestrator,
	assembler *Assembler,
	m *metrics.Pipeline,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		docs:         docs,
		ruleSource:   ruleSource,
		orchestrator: orchestrator,
		assembler:    assembler,
		metrics:      m,
		logger:       logger,
	}
}

// Process handles one document. The returned error reflects pipeline failure;
// persistence of the failure itself is best-effort and logged.
func (p *Processor) Process(ctx context.Context, docID uuid.UUID, raw RawInput, snap Snapshot) error {
	start := time.Now()
	if p.metrics != nil {
		p.metrics.InFlightInc()
		defer p.metrics.InFlightDec()
	}
	log := p.logger.With("doc_id", docID, "filename", raw.Filename)
	log.Info("pipeline.process.start", "media_type", raw.MediaType, "bytes", len(raw.Data))

	if err := p.docs.UpdateStatus(ctx, docID, constants.DocStatusProcessing); err != nil {
		log.Error("pipeline.process.status", "error", err)
		return err
	}

	result, err := p.orchestrator.Process(ctx, raw, snap)
	p.observePaths(result.Outcomes)
	if err != nil {
		log.Error("pipeline.process.failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		if p.metrics != nil {
			p.metrics.DocumentDone(string(constants.DocStatusUnprocessed), time.Since(start))
		}
		if ferr := p.assembler.Fail(ctx, docID, err); ferr != nil {
			log.Error("pipeline.process.fail_persist", "error", ferr)
		}
		return err
	}

	if result.Corrected && p.metrics != nil {
		p.metrics.CorrectionRan()
	}

	p.applyRules(ctx, log, &result.Merged, result.Text)
	p.canonicalizeCategory(log, &result.Merged)

	if err := p.assembler.Complete(ctx, docID, result.Merged, result.Text); err != nil {
		log.Error("pipeline.process.persist", "error", err)
		return err
	}
	if p.metrics != nil {
		p.metrics.DocumentDone(string(constants.DocStatusProcessed), time.Since(start))
	}
	log.Info("pipeline.process.ok",
		"category", strDeref(result.Merged.Category),
		"sources", result.Merged.Sources,
		"ocr_confidence", result.OCRConfidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// applyRules loads the user's rules and lets the first match override the
// category. A rule store failure degrades to model-only classification.
func (p *Processor) applyRules(ctx context.Context, log *slog.Logger, merged *MergedAnalysis, text string) {
	if p.ruleSource == nil {
		return
	}
	ruleset, err := p.ruleSource.List(ctx)
	if err != nil {
		log.Warn("pipeline.rules.unavailable", "error", err)
		return
	}
	outcome := rules.Evaluate(ruleset, merged.Analysis, text)
	if !outcome.Matched {
		return
	}
	merged.Category = llm.Str(outcome.Category)
	if p.metrics != nil {
		p.metrics.RuleOverride()
	}
	log.Info("pipeline.rules.override",
		"rule_id", outcome.RuleID,
		"rule_name", outcome.RuleName,
		"category", outcome.Category,
	)
}

// canonicalizeCategory folds free-form model labels onto the taxonomy. A
// label that maps to nothing is kept as-is rather than silently rewritten.
func (p *Processor) canonicalizeCategory(log *slog.Logger, merged *MergedAnalysis) {
	if !llm.Has(merged.Category) {
		return
	}
	if cat, ok := constants.Canonicalize(*merged.Category); ok && string(cat) != *merged.Category {
		log.Debug("pipeline.category.canonicalized", "from", *merged.Category, "to", string(cat))
		merged.Category = llm.Str(string(cat))
	}
}

func (p *Processor) observePaths(outcomes []PathOutcome) {
	if p.metrics == nil {
		return
	}
	for _, oc := range outcomes {
		p.metrics.PathSettled(oc.Source, string(oc.Status))
	}
}
