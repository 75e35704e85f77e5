package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/adelaunay/paperbase/internal/llm"
	"github.com/adelaunay/paperbase/internal/ocr"
)

// ErrPipelineFailed signals that no extraction path produced a result. The
// document stays unprocessed and the caller decides retry policy; a failed
// run is never dressed up with a fabricated category.
var ErrPipelineFailed = errors.New("no extraction path succeeded")

// OCRExtractor is the character-recognition engine boundary.
type OCRExtractor interface {
	ExtractBytes(ctx context.Context, data []byte, mediaType string) (ocr.Result, error)
}

// RawInput is one document's bytes plus its declared media type. The
// orchestrator owns it only for the duration of a Process call.
type RawInput struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Result is everything downstream stages need: the merged analysis, the
// canonical text, and the settled per-path outcomes.
type Result struct {
	Merged        MergedAnalysis
	Text          string
	OCRConfidence float32
	Corrected     bool
	Outcomes      []PathOutcome
}

// Orchestrator decides which paths run for a document, executes them
// concurrently, and joins their tagged outcomes into a merged analysis.
// A single weighted semaphore bounds path executions system-wide: N
// documents in flight never put more than MaxConcurrentPaths engine calls
// on the wire at once.
type Orchestrator struct {
	ocr       OCRExtractor
	vision    llm.VisionAnalyzer
	structure *StructuringStage
	slots     *semaphore.Weighted
	logger    *slog.Logger
}

func NewOrchestrator(ocrx OCRExtractor, vision llm.VisionAnalyzer, structure *StructuringStage, maxConcurrentPaths int64, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrentPaths <= 0 {
		maxConcurrentPaths = 4
	}
	return &Orchestrator{
		ocr:       ocrx,
		vision:    vision,
		structure: structure,
		slots:     semaphore.NewWeighted(maxConcurrentPaths),
		logger:    logger,
	}
}

type visionOutcome struct {
	res llm.VisionResult
	err error
}

type ocrOutcome struct {
	structured StructureOutput
	confidence float32
	err        error
}

// Process runs the configured paths for one document. Each path settles
// independently (success, failure or timeout); the merge only happens after
// both have settled. Both paths failing is the only fatal case.
func (o *Orchestrator) Process(ctx context.Context, raw RawInput, snap Snapshot) (Result, error) {
	snap = snap.withDefaults()

	runVision := snap.VisionEnabled && o.vision != nil && isImage(raw.MediaType)

	visionCh := make(chan visionOutcome, 1)
	var wg sync.WaitGroup

	if runVision {
		wg.Add(1)
		go func() {
			defer wg.Done()
			visionCh <- o.runVisionPath(ctx, raw, snap)
		}()
	} else {
		visionCh <- visionOutcome{err: fmt.Errorf("vision path disabled")}
	}

	var ocrOut ocrOutcome
	wg.Add(1)
	go func() {
		defer wg.Done()
		ocrOut = o.runOCRPath(ctx, raw, snap, runVision, visionCh)
	}()

	wg.Wait()

	// the OCR path consumed the vision outcome for fusion; recover it for
	// the merge from the channel it re-published on
	vis := <-visionCh

	outcomes := []PathOutcome{settle(SourceOCRLLM, ocrOut.err)}
	if runVision {
		outcomes = append(outcomes, settle(SourceVision, vis.err))
	} else {
		outcomes = append(outcomes, PathOutcome{Source: SourceVision, Status: PathSkipped})
	}
	for _, oc := range outcomes {
		if oc.Err != nil {
			o.logger.Warn("pipeline.path.settled", "source", oc.Source, "status", oc.Status, "error", oc.Err)
		} else {
			o.logger.Info("pipeline.path.settled", "source", oc.Source, "status", oc.Status)
		}
	}

	var ocrAnalysis, visionAnalysis *llm.Analysis
	if ocrOut.err == nil {
		a := ocrOut.structured.Analysis
		ocrAnalysis = &a
	}
	if runVision && vis.err == nil {
		a := vis.res.Analysis
		visionAnalysis = &a
	}

	if ocrAnalysis == nil && visionAnalysis == nil {
		return Result{Outcomes: outcomes}, fmt.Errorf("%w: ocr: %v, vision: %v", ErrPipelineFailed, ocrOut.err, vis.err)
	}

	merged := Merge(visionAnalysis, ocrAnalysis)

	// Canonical text: the OCR path's (possibly corrected) text is the
	// literal transcription and wins; the vision transcription only stands
	// in when the OCR path produced nothing.
	text := ""
	if ocrOut.err == nil {
		text = ocrOut.structured.Text
	}
	if strings.TrimSpace(text) == "" && vis.err == nil {
		text = vis.res.ExtractedText
	}

	return Result{
		Merged:        merged,
		Text:          text,
		OCRConfidence: ocrOut.confidence,
		Corrected:     ocrOut.err == nil && ocrOut.structured.Corrected,
		Outcomes:      outcomes,
	}, nil
}

// runVisionPath executes the vision extraction under a pool slot and its own
// timeout.
func (o *Orchestrator) runVisionPath(ctx context.Context, raw RawInput, snap Snapshot) visionOutcome {
	pathCtx, cancel := context.WithTimeout(ctx, snap.PathTimeout)
	defer cancel()

	var res llm.VisionResult
	err := o.withSlot(pathCtx, func(ctx context.Context) error {
		var err error
		res, err = o.vision.AnalyzeImage(ctx, raw.Data, raw.MediaType)
		return err
	})
	return visionOutcome{res: res, err: err}
}

// runOCRPath executes OCR extraction then structuring. When fusion is on it
// joins on the vision outcome between the two, without holding a pool slot,
// and republishes the outcome for the merge step. The join wait is bounded
// and structuring runs under its own deadline, so a stalled vision path can
// slow this one down but never starve it into failure.
func (o *Orchestrator) runOCRPath(ctx context.Context, raw RawInput, snap Snapshot, fuseWithVision bool, visionCh chan visionOutcome) ocrOutcome {
	extractCtx, cancel := context.WithTimeout(ctx, snap.PathTimeout)
	defer cancel()

	var ocrRes ocr.Result
	err := o.withSlot(extractCtx, func(ctx context.Context) error {
		var err error
		ocrRes, err = o.ocr.ExtractBytes(ctx, raw.Data, raw.MediaType)
		return err
	})
	if err != nil {
		return ocrOutcome{err: fmt.Errorf("ocr extract: %w", err)}
	}
	if strings.TrimSpace(ocrRes.Text) == "" {
		return ocrOutcome{confidence: ocrRes.Confidence, err: errors.New("ocr produced no text")}
	}

	// fusion join point: wait for the vision path to settle, then put its
	// outcome back for Process
	var visionContext *llm.Analysis
	if snap.FusionEnabled && fuseWithVision {
		wait := time.NewTimer(snap.PathTimeout / 2)
		select {
		case vis := <-visionCh:
			wait.Stop()
			if vis.err == nil && !vis.res.Analysis.Empty() {
				a := vis.res.Analysis
				visionContext = &a
			}
			visionCh <- vis
		case <-wait.C:
			// vision is overrunning; structure without it
		case <-ctx.Done():
			wait.Stop()
			return ocrOutcome{confidence: ocrRes.Confidence, err: ctx.Err()}
		}
	}

	// fresh deadline: time spent extracting or waiting on vision is not
	// charged against the structuring call
	structCtx, cancelStruct := context.WithTimeout(ctx, snap.PathTimeout)
	defer cancelStruct()

	var structured StructureOutput
	err = o.withSlot(structCtx, func(ctx context.Context) error {
		var err error
		structured, err = o.structure.Run(ctx, StructureInput{
			Text:          ocrRes.Text,
			Confidence:    ocrRes.Confidence,
			CorrectFirst:  true,
			VisionContext: visionContext,
		}, snap)
		return err
	})
	if err != nil {
		return ocrOutcome{confidence: ocrRes.Confidence, err: fmt.Errorf("structure: %w", err)}
	}
	return ocrOutcome{structured: structured, confidence: ocrRes.Confidence}
}

// withSlot runs fn under one admission-control slot. The slot is held only
// for the duration of the engine call, never across the fusion join, so two
// paths of the same document cannot deadlock on a full pool.
func (o *Orchestrator) withSlot(ctx context.Context, fn func(context.Context) error) error {
	if err := o.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	defer o.slots.Release(1)
	return fn(ctx)
}

func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
