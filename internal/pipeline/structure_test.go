package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/adelaunay/paperbase/internal/llm"
)

type structurerFake struct {
	analysis   llm.Analysis
	analyzeErr error

	corrected  string
	correctErr error

	analyzeCalls []llm.AnalyzeRequest
	correctCalls []llm.CorrectRequest
}

func (f *structurerFake) Analyze(_ context.Context, req llm.AnalyzeRequest) (llm.Analysis, error) {
	f.analyzeCalls = append(f.analyzeCalls, req)
	if f.analyzeErr != nil {
		return llm.Analysis{}, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *structurerFake) Correct(_ context.Context, req llm.CorrectRequest) (string, error) {
	f.correctCalls = append(f.correctCalls, req)
	if f.correctErr != nil {
		return "", f.correctErr
	}
	return f.corrected, nil
}

func TestStructureSkipsCorrectionAboveThreshold(t *testing.T) {
	fake := &structurerFake{analysis: llm.Analysis{Category: llm.Str("Facture")}}
	stage := NewStructuringStage(fake, nil)

	out, err := stage.Run(context.Background(), StructureInput{
		Text:         "FACTURE EDF 42,50 EUR",
		Confidence:   95,
		CorrectFirst: true,
	}, Snapshot{CorrectionThreshold: 80})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fake.correctCalls) != 0 {
		t.Errorf("correction ran at confidence 95 with threshold 80")
	}
	if out.Corrected {
		t.Errorf("output marked corrected")
	}
	if out.Text != "FACTURE EDF 42,50 EUR" {
		t.Errorf("text = %q, want input unchanged", out.Text)
	}
}

func TestStructureCorrectsBelowThreshold(t *testing.T) {
	fake := &structurerFake{
		analysis:  llm.Analysis{Category: llm.Str("Facture")},
		corrected: "FACTURE EDF 42,50 EUR",
	}
	stage := NewStructuringStage(fake, nil)

	out, err := stage.Run(context.Background(), StructureInput{
		Text:         "FACTVRE EDE 4Z,5O EVR",
		Confidence:   60,
		CorrectFirst: true,
	}, Snapshot{CorrectionThreshold: 80})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fake.correctCalls) != 1 {
		t.Fatalf("correction calls = %d, want 1", len(fake.correctCalls))
	}
	if !out.Corrected || out.Text != "FACTURE EDF 42,50 EUR" {
		t.Errorf("corrected=%v text=%q", out.Corrected, out.Text)
	}
	// the analysis must run on the corrected text
	if got := fake.analyzeCalls[0].Text; got != "FACTURE EDF 42,50 EUR" {
		t.Errorf("analyze saw %q, want corrected text", got)
	}
}

func TestStructureCorrectionForcedByConfig(t *testing.T) {
	fake := &structurerFake{corrected: "clean"}
	stage := NewStructuringStage(fake, nil)

	_, err := stage.Run(context.Background(), StructureInput{
		Text:         "noisy",
		Confidence:   99,
		CorrectFirst: true,
	}, Snapshot{OCRCorrectionEnabled: true, CorrectionThreshold: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.correctCalls) != 1 {
		t.Errorf("correction calls = %d, want forced run", len(fake.correctCalls))
	}
}

func TestStructureCorrectionFailureKeepsRawText(t *testing.T) {
	fake := &structurerFake{
		analysis:   llm.Analysis{Category: llm.Str("Autre")},
		correctErr: errors.New("engine unavailable"),
	}
	stage := NewStructuringStage(fake, nil)

	out, err := stage.Run(context.Background(), StructureInput{
		Text:         "raw text",
		Confidence:   10,
		CorrectFirst: true,
	}, Snapshot{CorrectionThreshold: 80})
	if err != nil {
		t.Fatalf("Run: %v, correction failure must not fail the stage", err)
	}
	if out.Corrected || out.Text != "raw text" {
		t.Errorf("corrected=%v text=%q, want raw text kept", out.Corrected, out.Text)
	}
}

func TestStructureAnalyzeFailurePropagates(t *testing.T) {
	wantErr := errors.New("engine down")
	fake := &structurerFake{analyzeErr: wantErr}
	stage := NewStructuringStage(fake, nil)

	_, err := stage.Run(context.Background(), StructureInput{Text: "x", Confidence: 90}, Snapshot{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestStructurePassesVisionContext(t *testing.T) {
	fake := &structurerFake{corrected: "ok"}
	stage := NewStructuringStage(fake, nil)
	vc := &llm.Analysis{Issuer: llm.Str("EDF")}

	_, err := stage.Run(context.Background(), StructureInput{
		Text:          "x",
		Confidence:    10,
		CorrectFirst:  true,
		VisionContext: vc,
	}, Snapshot{CorrectionThreshold: 80})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fake.correctCalls[0].VisionContext != vc {
		t.Errorf("correction did not receive the vision context")
	}
	if fake.analyzeCalls[0].VisionContext != vc {
		t.Errorf("analysis did not receive the vision context")
	}
}
