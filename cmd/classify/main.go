package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/common"
	"github.com/adelaunay/paperbase/internal/llm/openai"
	"github.com/adelaunay/paperbase/internal/observability/logging"
	"github.com/adelaunay/paperbase/internal/ocr"
	"github.com/adelaunay/paperbase/internal/pipeline"
)

// classify runs the extraction pipeline on a single file and prints the
// merged analysis as JSON. No database is touched; it is meant for trying
// out engine and threshold settings.
func main() {
	var (
		vision     = flag.Bool("vision", false, "run the vision path for images")
		fusion     = flag.Bool("fusion", false, "seed structuring with the vision analysis")
		correct    = flag.Bool("correct", false, "force the OCR correction pass")
		threshold  = flag.Int("threshold", 80, "confidence below which correction runs (0..100)")
		jsonIndent = flag.Bool("pretty", true, "indent the JSON output")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: classify [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	logger := logging.New(cfg.Server.LogLevel)

	ext := filepath.Ext(path)
	if constants.MapExtToFormat(ext) == "" {
		logger.Error("unsupported file type", "path", path)
		os.Exit(1)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("reading file", "error", err)
		os.Exit(1)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)

	engine := openai.NewClient(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		VisionModel:    cfg.LLM.VisionModel,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
		RequestsPerSec: cfg.LLM.RequestsPerSec,
	}, logger)

	structuring := pipeline.NewStructuringStage(engine, logger)
	orchestrator := pipeline.NewOrchestrator(extractor, engine, structuring,
		int64(cfg.Pipeline.MaxConcurrentPaths), logger)

	snap := pipeline.Snapshot{
		VisionEnabled:        *vision,
		OCRCorrectionEnabled: *correct,
		CorrectionThreshold:  *threshold,
		FusionEnabled:        *fusion,
		PathTimeout:          cfg.Pipeline.PathTimeout,
	}

	result, err := orchestrator.Process(context.Background(), pipeline.RawInput{
		Data:      data,
		MediaType: constants.MediaTypeForExt(ext),
		Filename:  filepath.Base(path),
	}, snap)
	if err != nil {
		logger.Error("processing failed", "error", err)
		os.Exit(1)
	}

	out := struct {
		pipeline.MergedAnalysis
		Text          string  `json:"text"`
		OCRConfidence float32 `json:"ocr_confidence"`
		Corrected     bool    `json:"corrected"`
	}{
		MergedAnalysis: result.Merged,
		Text:           result.Text,
		OCRConfidence:  result.OCRConfidence,
		Corrected:      result.Corrected,
	}

	enc := json.NewEncoder(os.Stdout)
	if *jsonIndent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		logger.Error("encoding output", "error", err)
		os.Exit(1)
	}
}
