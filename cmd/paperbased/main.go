package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/async"
	"github.com/adelaunay/paperbase/internal/common"
	"github.com/adelaunay/paperbase/internal/export"
	"github.com/adelaunay/paperbase/internal/ingest"
	"github.com/adelaunay/paperbase/internal/llm/openai"
	"github.com/adelaunay/paperbase/internal/observability/logging"
	"github.com/adelaunay/paperbase/internal/observability/metrics"
	"github.com/adelaunay/paperbase/internal/ocr"
	"github.com/adelaunay/paperbase/internal/pipeline"
	"github.com/adelaunay/paperbase/internal/repository"
	"github.com/adelaunay/paperbase/internal/rules"
)

func main() {
	cfg := common.LoadConfig()
	logger := logging.New(cfg.Server.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(cfg.Ingest.WatchDirs) == 0 {
		logger.Error("WATCH_DIRS env var is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.DBConfig{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Error("ensuring schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database ready", "dsn", cfg.Database.DSN)

	docsRepo := repository.NewDocumentRepository(db)
	rulesRepo := repository.NewRuleRepository(db)
	ruleSvc := rules.NewService(rulesRepo, logger)

	m := metrics.NewPipeline()

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
	assembler := pipeline.NewAssembler(docsRepo, logger)
	processor := pipeline.NewProcessor(docsRepo, ruleSvc, orchestrator, assembler, m, logger)

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(2*cfg.Pipeline.PathTimeout),
		async.WithMetrics(m),
	)

	snapshot := func() pipeline.Snapshot {
		return pipeline.Snapshot{
			VisionEnabled:        cfg.Pipeline.VisionEnabled,
			OCRCorrectionEnabled: cfg.Pipeline.OCRCorrectionEnabled,
			CorrectionThreshold:  cfg.Pipeline.CorrectionThreshold,
			FusionEnabled:        cfg.Pipeline.FusionEnabled,
			PathTimeout:          cfg.Pipeline.PathTimeout,
		}
	}
	ingestSvc := ingest.NewService(docsRepo, queue, snapshot, logger)

	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       cfg.Ingest.WatchDirs,
		InitialScan: cfg.Ingest.InitialScan,
		Debounce:    cfg.Ingest.Debounce,
	}, logger)
	if err != nil {
		logger.Error("starting watcher", "error", err)
		os.Exit(1)
	}
	go func() {
		for werr := range watchErrs {
			logger.Warn("watch error", "error", werr)
		}
	}()
	go ingestSvc.Run(ctx, events)

	exporter := export.NewService(docsRepo, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/export.xlsx", func(w http.ResponseWriter, r *http.Request) {
		status := constants.DocStatus(r.URL.Query().Get("status"))
		data, err := exporter.ExportDocumentsXLSX(r.Context(), status)
		if err != nil {
			logger.Error("export failed", "error", err)
			http.Error(w, "export failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="documents.xlsx"`)
		_, _ = w.Write(data)
	})
	srv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	logger.Info("paperbased running", "watch_dirs", cfg.Ingest.WatchDirs, "workers", cfg.Pipeline.Workers)
	<-ctx.Done()
	logger.Info("shutting down...")

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	queue.Shutdown(drainCtx)
	_ = srv.Shutdown(drainCtx)
	logger.Info("stopped")
}
