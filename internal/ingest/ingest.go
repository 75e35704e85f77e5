package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/async"
	"github.com/adelaunay/paperbase/internal/entity"
	"github.com/adelaunay/paperbase/internal/pipeline"
	"github.com/adelaunay/paperbase/internal/repository"
)

// SnapshotProvider returns the pipeline configuration to pin for a document
// at the moment it is enqueued.
type SnapshotProvider func() pipeline.Snapshot

// Service turns filesystem paths into pending document rows and queue jobs.
type Service struct {
	docs     repository.DocumentRepository
	queue    async.Queue
	snapshot SnapshotProvider
	logger   *slog.Logger
}

func NewService(docs repository.DocumentRepository, queue async.Queue, snapshot SnapshotProvider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{docs: docs, queue: queue, snapshot: snapshot, logger: logger}
}

// IngestFile reads one file, creates its pending row, and enqueues it. The
// file's bytes travel with the job; the watch directory can be cleaned up
// without affecting in-flight documents.
func (s *Service) IngestFile(ctx context.Context, path string) (uuid.UUID, error) {
	ext := filepath.Ext(path)
	if constants.MapExtToFormat(ext) == "" {
		return uuid.Nil, fmt.Errorf("unsupported file type: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return uuid.Nil, fmt.Errorf("empty file: %s", path)
	}

	doc := &entity.Document{
		ID:        uuid.New(),
		Filename:  filepath.Base(path),
		MediaType: constants.MediaTypeForExt(ext),
		Status:    constants.DocStatusPending,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return uuid.Nil, fmt.Errorf("create document: %w", err)
	}

	job := async.Job{
		DocID: doc.ID,
		Raw: pipeline.RawInput{
			Data:      data,
			MediaType: doc.MediaType,
			Filename:  doc.Filename,
		},
		Snapshot:    s.snapshot(),
		SubmittedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue document: %w", err)
	}
	s.logger.Info("ingest.enqueued", "doc_id", doc.ID, "filename", doc.Filename, "bytes", len(data))
	return doc.ID, nil
}

// Run consumes watcher events until the context is cancelled. Individual
// ingest failures are logged and skipped.
func (s *Service) Run(ctx context.Context, events <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			if _, err := s.IngestFile(ctx, path); err != nil {
				s.logger.Warn("ingest.skipped", "path", path, "error", err)
			}
		}
	}
}
