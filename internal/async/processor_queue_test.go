package async

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/constants"
	"github.com/adelaunay/paperbase/internal/common"
	"github.com/adelaunay/paperbase/internal/entity"
	"github.com/adelaunay/paperbase/internal/llm"
	"github.com/adelaunay/paperbase/internal/ocr"
	"github.com/adelaunay/paperbase/internal/pipeline"
	"github.com/adelaunay/paperbase/internal/repository"
)

type docsStub struct {
	mu    sync.Mutex
	saves int
}

func (s *docsStub) Create(context.Context, *entity.Document) error { return nil }
func (s *docsStub) GetByID(context.Context, uuid.UUID) (*entity.Document, error) {
	return nil, common.ErrNotFound
}
func (s *docsStub) List(context.Context, constants.DocStatus, int) ([]entity.Document, error) {
	return nil, nil
}
func (s *docsStub) UpdateStatus(context.Context, uuid.UUID, constants.DocStatus) error { return nil }
func (s *docsStub) SaveResult(_ context.Context, _ uuid.UUID, _ repository.DocumentResult) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return nil
}
func (s *docsStub) MarkUnprocessed(context.Context, uuid.UUID, string) error { return nil }

func (s *docsStub) saved() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type slowOCRStub struct {
	delay time.Duration
	calls atomic.Int32
}

func (s *slowOCRStub) ExtractBytes(ctx context.Context, _ []byte, _ string) (ocr.Result, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ocr.Result{}, ctx.Err()
		}
	}
	return ocr.Result{Text: "FACTURE EDF", Confidence: 90}, nil
}

type structurerStub struct{}

func (structurerStub) Analyze(context.Context, llm.AnalyzeRequest) (llm.Analysis, error) {
	return llm.Analysis{Category: llm.Str("Facture")}, nil
}
func (structurerStub) Correct(_ context.Context, req llm.CorrectRequest) (string, error) {
	return req.Text, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newQueueUnderTest(docs *docsStub, ocrDelay time.Duration, opts ...Option) *ProcessorQueue {
	stage := pipeline.NewStructuringStage(structurerStub{}, nil)
	orch := pipeline.NewOrchestrator(&slowOCRStub{delay: ocrDelay}, nil, stage, 2, quietLogger())
	proc := pipeline.NewProcessor(docs, nil, orch, pipeline.NewAssembler(docs, quietLogger()), nil, quietLogger())
	return NewProcessorQueue(proc, quietLogger(), opts...)
}

func testJob() Job {
	return Job{
		DocID:       uuid.New(),
		Raw:         pipeline.RawInput{Data: []byte("img"), MediaType: "image/png", Filename: "scan.png"},
		Snapshot:    pipeline.Snapshot{},
		SubmittedAt: time.Now(),
	}
}

func TestQueueProcessesEnqueuedJobs(t *testing.T) {
	docs := &docsStub{}
	q := newQueueUnderTest(docs, 0, WithWorkers(2), WithQueueSize(8))

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(context.Background(), testJob()); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	q.Shutdown(context.Background())

	if got := docs.saved(); got != 5 {
		t.Errorf("saved results = %d, want 5", got)
	}
}

func TestQueueShutdownNotStalledByBackpressuredProducer(t *testing.T) {
	docs := &docsStub{}
	q := newQueueUnderTest(docs, 50*time.Millisecond, WithWorkers(1), WithQueueSize(1))

	// more producers than the single worker and the one buffer slot can
	// absorb, so at least one Enqueue blocks on the full channel
	var producers sync.WaitGroup
	for i := 0; i < 4; i++ {
		producers.Add(1)
		go func() {
			defer producers.Done()
			_ = q.Enqueue(context.Background(), testJob())
		}()
	}

	time.Sleep(10 * time.Millisecond) // let the producers pile up

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		q.Shutdown(ctx)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("shutdown stalled behind a backpressured producer")
	}
	producers.Wait()
}

func TestQueueEnqueueAfterShutdownIsDropped(t *testing.T) {
	docs := &docsStub{}
	q := newQueueUnderTest(docs, 0, WithWorkers(1), WithQueueSize(4))
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), testJob()); err != nil {
		t.Fatalf("Enqueue after shutdown: %v", err)
	}
	if got := docs.saved(); got != 0 {
		t.Errorf("saved results = %d, want the late job dropped", got)
	}
}
