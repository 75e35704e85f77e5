package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/adelaunay/paperbase/internal/pipeline"
)

// Job carries everything one document needs to be processed. The snapshot is
// captured at enqueue time; configuration changes never affect a document
// already in the queue.
type Job struct {
	DocID       uuid.UUID
	Raw         pipeline.RawInput
	Snapshot    pipeline.Snapshot
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
