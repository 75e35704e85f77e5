package pipeline

import (
	"context"
	"errors"
)

// Source tags identify which extraction path contributed to a merged
// analysis. Stored verbatim in the document's provenance.
const (
	SourceVision = "vision"
	SourceOCRLLM = "ocr+llm"
)

// PathStatus is the settled state of one extraction path.
type PathStatus string

const (
	PathOK       PathStatus = "ok"
	PathFailed   PathStatus = "failed"
	PathTimedOut PathStatus = "timeout"
	PathSkipped  PathStatus = "skipped"
)

// PathOutcome is the tagged result of one path execution. A failed or timed
// out path never fails the document on its own; the merger works with
// whatever succeeded.
type PathOutcome struct {
	Source string
	Status PathStatus
	Err    error
}

func settle(source string, err error) PathOutcome {
	switch {
	case err == nil:
		return PathOutcome{Source: source, Status: PathOK}
	case errors.Is(err, context.DeadlineExceeded):
		return PathOutcome{Source: source, Status: PathTimedOut, Err: err}
	default:
		return PathOutcome{Source: source, Status: PathFailed, Err: err}
	}
}
