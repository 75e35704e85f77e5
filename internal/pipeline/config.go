package pipeline

import "time"

// Snapshot is the document-scoped configuration captured when a document
// enters the pipeline. It is a value, never shared mutable state: two
// documents in flight can run under different snapshots, and a settings
// change mid-run is invisible to documents already admitted.
type Snapshot struct {
	VisionEnabled        bool
	OCRCorrectionEnabled bool // forces the correction sub-call regardless of confidence
	CorrectionThreshold  int  // 0..100; correction runs below this when not forced
	FusionEnabled        bool // seed OCR correction/structuring with the vision analysis
	PathTimeout          time.Duration
}

func (s Snapshot) withDefaults() Snapshot {
	if s.PathTimeout <= 0 {
		s.PathTimeout = 3 * time.Minute
	}
	if s.CorrectionThreshold < 0 {
		s.CorrectionThreshold = 0
	}
	if s.CorrectionThreshold > 100 {
		s.CorrectionThreshold = 100
	}
	return s
}
