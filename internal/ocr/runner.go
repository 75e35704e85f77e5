package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner abstracts the engine binaries so extraction logic can be tested
// without pdftotext or tesseract installed.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrCap bounds how much engine noise one log record carries; tesseract
// prints a warning per page on some scans.
const stderrCap = 8 << 10

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()

	log := r.logger.With("cmd", name, "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.Error("ocr.exec.failed",
			"args", args,
			"error", err,
			"stderr", truncate(errb.String(), stderrCap),
		)
		return out.Bytes(), errb.Bytes(), err
	}
	log.Debug("ocr.exec.ok",
		"args", args,
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
