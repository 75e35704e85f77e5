package ocr

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	out, stderr, err := r.Run(context.Background(), "sh", "-c", "echo sortie; echo bruit 1>&2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(out)) != "sortie" {
		t.Errorf("stdout = %q", out)
	}
	if strings.TrimSpace(string(stderr)) != "bruit" {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExecRunnerReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	if _, _, err := r.Run(context.Background(), "sh", "-c", "exit 3"); err == nil {
		t.Fatalf("want an error for a non-zero exit")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("court", 10); got != "court" {
		t.Errorf("truncate = %q", got)
	}
	long := strings.Repeat("x", 20)
	got := truncate(long, 10)
	if !strings.HasSuffix(got, "...(truncated)") || !strings.HasPrefix(got, "xxxxxxxxxx") {
		t.Errorf("truncate = %q", got)
	}
}
