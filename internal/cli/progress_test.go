package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestUploadProgressSummary(t *testing.T) {
	var p uploadProgress
	if got := p.Summary(); got != "connecting" {
		t.Fatalf("expected connecting before any bytes, got %q", got)
	}

	p.Observe(512, 2048)
	if got := p.Summary(); !strings.Contains(got, "25%") || !strings.Contains(got, "512 B of 2.0 KiB") {
		t.Fatalf("unexpected partial summary %q", got)
	}

	p.Observe(2048, 2048)
	if got := p.Summary(); !strings.Contains(got, "waiting for render") {
		t.Fatalf("expected waiting summary, got %q", got)
	}

	p.Reset()
	p.Observe(4096, 0)
	if got := p.Summary(); !strings.HasPrefix(got, "uploading  4.0 KiB") {
		t.Fatalf("expected unknown-size summary, got %q", got)
	}
}

func TestLiveProgressDisabledWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	live := newLiveProgress(false, &buf, "clip.mp4", &uploadProgress{})
	live.Start()
	live.Stop("done")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestLiveProgressStopPrintsFinalLineOnce(t *testing.T) {
	var buf bytes.Buffer
	live := newLiveProgress(true, &buf, "clip.mp4", &uploadProgress{})
	live.Start()
	live.Stop("rendered clip.mp4")
	live.Stop("again")
	out := buf.String()
	if strings.Count(out, "rendered clip.mp4") != 1 || strings.Contains(out, "again") {
		t.Fatalf("unexpected output %q", out)
	}
}
