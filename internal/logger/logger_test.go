package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestDebugSilentByDefault(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Debug("hidden %d", 1)
	Info("hidden")
	Warn("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestVerboseOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(true)
	defer SetVerbose(false)

	Section("Ingest")
	Debug("value is %d", 42)
	Info("done")

	out := buf.String()
	if !strings.Contains(out, "=== Ingest ===") {
		t.Errorf("missing section header: %q", out)
	}
	if !strings.Contains(out, "[DEBUG] value is 42") {
		t.Errorf("missing debug line: %q", out)
	}
	if !strings.Contains(out, "[INFO] done") {
		t.Errorf("missing info line: %q", out)
	}
	if !IsVerbose() {
		t.Error("IsVerbose() = false while enabled")
	}
}

func TestErrorAlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	SetVerbose(false)

	Error("boom: %s", "disk full")
	if !strings.Contains(buf.String(), "[ERROR] boom: disk full") {
		t.Errorf("missing error line: %q", buf.String())
	}
}
