package memlog

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestNewWritesSingleLineRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, nil, slog.LevelInfo)
	logger.Info("region skipped", "addr", "0x1000")

	out := buf.String()
	if !strings.Contains(out, "region skipped") {
		t.Fatalf("log output missing message: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected exactly one line, got %q", out)
	}
}

func TestNewTeesToLogFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "memlog-*.log")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	defer f.Close()

	var term bytes.Buffer
	logger := New(&term, f, slog.LevelInfo)
	logger.Warn("freeze worker giving up")

	if !strings.Contains(term.String(), "freeze worker giving up") {
		t.Fatalf("term buffer missing message: %q", term.String())
	}
	contents, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(contents), "freeze worker giving up") {
		t.Fatalf("log file missing message: %q", string(contents))
	}
}

func TestDiscardDropsRecords(t *testing.T) {
	logger := Discard()
	logger.Error("should not panic or write anywhere")
}
