package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "zero reads nothing", maxLines: 0, expected: nil},
		{name: "last 3", maxLines: 3, expected: expectedAll[7:]},
		{name: "exactly all", maxLines: 10, expected: expectedAll},
		{name: "more than file", maxLines: 25, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Fatalf("Read(%d) = %v, want %v", tt.maxLines, got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.log"), 10)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no lines, got %v", got)
	}
}

func TestParseZapLine(t *testing.T) {
	line := `{"level":"warn","timestamp":"2026-03-04T10:11:12.345Z","caller":"grid/controller.go:240","msg":"write back failed","error":"disk full","id":7}`

	e := Parse(line)
	if e.Level != "warn" || e.Message != "write back failed" {
		t.Fatalf("unexpected entry %+v", e)
	}
	want := time.Date(2026, 3, 4, 10, 11, 12, 345_000_000, time.UTC)
	if !e.Time.Equal(want) {
		t.Fatalf("time = %v, want %v", e.Time, want)
	}
	if _, ok := e.Fields["caller"]; ok {
		t.Fatalf("caller should be dropped")
	}
	if e.Fields["error"] != "disk full" || e.Fields["id"] != float64(7) {
		t.Fatalf("unexpected fields %v", e.Fields)
	}

	s := e.String()
	if !strings.Contains(s, "WARN  write back failed error=disk full id=7") {
		t.Fatalf("String() = %q", s)
	}
}

func TestParsePlainLine(t *testing.T) {
	e := Parse("panic: boom")
	if e.Level != "" || e.Message != "panic: boom" || e.Fields != nil {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.String() != "panic: boom" {
		t.Fatalf("String() = %q", e.String())
	}
}

func TestTailSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stockgrid.log")
	data := `{"level":"info","msg":"loaded","count":3}` + "\n\n" + `{"level":"error","msg":"load failed"}` + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Level != "error" || entries[1].Message != "load failed" {
		t.Fatalf("unexpected last entry %+v", entries[1])
	}
}
