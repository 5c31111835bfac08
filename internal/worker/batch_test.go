package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/carbontally/internal/interpret"
	"github.com/ppiankov/carbontally/internal/model"
)

func writeLines(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "activities.txt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBatchProcessor_ProcessLines(t *testing.T) {
	processor := NewBatchProcessor(InterpretHandler(interpret.NewDefault()), 3)

	lines := []string{"drove 5 km by car", "cycled 3 km", "used 4 kWh electricity", "ate 0.2 kg beef", "xyz nonsense"}
	results := processor.ProcessLines(context.Background(), lines)

	if len(results) != len(lines) {
		t.Fatalf("expected %d results, got %d", len(lines), len(results))
	}

	wantActivity := []string{"car", "cycle", "electricity", "beef", model.ActivityUnknown}
	for i, r := range results {
		if r.Index != i || r.Line != lines[i] {
			t.Errorf("result %d out of order: index %d line %q", i, r.Index, r.Line)
		}
		if r.Error != nil {
			t.Errorf("unexpected error for %q: %v", r.Line, r.Error)
		}
		if len(r.Activities) != 1 || r.Activities[0].Activity != wantActivity[i] {
			t.Errorf("line %q: expected %s, got %+v", r.Line, wantActivity[i], r.Activities)
		}
	}

	total, failed := Summarize(results)
	if failed != 0 {
		t.Errorf("expected no failures, got %d", failed)
	}
	if total < -9.09 || total > -9.07 {
		t.Errorf("expected total -9.08, got %v", total)
	}
}

func TestBatchProcessor_OrderUnderSkew(t *testing.T) {
	// Earlier lines take longer, so completion order is reversed
	handler := func(_ context.Context, line string) ([]model.ParsedActivity, error) {
		time.Sleep(time.Duration(10-len(line)) * 2 * time.Millisecond)
		return []model.ParsedActivity{{Activity: line}}, nil
	}
	processor := NewBatchProcessor(handler, 4)

	lines := []string{"a", "bb", "ccc", "dddd"}
	results := processor.ProcessLines(context.Background(), lines)

	for i, r := range results {
		if r.Line != lines[i] {
			t.Errorf("expected %q at %d, got %q", lines[i], i, r.Line)
		}
	}
}

func TestBatchProcessor_HandlerError(t *testing.T) {
	handler := func(_ context.Context, line string) ([]model.ParsedActivity, error) {
		if strings.Contains(line, "bad") {
			return nil, errors.New("record failed")
		}
		return []model.ParsedActivity{{Activity: "car", CO2: -1}}, nil
	}
	processor := NewBatchProcessor(handler, 2)

	results := processor.ProcessLines(context.Background(), []string{"good", "bad", "good"})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].GetError() == nil {
		t.Error("expected error for the bad line")
	}

	total, failed := Summarize(results)
	if failed != 1 || total != -2 {
		t.Errorf("expected total -2 with 1 failure, got %v with %d", total, failed)
	}
}

func TestBatchProcessor_ProcessLines_Empty(t *testing.T) {
	processor := NewBatchProcessor(InterpretHandler(interpret.NewDefault()), 2)

	results := processor.ProcessLines(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestReadLinesFromFile(t *testing.T) {
	path := writeLines(t, "drove 5 km\n# weekend\n\n   cycled 3 km   \ndrove 5 km\n")

	lines, err := ReadLinesFromFile(path)
	if err != nil {
		t.Fatalf("ReadLinesFromFile failed: %v", err)
	}

	expected := []string{"drove 5 km", "cycled 3 km", "drove 5 km"}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("expected %q at index %d, got %q", expected[i], i, line)
		}
	}
}

func TestReadLinesFromFile_NonExistent(t *testing.T) {
	if _, err := ReadLinesFromFile("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeLines(t, "drove 5 km by car\n# comment\ncycled 3 km\n")
	processor := NewBatchProcessor(InterpretHandler(interpret.NewDefault()), 2)

	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}

	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestLineResult_GetError(t *testing.T) {
	expected := errors.New("failed")
	r := &LineResult{Line: "x", Error: expected}
	if r.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r.GetError())
	}
}
