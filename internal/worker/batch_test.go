package worker

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

// mockVerifier implements Verifier
type mockVerifier struct {
	ShouldError bool
}

func (m *mockVerifier) Verify(ctx context.Context, text string, threshold float64) (*model.Report, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("verify error")
	}
	return &model.Report{Input: text, Threshold: threshold}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(t.TempDir(), "inputs")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpfile.Name()
}

func TestBatchProcessor_ProcessTexts(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2, nil)

	texts := []string{"The sky is blue.", "Water boils at 100C.", "Paris is in France."}
	results := processor.ProcessTexts(context.Background(), texts, 0.5)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	for i, res := range results {
		if res.Error != nil {
			t.Errorf("unexpected error for %q: %v", res.Input, res.Error)
			continue
		}
		if res.Report == nil || res.Report.Input != texts[i] {
			t.Errorf("result %d out of order: %+v", i, res.Report)
		}
		if res.Line != i+1 {
			t.Errorf("result %d line = %d", i, res.Line)
		}
	}
}

func TestBatchProcessor_ProcessTexts_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{ShouldError: true}, 2, nil)

	results := processor.ProcessTexts(context.Background(), []string{"x"}, 0.5)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Report != nil {
		t.Error("expected nil report on error")
	}
}

func TestBatchProcessor_ProcessTexts_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2, nil)

	results := processor.ProcessTexts(context.Background(), []string{}, 0.5)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestBatchProcessor_CancelledMarksTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&mockVerifier{}, 1, nil)
	results := processor.ProcessTexts(ctx, []string{"a", "b"}, 0.5)

	for _, res := range results {
		if !errors.Is(res.Error, model.ErrAdjudicationTimeout) {
			t.Errorf("%q: expected timeout, got %v", res.Input, res.Error)
		}
	}
}

func TestReadLines(t *testing.T) {
	path := writeTemp(t, "The Eiffel Tower is in Paris.\n# comment\nWater boils at 100C.\n   \nMount Everest is 8849 m tall.   ")

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}

	expected := []string{"The Eiffel Tower is in Paris.", "Water boils at 100C.", "Mount Everest is 8849 m tall."}
	if len(lines) != len(expected) {
		t.Fatalf("expected %d lines, got %d", len(expected), len(lines))
	}
	for i, line := range lines {
		if line != expected[i] {
			t.Errorf("expected %q at index %d, got %q", expected[i], i, line)
		}
	}
}

func TestReadLines_Deduplication(t *testing.T) {
	path := writeTemp(t, "same line\nsame line\n")

	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("ReadLines failed: %v", err)
	}
	if len(lines) != 1 {
		t.Errorf("expected 1 line after deduplication, got %d", len(lines))
	}
}

func TestReadLines_NonExistent(t *testing.T) {
	if _, err := ReadLines("non_existent_file.txt"); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}

func TestBatchResult_GetError(t *testing.T) {
	r1 := &BatchResult{Input: "x"}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("verify failed")
	r2 := &BatchResult{Input: "x", Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "one\ntwo\n# comment\n\nthree\n")

	processor := NewBatchProcessor(&mockVerifier{}, 2, nil)
	results, err := processor.ProcessFile(context.Background(), path, 0.5)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 2, nil)

	if _, err := processor.ProcessFile(context.Background(), "no_such_file.txt", 0.5); err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
