package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/model"
)

// Verifier checks one input text
type Verifier interface {
	Verify(ctx context.Context, text string, threshold float64) (*model.Report, error)
}

// TextJob verifies a single input text
type TextJob struct {
	Line      int
	Text      string
	Threshold float64
	Verifier  Verifier
}

// Execute executes the verification job
func (j *TextJob) Execute(ctx context.Context) Result {
	start := time.Now()
	report, err := j.Verifier.Verify(ctx, j.Text, j.Threshold)
	return &BatchResult{
		Line:     j.Line,
		Input:    j.Text,
		Report:   report,
		Error:    err,
		Duration: time.Since(start),
	}
}

// BatchResult represents the result of verifying one input
type BatchResult struct {
	Line     int
	Input    string
	Report   *model.Report
	Error    error
	Duration time.Duration
}

// GetError returns the error from the batch result
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies many inputs concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	logger      *log.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int, logger *log.Logger) *BatchProcessor {
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		logger:      logging.OrDiscard(logger),
	}
}

// ProcessTexts verifies texts and returns results in input order
func (b *BatchProcessor) ProcessTexts(ctx context.Context, texts []string, threshold float64) []*BatchResult {
	if len(texts) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, text := range texts {
		pool.Submit(&TextJob{
			Line:      i + 1,
			Text:      text,
			Threshold: threshold,
			Verifier:  b.verifier,
		})
	}

	results := pool.Wait()

	out := make([]*BatchResult, len(results))
	for i, result := range results {
		if result == nil {
			out[i] = &BatchResult{Line: i + 1, Input: texts[i], Error: fmt.Errorf("%w: not started", model.ErrAdjudicationTimeout)}
		} else {
			out[i] = result.(*BatchResult)
		}
		if out[i].Error != nil {
			b.logger.Warn("batch item failed", "line", out[i].Line, "err", out[i].Error)
		}
	}

	return out
}

// ProcessFile reads inputs from a file and verifies them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, threshold float64) ([]*BatchResult, error) {
	texts, err := ReadLines(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessTexts(ctx, texts, threshold), nil
}

// ReadLines reads one input per line, skipping blanks, comments and duplicates
func ReadLines(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return lines, nil
}
