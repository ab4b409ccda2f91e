package feedback

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// CSVSink appends entries to a CSV file, writing the header when the file
// is created
type CSVSink struct {
	path string
	mu   sync.Mutex
}

// NewCSVSink creates a sink writing to path
func NewCSVSink(path string) *CSVSink {
	if path == "" {
		path = "feedback_log.csv"
	}
	return &CSVSink{path: path}
}

// Record implements Sink
func (s *CSVSink) Record(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	isNew := errors.Is(err, fs.ErrNotExist)

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(row(e)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// Close implements Sink
func (s *CSVSink) Close() error {
	return nil
}
