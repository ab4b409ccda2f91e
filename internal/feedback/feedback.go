// Package feedback records user votes on verification results.
package feedback

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

// TimeLayout is the datetime format of recorded rows
const TimeLayout = "2006-01-02 15:04:05"

// Header is the column order of a feedback row
var Header = []string{"datetime", "claim", "verdict", "confidence", "evidence", "reasoning", "feedback"}

// Entry is one vote on one result
type Entry struct {
	Time     time.Time
	Claim    string
	Result   model.VerificationResult
	Feedback string
}

// Sink stores feedback entries
type Sink interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Open creates the sink selected by feedback.sink
func Open(cfg model.FeedbackConfig) (Sink, error) {
	switch strings.ToLower(cfg.Sink) {
	case "csv", "":
		return NewCSVSink(cfg.Path), nil
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: unknown feedback sink %q (supported: csv, sqlite)", model.ErrConfiguration, cfg.Sink)
	}
}

// ParseVote normalises a yes/no vote
func ParseVote(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "up", "👍", "👍 yes":
		return "yes", nil
	case "no", "n", "down", "👎", "👎 no":
		return "no", nil
	default:
		return "", fmt.Errorf("invalid vote %q (expected yes or no)", raw)
	}
}

// row renders an entry in Header order
func row(e Entry) []string {
	return []string{
		e.Time.Format(TimeLayout),
		e.Claim,
		string(e.Result.Verdict()),
		strconv.FormatFloat(e.Result.Confidence, 'f', -1, 64),
		strings.Join(e.Result.Evidence(), "|"),
		e.Result.Reasoning(),
		e.Feedback,
	}
}
