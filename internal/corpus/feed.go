package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/logging"
)

// FeedSource turns RSS or Atom item titles into statements, with the item
// link as source
type FeedSource struct {
	fetcher *Fetcher
	urls    []string
	logger  *log.Logger
}

// NewFeedSource creates a source over the given feed URLs
func NewFeedSource(fetcher *Fetcher, urls []string, logger *log.Logger) *FeedSource {
	return &FeedSource{fetcher: fetcher, urls: urls, logger: logging.OrDiscard(logger)}
}

// Fetch reads every feed. A failing feed is logged and skipped; an error is
// returned only when no feed could be read.
func (s *FeedSource) Fetch(ctx context.Context) ([]Statement, error) {
	var statements []Statement
	var errs []error
	parser := gofeed.NewParser()

	for _, u := range s.urls {
		result, err := s.fetcher.FetchWithRetry(ctx, u)
		if err != nil {
			s.logger.Warn("feed fetch failed", "url", u, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
			continue
		}

		feed, err := parser.Parse(bytes.NewReader(result.Body))
		if err != nil {
			s.logger.Warn("feed parse failed", "url", u, "err", err)
			errs = append(errs, fmt.Errorf("%s: parse feed: %w", u, err))
			continue
		}

		before := len(statements)
		for _, item := range feed.Items {
			title := cleanTitle(item.Title)
			link := strings.TrimSpace(item.Link)
			if title == "" || link == "" {
				continue
			}
			statements = append(statements, Statement{Text: title, Source: link})
		}
		s.logger.Info("feed read", "url", u, "items", len(statements)-before)
	}

	if len(errs) == len(s.urls) && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return Dedupe(statements), nil
}

func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	if strings.ContainsAny(title, "<&") {
		if text, err := extract.VisibleText(title); err == nil {
			title = text
		}
	}
	return strings.Join(strings.Fields(title), " ")
}
