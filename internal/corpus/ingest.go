package corpus

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/index"
	"github.com/ppiankov/factlens/internal/logging"
	"golang.org/x/sync/errgroup"
)

// statementNamespace seeds document IDs so re-ingesting a statement
// overwrites the same document
var statementNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ppiankov/factlens/statement"))

// SchemaEnsurer is implemented by backends that create their own schema
type SchemaEnsurer interface {
	EnsureSchema(ctx context.Context) error
}

// Ingester embeds statements and writes them into an index
type Ingester struct {
	embedder    embed.Embedder
	writer      index.Writer
	batchSize   int
	concurrency int
	logger      *log.Logger
}

// NewIngester creates an ingester. batchSize and concurrency default to 64 and 4.
func NewIngester(e embed.Embedder, w index.Writer, batchSize, concurrency int, logger *log.Logger) *Ingester {
	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Ingester{
		embedder:    e,
		writer:      w,
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logging.OrDiscard(logger),
	}
}

// DocumentID is the stable ID of a statement text
func DocumentID(text string) string {
	return uuid.NewSHA1(statementNamespace, []byte(text)).String()
}

// Ingest embeds statements in concurrent batches and adds them to the
// index. It returns the number of documents written.
func (in *Ingester) Ingest(ctx context.Context, statements []Statement) (int, error) {
	statements = uniqueTexts(statements)
	if len(statements) == 0 {
		return 0, nil
	}

	if se, ok := in.writer.(SchemaEnsurer); ok {
		if err := se.EnsureSchema(ctx); err != nil {
			return 0, fmt.Errorf("ensure schema: %w", err)
		}
	}

	var written atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for start := 0; start < len(statements); start += in.batchSize {
		end := min(start+in.batchSize, len(statements))
		batch := statements[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, st := range batch {
				texts[i] = st.Text
			}
			vectors, err := in.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch at %d: %w", start, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("embed batch at %d: got %d vectors for %d texts", start, len(vectors), len(batch))
			}

			docs := make([]index.Document, len(batch))
			for i, st := range batch {
				docs[i] = index.Document{
					ID:        DocumentID(st.Text),
					Text:      st.Text,
					Source:    st.Source,
					Embedding: vectors[i],
				}
			}
			if err := in.writer.Add(ctx, docs); err != nil {
				return fmt.Errorf("write batch at %d: %w", start, err)
			}
			written.Add(int64(len(docs)))
			in.logger.Debug("ingested batch", "from", start, "docs", len(docs))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}
	in.logger.Info("ingest complete", "documents", written.Load(), "model", in.embedder.Model())
	return int(written.Load()), nil
}

// uniqueTexts keeps the first statement for each text, since IDs derive
// from the text alone
func uniqueTexts(statements []Statement) []Statement {
	seen := make(map[string]bool, len(statements))
	unique := make([]Statement, 0, len(statements))
	for _, st := range statements {
		if st.Text != "" && !seen[st.Text] {
			seen[st.Text] = true
			unique = append(unique, st)
		}
	}
	return unique
}
