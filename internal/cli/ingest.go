package cli

import (
	"fmt"

	"github.com/ppiankov/factlens/internal/corpus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	ingestCSV   string
	ingestFeeds []string
	saveCSV     string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Add reference statements to the evidence index",
	Long: `Ingest embeds trusted reference statements and writes them into the
configured index. Statements come from a CSV file with title and source
columns, or from the item titles of RSS/Atom feeds.

Re-ingesting a statement overwrites the stored copy.

Example:
  factlens ingest --csv press_releases.csv
  factlens ingest --feed https://example.org/rss.xml --save-csv titles.csv
  factlens ingest --csv titles.csv --backend pgvector`,
	Args: cobra.NoArgs,
	PreRunE: bindFlags(map[string]string{
		"index.backend": "backend",
	}),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestCSV, "csv", "", "CSV file of statements (title,source)")
	ingestCmd.Flags().StringSliceVar(&ingestFeeds, "feed", nil, "RSS/Atom feed URL (repeatable)")
	ingestCmd.Flags().StringVar(&saveCSV, "save-csv", "", "also write the collected statements to this CSV file")
	ingestCmd.Flags().String("backend", "memory", "index backend (memory, pgvector, weaviate)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if (ingestCSV == "") == (len(ingestFeeds) == 0) {
		return fmt.Errorf("give exactly one of --csv or --feed")
	}

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := commandContext(cmd)

	var statements []corpus.Statement
	if ingestCSV != "" {
		statements, err = corpus.LoadCSV(ingestCSV)
		if err != nil {
			return fmt.Errorf("load csv: %w", err)
		}
	} else {
		fetcher := corpus.NewFetcher(cfg.HTTP, logger)
		statements, err = corpus.NewFeedSource(fetcher, ingestFeeds, logger).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("read feeds: %w", err)
		}
	}
	logger.Info("collected statements", "count", len(statements))

	if saveCSV != "" {
		if err := corpus.SaveCSV(saveCSV, statements); err != nil {
			return fmt.Errorf("save csv: %w", err)
		}
	}

	embedder, store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	n, err := corpus.NewIngester(embedder, store, cfg.Embed.BatchSize, cfg.Verify.Workers, logger).Ingest(ctx, statements)
	if closeErr := store.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close index: %w", closeErr)
	}
	if err != nil {
		return fmt.Errorf("ingest failed after %d documents: %w", n, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Ingested %d statements into %s index\n", n, cfg.Index.Backend)
	return nil
}
