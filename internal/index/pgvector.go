package index

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/logging"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PgvectorIndex stores statements in a Postgres table with a vector column
type PgvectorIndex struct {
	db       *sql.DB
	table    string
	embedder embed.Embedder
	logger   *log.Logger
}

// OpenPgvector connects to dsn and checks the connection
func OpenPgvector(ctx context.Context, dsn, table string, e embed.Embedder, logger *log.Logger) (*PgvectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("index.dsn is required for the pgvector backend")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPgvectorIndex(db, table, e, logger)
}

// NewPgvectorIndex wraps an open database
func NewPgvectorIndex(db *sql.DB, table string, e embed.Embedder, logger *log.Logger) (*PgvectorIndex, error) {
	if table == "" {
		table = "statements"
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PgvectorIndex{db: db, table: table, embedder: e, logger: logging.OrDiscard(logger)}, nil
}

// EnsureSchema creates the extension and table if missing
func (p *PgvectorIndex) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create extension: %w", err)
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id        UUID PRIMARY KEY,
			text      TEXT NOT NULL,
			source    TEXT NOT NULL DEFAULT '',
			embedding VECTOR NOT NULL
		)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Query returns the k nearest rows by cosine distance (the <=> operator)
func (p *PgvectorIndex) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("pgvector index has no embedder")
	}
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, text, source, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance
		LIMIT $2
	`, p.table)

	rows, err := p.db.QueryContext(ctx, query, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", p.table, err)
	}
	defer func() { _ = rows.Close() }()

	var matches []Match
	for rows.Next() {
		var id, doc, source string
		var distance float64
		if err := rows.Scan(&id, &doc, &source, &distance); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		matches = append(matches, Match{
			Document: doc,
			Metadata: metadata(id, source),
			Distance: distance,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return matches, nil
}

// Add upserts documents in one transaction
func (p *PgvectorIndex) Add(ctx context.Context, docs []Document) error {
	if err := checkEmbedded(docs); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, text, source, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET text = EXCLUDED.text, source = EXCLUDED.source, embedding = EXCLUDED.embedding
	`, p.table))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, d.ID, d.Text, d.Source, pgvector.NewVector(d.Embedding)); err != nil {
			return fmt.Errorf("insert %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	p.logger.Debug("upserted documents", "table", p.table, "count", len(docs))
	return nil
}

// Close closes the database handle
func (p *PgvectorIndex) Close() error {
	return p.db.Close()
}
