package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteSink stores entries in a SQLite table. Safe for concurrent use.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLiteSink, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteSink{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS feedback (
		id TEXT PRIMARY KEY,
		datetime TEXT NOT NULL,
		claim TEXT NOT NULL,
		verdict TEXT NOT NULL,
		confidence REAL NOT NULL,
		evidence TEXT,
		reasoning TEXT,
		feedback TEXT NOT NULL,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_verdict ON feedback(verdict);
	`)
	return err
}

// Record implements Sink
func (s *SQLiteSink) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := row(e)
	confidence, _ := strconv.ParseFloat(r[3], 64)
	var errText sql.NullString
	if !e.Result.OK() && e.Result.Failure != nil {
		errText = sql.NullString{String: e.Result.Failure.Message, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (id, datetime, claim, verdict, confidence, evidence, reasoning, feedback, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), r[0], r[1], r[2], confidence, r[4], r[5], r[6], errText)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// Rows returns every stored row in Header order, oldest first
func (s *SQLiteSink) Rows(ctx context.Context) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT datetime, claim, verdict, confidence, evidence, reasoning, feedback
		FROM feedback ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var dt, claim, verdict, evidence, reasoning, vote string
		var confidence float64
		if err := rows.Scan(&dt, &claim, &verdict, &confidence, &evidence, &reasoning, &vote); err != nil {
			return nil, err
		}
		out = append(out, []string{dt, claim, verdict, strconv.FormatFloat(confidence, 'f', -1, 64), evidence, reasoning, vote})
	}
	return out, rows.Err()
}

// Close implements Sink
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
