// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists completed research runs in SQLite and serves
// them back for listing, retrieval, and full-text search.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

const (
	dbFile      = "history.db"
	defaultKeep = 50
)

// ErrNotFound reports a lookup for an unknown result ID.
var ErrNotFound = errors.New("result not found")

// Store manages the research history SQLite database.
type Store struct {
	db   *sql.DB
	keep int
}

// NewStore opens or creates the history database at dir/history.db,
// creating the schema if it does not exist. keep bounds how many runs are
// retained; zero or less uses the default of 50.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("history directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	keep := cfg.Keep
	if keep <= 0 {
		keep = defaultKeep
	}

	s := &Store{db: db, keep: keep}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS results (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL,
			query TEXT NOT NULL,
			depth TEXT NOT NULL,
			title TEXT NOT NULL,
			report TEXT NOT NULL,
			sources TEXT,
			logs TEXT,
			total_tokens INTEGER NOT NULL DEFAULT 0,
			total_queries INTEGER NOT NULL DEFAULT 0,
			word_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='results_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE results_fts USING fts5(title, report, content=results, content_rowid=rowid)`,
			`CREATE TRIGGER results_ai AFTER INSERT ON results BEGIN
				INSERT INTO results_fts(rowid, title, report) VALUES (new.rowid, new.title, new.report);
			END`,
			`CREATE TRIGGER results_ad AFTER DELETE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, title, report) VALUES('delete', old.rowid, old.title, old.report);
			END`,
			`CREATE TRIGGER results_au AFTER UPDATE ON results BEGIN
				INSERT INTO results_fts(results_fts, rowid, title, report) VALUES('delete', old.rowid, old.title, old.report);
				INSERT INTO results_fts(rowid, title, report) VALUES (new.rowid, new.title, new.report);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save persists a completed run, then prunes the oldest rows beyond the
// retention limit in the same transaction. Saving an existing ID replaces
// the stored record.
func (s *Store) Save(ctx context.Context, result types.ResearchResult) error {
	sourcesJSON, err := json.Marshal(result.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}
	logsJSON, err := json.Marshal(result.Logs)
	if err != nil {
		return fmt.Errorf("encoding logs: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO results (id, created_at, query, depth, title, report, sources, logs, total_tokens, total_queries, word_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			created_at=excluded.created_at, query=excluded.query, depth=excluded.depth,
			title=excluded.title, report=excluded.report, sources=excluded.sources,
			logs=excluded.logs, total_tokens=excluded.total_tokens,
			total_queries=excluded.total_queries, word_count=excluded.word_count`,
		result.ID, result.CreatedAt.UTC().Format(time.RFC3339Nano), result.Query, string(result.Depth),
		result.Title, result.Report, string(sourcesJSON), string(logsJSON),
		result.TotalTokens, result.TotalQueries, result.WordCount,
	)
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM results WHERE rowid NOT IN (
			SELECT rowid FROM results ORDER BY created_at DESC, rowid DESC LIMIT ?)`,
		s.keep,
	)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}

	return tx.Commit()
}

// List returns summaries of stored runs, newest first. Report bodies,
// sources, and logs are omitted; use Get for the full record.
func (s *Store) List(ctx context.Context) ([]types.ResearchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, query, depth, title, total_tokens, total_queries, word_count
		 FROM results ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Get returns the full stored record for one run, including the report
// body, sources, and logs.
func (s *Store) Get(ctx context.Context, id string) (types.ResearchResult, error) {
	var (
		r           types.ResearchResult
		createdAt   string
		depth       string
		sourcesJSON sql.NullString
		logsJSON    sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, query, depth, title, report, sources, logs, total_tokens, total_queries, word_count
		 FROM results WHERE id = ?`, id,
	).Scan(&r.ID, &createdAt, &r.Query, &depth, &r.Title, &r.Report,
		&sourcesJSON, &logsJSON, &r.TotalTokens, &r.TotalQueries, &r.WordCount)

	if err == sql.ErrNoRows {
		return types.ResearchResult{}, fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("looking up result: %w", err)
	}

	r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	r.Depth = types.Depth(depth)
	if sourcesJSON.Valid {
		json.Unmarshal([]byte(sourcesJSON.String), &r.Sources)
	}
	if logsJSON.Valid {
		json.Unmarshal([]byte(logsJSON.String), &r.Logs)
	}
	return r, nil
}

// Delete removes one stored run.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting result: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("result %s: %w", id, ErrNotFound)
	}
	return nil
}

// Search runs an FTS5 query over stored titles and report bodies and
// returns matching summaries ranked by relevance.
func (s *Store) Search(ctx context.Context, query string) ([]types.ResearchResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.created_at, r.query, r.depth, r.title, r.total_tokens, r.total_queries, r.word_count
		 FROM results_fts
		 JOIN results r ON r.rowid = results_fts.rowid
		 WHERE results_fts MATCH ?
		 ORDER BY results_fts.rank`, query)
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]types.ResearchResult, error) {
	var results []types.ResearchResult
	for rows.Next() {
		var (
			r         types.ResearchResult
			createdAt string
			depth     string
		)
		if err := rows.Scan(&r.ID, &createdAt, &r.Query, &depth, &r.Title,
			&r.TotalTokens, &r.TotalQueries, &r.WordCount); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.Depth = types.Depth(depth)
		results = append(results, r)
	}
	return results, rows.Err()
}
