// Package buildlog persists a history of index-build runs and generation
// swaps to SQLite, adapted from the teacher's storage layer for the
// build-time audit trail this domain needs instead of note/vault state.
package buildlog

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Log wraps a SQLite connection recording one row per build attempt.
type Log struct {
	db *sql.DB
}

// Open opens (creating if absent) the build-log database at path and
// runs its migration, matching the teacher's New+Migrate split.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Log{db: db}, nil
}

func migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS builds (
			generation_id TEXT PRIMARY KEY,
			corpus_path TEXT NOT NULL,
			record_count INTEGER NOT NULL,
			rejected_count INTEGER NOT NULL,
			embedding_model TEXT NOT NULL,
			embedding_dim INTEGER NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			succeeded INTEGER NOT NULL,
			error_detail TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS build_row_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			generation_id TEXT NOT NULL,
			line INTEGER NOT NULL,
			fund_id TEXT,
			message TEXT NOT NULL,
			FOREIGN KEY (generation_id) REFERENCES builds(generation_id)
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run is the record of one completed build attempt.
type Run struct {
	GenerationID   string
	CorpusPath     string
	RecordCount    int
	RejectedCount  int
	EmbeddingModel string
	EmbeddingDim   int
	StartedAt      time.Time
	FinishedAt     time.Time
	Succeeded      bool
	ErrorDetail    string
	RowErrors      []RowError
}

// RowError mirrors engineerr.RowError for persistence without importing
// the engine error package into the storage layer.
type RowError struct {
	Line    int
	FundID  string
	Message string
}

// Record inserts one completed build run and its row errors, if any.
func (l *Log) Record(run Run) error {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO builds (generation_id, corpus_path, record_count, rejected_count,
			embedding_model, embedding_dim, started_at, finished_at, succeeded, error_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.GenerationID, run.CorpusPath, run.RecordCount, run.RejectedCount,
		run.EmbeddingModel, run.EmbeddingDim, run.StartedAt, run.FinishedAt, run.Succeeded, run.ErrorDetail,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, rowErr := range run.RowErrors {
		_, err = tx.Exec(
			`INSERT INTO build_row_errors (generation_id, line, fund_id, message) VALUES (?, ?, ?, ?)`,
			run.GenerationID, rowErr.Line, rowErr.FundID, rowErr.Message,
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// LatestSucceeded returns the generation_id of the most recent
// successful build, or "" if none exists.
func (l *Log) LatestSucceeded() (string, error) {
	var generationID string
	err := l.db.QueryRow(
		`SELECT generation_id FROM builds WHERE succeeded = 1 ORDER BY finished_at DESC LIMIT 1`,
	).Scan(&generationID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return generationID, nil
}

// Close releases the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}
