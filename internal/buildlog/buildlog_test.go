package buildlog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenCreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "buildlog.db")

	log, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = log.Close() }()
}

func TestRecordAndLatestSucceeded(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "buildlog.db")

	log, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = log.Close() }()

	started := time.Now().Add(-time.Minute)
	finished := time.Now()

	if err := log.Record(Run{
		GenerationID:   "gen-1",
		CorpusPath:     "funds.csv",
		RecordCount:    100,
		RejectedCount:  2,
		EmbeddingModel: "test-model",
		EmbeddingDim:   8,
		StartedAt:      started,
		FinishedAt:     finished,
		Succeeded:      true,
		RowErrors: []RowError{
			{Line: 5, FundID: "", Message: "missing fund_id"},
		},
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	latest, err := log.LatestSucceeded()
	if err != nil {
		t.Fatalf("LatestSucceeded() error = %v", err)
	}
	if latest != "gen-1" {
		t.Fatalf("expected gen-1, got %q", latest)
	}
}

func TestLatestSucceededWithNoBuildsReturnsEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "buildlog.db")

	log, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = log.Close() }()

	latest, err := log.LatestSucceeded()
	if err != nil {
		t.Fatalf("LatestSucceeded() error = %v", err)
	}
	if latest != "" {
		t.Fatalf("expected empty string with no builds, got %q", latest)
	}
}

func TestLatestSucceededIgnoresFailedBuilds(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "buildlog.db")

	log, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = log.Close() }()

	if err := log.Record(Run{
		GenerationID: "gen-failed",
		StartedAt:    time.Now(),
		FinishedAt:   time.Now(),
		Succeeded:    false,
		ErrorDetail:  "embedding dimension mismatch",
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	latest, err := log.LatestSucceeded()
	if err != nil {
		t.Fatalf("LatestSucceeded() error = %v", err)
	}
	if latest != "" {
		t.Fatalf("expected no succeeded generation, got %q", latest)
	}
}
