// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest records conversion runs: a SQLite ledger of every run and
// its per-volume results, and a YAML manifest written beside each run's output.
package manifest

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

	"github.com/esukhia/derge-tei/pkg/types"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run ledger database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the ledger at path, creating its parent
// directory and schema as needed.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version_tag TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source_dir TEXT,
			output_dir TEXT,
			options TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS volumes (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			volume INTEGER NOT NULL,
			ignum INTEGER NOT NULL,
			status TEXT NOT NULL,
			source_path TEXT,
			output_path TEXT,
			title TEXT,
			lines INTEGER,
			pages INTEGER,
			milestones INTEGER,
			malformed_lines TEXT,
			error TEXT,
			PRIMARY KEY (run_id, volume)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_version_tag ON runs(version_tag)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores run and its volume results in one transaction and
// returns the assigned run id.
func (s *Store) RecordRun(ctx context.Context, run types.RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	optionsJSON, err := json.Marshal(run.Options)
	if err != nil {
		return 0, fmt.Errorf("encoding options: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (version_tag, started_at, finished_at, source_dir, output_dir, options)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.VersionTag,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.SourceDir, run.OutputDir, string(optionsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO volumes (run_id, volume, ignum, status, source_path, output_path, title,
			lines, pages, milestones, malformed_lines, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range run.Volumes {
		malformedJSON, _ := json.Marshal(v.MalformedLines)
		_, err := stmt.ExecContext(ctx,
			runID, v.Volume, v.Ignum, string(v.Status), v.SourcePath, v.OutputPath, v.Title,
			v.Lines, v.Pages, v.Milestones, string(malformedJSON), v.Error,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting volume %d: %w", v.Volume, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	ID         int64     `json:"id" yaml:"id"`
	VersionTag string    `json:"version_tag" yaml:"version_tag"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Converted  int       `json:"converted" yaml:"converted"`
	Skipped    int       `json:"skipped" yaml:"skipped"`
	Missing    int       `json:"missing" yaml:"missing"`
	Failed     int       `json:"failed" yaml:"failed"`
	Malformed  int       `json:"malformed_lines" yaml:"malformed_lines"`
}

// Runs lists the most recent runs first, at most limit rows (0 means all).
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `SELECT r.id, r.version_tag, r.started_at, r.finished_at,
			COALESCE(SUM(v.status = 'converted'), 0),
			COALESCE(SUM(v.status = 'skipped'), 0),
			COALESCE(SUM(v.status = 'missing'), 0),
			COALESCE(SUM(v.status = 'failed'), 0),
			COALESCE(SUM(CASE WHEN v.malformed_lines IS NULL OR v.malformed_lines = 'null'
				THEN 0 ELSE json_array_length(v.malformed_lines) END), 0)
		FROM runs r LEFT JOIN volumes v ON v.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, finished string
		if err := rows.Scan(&r.ID, &r.VersionTag, &started, &finished,
			&r.Converted, &r.Skipped, &r.Missing, &r.Failed, &r.Malformed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run loads a stored run with its volume results in volume order.
func (s *Store) Run(ctx context.Context, id int64) (types.RunRecord, error) {
	run := types.RunRecord{ID: id}
	var started, finished, optionsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT version_tag, started_at, finished_at, source_dir, output_dir, options
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.VersionTag, &started, &finished, &run.SourceDir, &run.OutputDir, &optionsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return run, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return run, fmt.Errorf("querying run %d: %w", id, err)
	}
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &run.Options); err != nil {
			return run, fmt.Errorf("decoding options: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT volume, ignum, status, source_path, output_path, title,
			lines, pages, milestones, malformed_lines, error
		 FROM volumes WHERE run_id = ? ORDER BY volume`, id)
	if err != nil {
		return run, fmt.Errorf("querying volumes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v types.VolumeResult
		var status, malformedJSON string
		if err := rows.Scan(&v.Volume, &v.Ignum, &status, &v.SourcePath, &v.OutputPath, &v.Title,
			&v.Lines, &v.Pages, &v.Milestones, &malformedJSON, &v.Error); err != nil {
			return run, fmt.Errorf("scanning volume: %w", err)
		}
		v.Status = types.ConversionStatus(status)
		if malformedJSON != "" {
			_ = json.Unmarshal([]byte(malformedJSON), &v.MalformedLines)
		}
		run.Volumes = append(run.Volumes, v)
	}
	return run, rows.Err()
}
