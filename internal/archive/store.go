// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive is the SQLite ledger of rendered figures and the daily
// observations behind them. It records what was drawn; recipes never read
// from it.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/icevarfigs/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "icevarfigs.db"

	dateLayout = "2006-01-02"
)

// Store manages the archive database.
type Store struct {
	db         *sql.DB
	archiveDir string
	maxResults int
}

// NewStore opens or creates the ledger at archiveDir/index/icevarfigs.db
// and creates the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.ArchiveDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 50
	}

	s := &Store{db: db, archiveDir: cfg.ArchiveDir, maxResults: maxResults}
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
			id TEXT PRIMARY KEY,
			recipe TEXT NOT NULL,
			output TEXT NOT NULL,
			data_date TEXT,
			rendered_at TEXT NOT NULL,
			datasets TEXT,
			notes TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_recipe ON runs(recipe)`,
		`CREATE TABLE IF NOT EXISTS run_metrics (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS observations (
			series TEXT NOT NULL,
			date TEXT NOT NULL,
			value REAL NOT NULL,
			UNIQUE (series, date)
		)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun stores a rendered figure and its headline metrics, returning
// the new run id. NaN and infinite metrics are not stored.
func (s *Store) RecordRun(ctx context.Context, fig types.FigureRecord) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	datasetsJSON, _ := json.Marshal(fig.Datasets)
	notesJSON, _ := json.Marshal(fig.Notes)
	dataDate := ""
	if !fig.DataDate.IsZero() {
		dataDate = fig.DataDate.Format(dateLayout)
	}
	renderedAt := fig.RenderedAt
	if renderedAt.IsZero() {
		renderedAt = time.Now()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, recipe, output, data_date, rendered_at, datasets, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, fig.Recipe, fig.Output, dataDate, renderedAt.UTC().Format(time.RFC3339Nano),
		string(datasetsJSON), string(notesJSON),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_metrics (run_id, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()
	for name, v := range fig.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if _, err := stmt.ExecContext(ctx, id, name, v); err != nil {
			return "", fmt.Errorf("inserting metric %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Runs returns recorded runs newest first. An empty recipe matches all;
// a non-positive limit uses the store default.
func (s *Store) Runs(ctx context.Context, recipe string, limit int) ([]types.FigureRecord, error) {
	if limit <= 0 {
		limit = s.maxResults
	}
	query := `SELECT id, recipe, output, data_date, rendered_at, datasets, notes FROM runs`
	var args []any
	if recipe != "" {
		query += ` WHERE recipe = ?`
		args = append(args, recipe)
	}
	query += ` ORDER BY rendered_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.FigureRecord
	for rows.Next() {
		var (
			fig                   types.FigureRecord
			dataDate, renderedAt  string
			datasetsJSON, notesJS sql.NullString
		)
		if err := rows.Scan(&fig.RunID, &fig.Recipe, &fig.Output, &dataDate, &renderedAt, &datasetsJSON, &notesJS); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if dataDate != "" {
			fig.DataDate, _ = time.Parse(dateLayout, dataDate)
		}
		fig.RenderedAt, _ = time.Parse(time.RFC3339Nano, renderedAt)
		if datasetsJSON.Valid {
			json.Unmarshal([]byte(datasetsJSON.String), &fig.Datasets)
		}
		if notesJS.Valid {
			json.Unmarshal([]byte(notesJS.String), &fig.Notes)
		}
		runs = append(runs, fig)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		m, err := s.runMetrics(ctx, runs[i].RunID)
		if err != nil {
			return nil, err
		}
		runs[i].Metrics = m
	}
	return runs, nil
}

func (s *Store) runMetrics(ctx context.Context, runID string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM run_metrics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	var out map[string]float64
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		if out == nil {
			out = map[string]float64{}
		}
		out[name] = v
	}
	return out, rows.Err()
}

// Series lists the series names that have observations.
func (s *Store) Series(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT series FROM observations`)
	if err != nil {
		return nil, fmt.Errorf("querying series: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning series: %w", err)
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, rows.Err()
}
