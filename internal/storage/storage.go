// Package storage keeps the history of parcel analyses in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/LeonardoBeccarini/farmai/internal/model/wire"
)

var ErrNotFound = errors.New("analysis not found")

// Summary is the searchable part of a stored analysis.
type Summary = wire.AnalysisSummary

// Record is a Summary plus the full API response.
type Record struct {
	Summary
	Response wire.AnalyzeResponse `json:"response"`
}

type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database file, creating parent directories as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, path: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		lat REAL NOT NULL,
		lng REAL NOT NULL,
		area_acres REAL NOT NULL,
		soil_name TEXT,
		top_crop TEXT,
		top_score INTEGER,
		response_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Save inserts or replaces the record.
func (s *Store) Save(ctx context.Context, r Record) error {
	body, err := json.Marshal(r.Response)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO analyses (id, created_at, lat, lng, area_acres, soil_name, top_crop, top_score, response_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		created_at = excluded.created_at,
		lat = excluded.lat,
		lng = excluded.lng,
		area_acres = excluded.area_acres,
		soil_name = excluded.soil_name,
		top_crop = excluded.top_crop,
		top_score = excluded.top_score,
		response_json = excluded.response_json`,
		r.ID, r.CreatedAt.UTC(), r.Lat, r.Lng, r.AreaAcres, r.SoilName, r.TopCrop, r.TopScore, string(body))
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", r.ID, err)
	}
	return nil
}

// Get returns ErrNotFound for unknown ids.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	var (
		r    Record
		body string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, created_at, lat, lng, area_acres, soil_name, top_crop, top_score, response_json
	FROM analyses WHERE id = ?`, id).Scan(
		&r.ID, &r.CreatedAt, &r.Lat, &r.Lng, &r.AreaAcres, &r.SoilName, &r.TopCrop, &r.TopScore, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to load analysis %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(body), &r.Response); err != nil {
		return Record{}, fmt.Errorf("failed to decode analysis %s: %w", id, err)
	}
	return r, nil
}

// List returns the newest analyses first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, created_at, lat, lng, area_acres, soil_name, top_crop, top_score
	FROM analyses ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.CreatedAt, &sm.Lat, &sm.Lng, &sm.AreaAcres, &sm.SoilName, &sm.TopCrop, &sm.TopScore); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
