// Package sqlite keeps a queryable history of published risk assessments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/seismic-risk-service/internal/domain"
)

// Listing limits for Filter.Limit.
const (
	DefaultLimit = 20
	MaxLimit     = 500
)

// timestampLayout is fixed width so processed_at orders correctly as TEXT.
// time.RFC3339Nano trims trailing zeros and does not.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get when no assessment has the given ID.
var ErrNotFound = errors.New("assessment not found")

// Filter narrows List results. Nil fields are not applied.
type Filter struct {
	Limit    int
	Offset   int
	Tier     *domain.Tier
	MinScore *float64
	Since    *time.Time
}

// Store persists assessment events. It implements pipeline.BatchLoader.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// each connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			request_id TEXT,
			place TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			magnitude REAL,
			depth_km REAL,
			nearest_boundary TEXT NOT NULL,
			distance_km REAL NOT NULL,
			score REAL NOT NULL,
			tier TEXT NOT NULL,
			payload BLOB NOT NULL,
			processed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_assessments_processed_at ON assessments(processed_at);
		CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(tier);
	`
	_, err := s.db.Exec(schema)
	return err
}

// LoadBatch upserts the events in one transaction. Replays of the same
// assessment ID overwrite the earlier row.
func (s *Store) LoadBatch(ctx context.Context, events []domain.AssessmentEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO assessments (
			id, request_id, place, latitude, longitude, magnitude, depth_km,
			nearest_boundary, distance_km, score, tier, payload, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode assessment %s: %w", ev.ID, err)
		}
		a := ev.Assessment
		_, err = stmt.ExecContext(ctx,
			ev.ID, ev.RequestID, ev.Place,
			a.Location.Lat, a.Location.Lon, nullable(a.Magnitude), nullable(a.DepthKm),
			a.NearestBoundary, a.DistanceToBoundaryKm, a.Score, string(a.Tier),
			payload, formatTimestamp(ev.ProcessedAt),
		)
		if err != nil {
			return fmt.Errorf("insert assessment %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Get returns the assessment with the given ID.
func (s *Store) Get(ctx context.Context, id string) (domain.AssessmentEvent, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM assessments WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AssessmentEvent{}, ErrNotFound
	}
	if err != nil {
		return domain.AssessmentEvent{}, fmt.Errorf("get assessment %s: %w", id, err)
	}
	return decode(payload)
}

// List returns assessments newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]domain.AssessmentEvent, error) {
	var (
		where []string
		args  []any
	)
	if f.Tier != nil {
		where = append(where, "tier = ?")
		args = append(args, string(*f.Tier))
	}
	if f.MinScore != nil {
		where = append(where, "score >= ?")
		args = append(args, *f.MinScore)
	}
	if f.Since != nil {
		where = append(where, "processed_at >= ?")
		args = append(args, formatTimestamp(*f.Since))
	}

	query := "SELECT payload FROM assessments"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY processed_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, clampLimit(f.Limit), max(f.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	out := make([]domain.AssessmentEvent, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		ev, err := decode(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func decode(payload []byte) (domain.AssessmentEvent, error) {
	var ev domain.AssessmentEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.AssessmentEvent{}, fmt.Errorf("decode assessment: %w", err)
	}
	return ev, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}
