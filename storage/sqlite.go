package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"njforeclose/models"
)

// SQLiteStore is the process-local operational store: ingestion-run
// bookkeeping, per-adapter moving-average counters, circuit-breaker
// state, and the dead-letter queue. Kept separate from the Postgres
// domain store, mirroring the teacher's own SQLite/Postgres split.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dbPath in WAL mode and runs the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS ingestion_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	status TEXT NOT NULL,
	summary_json TEXT
);

CREATE TABLE IF NOT EXISTS adapter_stats (
	adapter_id TEXT PRIMARY KEY,
	daily_counts_json TEXT NOT NULL DEFAULT '[]',
	breaker_state TEXT NOT NULL DEFAULT 'closed',
	breaker_tripped_at DATETIME
);

CREATE TABLE IF NOT EXISTS dead_letter_rows (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	adapter_id TEXT NOT NULL,
	raw_payload TEXT NOT NULL,
	reason TEXT NOT NULL,
	occurred_at DATETIME NOT NULL
);
`)
	return err
}

// CreateRun inserts a new ingestion_runs row and returns its id.
func (s *SQLiteStore) CreateRun(startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO ingestion_runs (started_at, status) VALUES (?, ?)`,
		startedAt, models.RunStatusRunning)
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun stamps finished_at/status/summary on a run.
func (s *SQLiteStore) FinishRun(runID int64, finishedAt time.Time, status models.RunStatus, summaries []models.AdapterIngestionSummary) error {
	data, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal summaries: %w", err)
	}
	_, err = s.db.Exec(`UPDATE ingestion_runs SET finished_at = ?, status = ?, summary_json = ? WHERE id = ?`,
		finishedAt, status, string(data), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetAdapterStats returns the persisted moving-average/breaker state for
// an adapter, or a fresh zero-value if none exists yet.
func (s *SQLiteStore) GetAdapterStats(adapterID string) (*models.AdapterStats, error) {
	row := s.db.QueryRow(`SELECT daily_counts_json, breaker_state, breaker_tripped_at FROM adapter_stats WHERE adapter_id = ?`, adapterID)

	var countsJSON string
	var breakerState string
	var trippedAt sql.NullTime
	err := row.Scan(&countsJSON, &breakerState, &trippedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.AdapterStats{AdapterID: adapterID, BreakerState: models.BreakerClosed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get adapter stats: %w", err)
	}

	var counts []int
	if err := json.Unmarshal([]byte(countsJSON), &counts); err != nil {
		return nil, fmt.Errorf("unmarshal daily counts: %w", err)
	}
	stats := &models.AdapterStats{
		AdapterID:    adapterID,
		DailyCounts:  counts,
		BreakerState: models.BreakerState(breakerState),
	}
	if trippedAt.Valid {
		stats.BreakerTrippedAt = &trippedAt.Time
	}
	return stats, nil
}

// SaveAdapterStats upserts the moving-average/breaker state.
func (s *SQLiteStore) SaveAdapterStats(stats *models.AdapterStats) error {
	countsJSON, err := json.Marshal(stats.DailyCounts)
	if err != nil {
		return fmt.Errorf("marshal daily counts: %w", err)
	}
	_, err = s.db.Exec(`
INSERT INTO adapter_stats (adapter_id, daily_counts_json, breaker_state, breaker_tripped_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(adapter_id) DO UPDATE SET
	daily_counts_json = excluded.daily_counts_json,
	breaker_state = excluded.breaker_state,
	breaker_tripped_at = excluded.breaker_tripped_at`,
		stats.AdapterID, string(countsJSON), stats.BreakerState, stats.BreakerTrippedAt)
	if err != nil {
		return fmt.Errorf("save adapter stats: %w", err)
	}
	return nil
}

// AppendDeadLetter parks a failed row for later human review.
func (s *SQLiteStore) AppendDeadLetter(row *models.DeadLetterRow) error {
	_, err := s.db.Exec(`INSERT INTO dead_letter_rows (adapter_id, raw_payload, reason, occurred_at) VALUES (?, ?, ?, ?)`,
		row.AdapterID, string(row.RawPayload), row.Reason, row.OccurredAt)
	if err != nil {
		return fmt.Errorf("append dead letter: %w", err)
	}
	return nil
}

// DeadLetterRows returns parked rows for one adapter, most recent first.
func (s *SQLiteStore) DeadLetterRows(adapterID string, limit int) ([]models.DeadLetterRow, error) {
	rows, err := s.db.Query(`
SELECT id, adapter_id, raw_payload, reason, occurred_at FROM dead_letter_rows
WHERE adapter_id = ? ORDER BY occurred_at DESC LIMIT ?`, adapterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query dead letter rows: %w", err)
	}
	defer rows.Close()

	var out []models.DeadLetterRow
	for rows.Next() {
		var d models.DeadLetterRow
		var payload string
		if err := rows.Scan(&d.ID, &d.AdapterID, &payload, &d.Reason, &d.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan dead letter row: %w", err)
		}
		d.RawPayload = json.RawMessage(payload)
		out = append(out, d)
	}
	return out, rows.Err()
}

// isUniqueConstraintErr reports whether err is a SQLite UNIQUE violation.
// No code in this repository calls it.
func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
