// Package storage holds the two persistence backends: PostgresStore for
// the domain model (properties/events/saved_searches/alert_history) and
// SQLiteStore for process-local operational bookkeeping (ingestion runs,
// moving-average counters, circuit-breaker state, the dead-letter queue).
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"njforeclose/models"
)

// ErrNotFound is returned by lookup methods when no row matches.
var ErrNotFound = errors.New("not found")

// PostgresStore is the external database backing the Property Store and
// Event Log contracts (§4.3, §6).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and pings, configuring the pool the way the
// teacher's storage/postgres.go does.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the properties, events, timeline_entries, saved_searches
// and alert_history tables, using IF NOT EXISTS the way the teacher's sqlite migrate() does.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS properties (
	id UUID PRIMARY KEY,
	dedupe_key TEXT UNIQUE NOT NULL,
	full_address TEXT,
	street TEXT,
	city TEXT,
	county TEXT,
	state TEXT,
	zip TEXT,
	lat DOUBLE PRECISION,
	lng DOUBLE PRECISION,
	beds INTEGER,
	baths DOUBLE PRECISION,
	lot_sqft INTEGER,
	property_type TEXT,
	occupancy TEXT,
	heuristic_band TEXT,
	analyzed_band TEXT,
	risk_score INTEGER,
	risk_summary TEXT,
	risk_rationale TEXT,
	risk_analyzed_at TIMESTAMPTZ,
	ingestion_timestamp TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	enrichment_dirty BOOLEAN NOT NULL DEFAULT true,
	active_event_id UUID
);

CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	status_text TEXT,
	sale_date TIMESTAMPTZ,
	opening_bid DOUBLE PRECISION,
	judgment_amount DOUBLE PRECISION,
	estimated_value DOUBLE PRECISION,
	plaintiff TEXT,
	defendant TEXT,
	owner_phone TEXT,
	source_type TEXT,
	source_name TEXT,
	source_reliability DOUBLE PRECISION,
	last_ingested_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	closed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_events_property ON events(property_id);

CREATE TABLE IF NOT EXISTS timeline_entries (
	id UUID PRIMARY KEY,
	property_id UUID NOT NULL REFERENCES properties(id),
	kind TEXT NOT NULL,
	date TIMESTAMPTZ NOT NULL,
	source_label TEXT,
	description TEXT,
	payload JSONB
);
CREATE INDEX IF NOT EXISTS idx_timeline_property_date ON timeline_entries(property_id, date DESC);

CREATE TABLE IF NOT EXISTS saved_searches (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	filter JSONB NOT NULL,
	alerts_enabled BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_history (
	user_id UUID NOT NULL,
	property_id UUID NOT NULL,
	sent_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, property_id, sent_at)
);
`)
	return err
}

// FindByDedupeKey looks up a property by its deterministic dedupe key.
// Returns ErrNotFound if absent, matching the teacher's pgx.ErrNoRows
// to-nil-not-error pattern generalized to a package sentinel.
func (s *PostgresStore) FindByDedupeKey(ctx context.Context, key string) (*models.Property, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, dedupe_key, full_address, street, city, county, state, zip, lat, lng,
       beds, baths, lot_sqft, property_type, occupancy, heuristic_band, analyzed_band,
       ingestion_timestamp, last_updated, enrichment_dirty
FROM properties WHERE dedupe_key = $1`, key)

	var p models.Property
	var analyzedBand *string
	err := row.Scan(&p.ID, &p.DedupeKey, &p.Address.Full, &p.Address.Street, &p.Address.City,
		&p.Address.County, &p.Address.State, &p.Address.Zip, &p.Address.Lat, &p.Address.Lng,
		&p.Beds, &p.Baths, &p.LotSqFt, &p.PropertyType, &p.Occupancy,
		&p.HeuristicBand, &analyzedBand, &p.IngestionTimestamp, &p.LastUpdated, &p.EnrichmentDirty)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by dedupe key: %w", err)
	}
	if analyzedBand != nil {
		b := models.RiskBand(*analyzedBand)
		p.AnalyzedBand = &b
	}
	return &p, nil
}

// InsertProperty inserts a newly-observed property.
func (s *PostgresStore) InsertProperty(ctx context.Context, p *models.Property) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO properties (id, dedupe_key, full_address, street, city, county, state, zip, lat, lng,
	beds, baths, lot_sqft, property_type, occupancy, heuristic_band,
	ingestion_timestamp, last_updated, enrichment_dirty)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		p.ID, p.DedupeKey, p.Address.Full, p.Address.Street, p.Address.City, p.Address.County,
		p.Address.State, p.Address.Zip, p.Address.Lat, p.Address.Lng,
		p.Beds, p.Baths, p.LotSqFt, p.PropertyType, p.Occupancy, p.HeuristicBand,
		p.IngestionTimestamp, p.LastUpdated, p.EnrichmentDirty)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

// UpdateProperty applies a reliability-gated merge result, preserving
// ingestion_timestamp and bumping last_updated, following the teacher's
// ON CONFLICT ... COALESCE merge idiom adapted to an explicit UPDATE since
// the row is already known to exist.
func (s *PostgresStore) UpdateProperty(ctx context.Context, p *models.Property) error {
	var analyzedBand *string
	if p.AnalyzedBand != nil {
		s := string(*p.AnalyzedBand)
		analyzedBand = &s
	}
	_, err := s.pool.Exec(ctx, `
UPDATE properties SET
	full_address = $2, street = $3, city = $4, county = $5, state = $6, zip = $7,
	lat = $8, lng = $9, beds = $10, baths = $11, lot_sqft = $12, property_type = $13,
	occupancy = $14, heuristic_band = $15, analyzed_band = $16,
	last_updated = $17, enrichment_dirty = $18
WHERE id = $1`,
		p.ID, p.Address.Full, p.Address.Street, p.Address.City, p.Address.County, p.Address.State,
		p.Address.Zip, p.Address.Lat, p.Address.Lng, p.Beds, p.Baths, p.LotSqFt, p.PropertyType,
		p.Occupancy, p.HeuristicBand, analyzedBand, p.LastUpdated, p.EnrichmentDirty)
	if err != nil {
		return fmt.Errorf("update property: %w", err)
	}
	return nil
}

// LockPropertyTx takes a row-level lock on the property, providing the
// per-key mutual-exclusion required by §5's serialization invariant. Call
// within a transaction obtained from BeginTx.
func (s *PostgresStore) LockPropertyTx(ctx context.Context, tx pgx.Tx, dedupeKey string) (*models.Property, error) {
	row := tx.QueryRow(ctx, `SELECT id FROM properties WHERE dedupe_key = $1 FOR UPDATE`, dedupeKey)
	var id uuid.UUID
	err := row.Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock property: %w", err)
	}
	return &models.Property{ID: id}, nil
}

// BeginTx starts a transaction in which LockPropertyTx can hold the
// per-property row lock. PropertyService.Upsert does not call it; it
// serializes upserts with an in-process lock per dedupe key instead.
func (s *PostgresStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

// ActiveEvent returns the single active ForeclosureEvent for a property,
// or ErrNotFound if none is open.
func (s *PostgresStore) ActiveEvent(ctx context.Context, propertyID uuid.UUID) (*models.ForeclosureEvent, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, property_id, stage, status, status_text, sale_date, opening_bid, judgment_amount,
       estimated_value, plaintiff, defendant, owner_phone, source_type, source_name,
       source_reliability, last_ingested_at, created_at, closed_at
FROM events WHERE property_id = $1 AND status = 'active'`, propertyID)

	var e models.ForeclosureEvent
	var estValue *float64
	err := row.Scan(&e.ID, &e.PropertyID, &e.Stage, &e.Status, &e.StatusText, &e.SaleDate,
		&e.OpeningBid, &e.JudgmentAmount, &estValue, &e.Plaintiff, &e.Defendant, &e.OwnerPhone,
		&e.Source.Type, &e.Source.Name, &e.Source.Reliability, &e.LastIngestedAt, &e.CreatedAt, &e.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("active event: %w", err)
	}
	e.Valuation = models.ComputeValuation(estValue, e.OpeningBid)
	return &e, nil
}

// InsertEvent opens a new ForeclosureEvent.
func (s *PostgresStore) InsertEvent(ctx context.Context, e *models.ForeclosureEvent) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO events (id, property_id, stage, status, status_text, sale_date, opening_bid,
	judgment_amount, estimated_value, plaintiff, defendant, owner_phone, source_type, source_name,
	source_reliability, last_ingested_at, created_at, closed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		e.ID, e.PropertyID, e.Stage, e.Status, e.StatusText, e.SaleDate, e.OpeningBid,
		e.JudgmentAmount, e.Valuation.EstimatedValue, e.Plaintiff, e.Defendant, e.OwnerPhone,
		e.Source.Type, e.Source.Name, e.Source.Reliability, e.LastIngestedAt, e.CreatedAt, e.ClosedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// CloseEvent marks an event closed (or pending-verification) and stamps
// closed_at.
func (s *PostgresStore) CloseEvent(ctx context.Context, eventID uuid.UUID, status models.EventStatus, closedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE events SET status = $2, closed_at = $3 WHERE id = $1`,
		eventID, status, closedAt)
	if err != nil {
		return fmt.Errorf("close event: %w", err)
	}
	return nil
}

// UpdateEventFields applies an in-place merge to the active event's
// mutable fields (used by the reliability-gated merge, which updates the
// same event rather than opening a new one on every observation).
func (s *PostgresStore) UpdateEventFields(ctx context.Context, e *models.ForeclosureEvent) error {
	_, err := s.pool.Exec(ctx, `
UPDATE events SET status_text = $2, sale_date = $3, opening_bid = $4, estimated_value = $5,
	judgment_amount = $6, plaintiff = $7, defendant = $8, owner_phone = $9,
	last_ingested_at = $10
WHERE id = $1`,
		e.ID, e.StatusText, e.SaleDate, e.OpeningBid, e.Valuation.EstimatedValue,
		e.JudgmentAmount, e.Plaintiff, e.Defendant, e.OwnerPhone, e.LastIngestedAt)
	if err != nil {
		return fmt.Errorf("update event fields: %w", err)
	}
	return nil
}

// AppendTimelineEntry appends an immutable audit event. Callers are
// responsible for the idempotence check (property_id, kind, date) before
// calling, per spec 4.3 step 6.
func (s *PostgresStore) AppendTimelineEntry(ctx context.Context, t *models.TimelineEntry) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO timeline_entries (id, property_id, kind, date, source_label, description, payload)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		t.ID, t.PropertyID, t.Kind, t.Date, t.SourceLabel, t.Description, t.Payload)
	if err != nil {
		return fmt.Errorf("append timeline entry: %w", err)
	}
	return nil
}

// TimelineEntryExists implements the idempotence guard: redundant
// (property_id, kind, date) triples are suppressed.
func (s *PostgresStore) TimelineEntryExists(ctx context.Context, propertyID uuid.UUID, kind models.TimelineKind, date time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS(SELECT 1 FROM timeline_entries WHERE property_id = $1 AND kind = $2 AND date = $3)`,
		propertyID, kind, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check timeline idempotence: %w", err)
	}
	return exists, nil
}

// Timeline returns a property's timeline, descending by date (§6
// GET /properties/{id}/history contract).
func (s *PostgresStore) Timeline(ctx context.Context, propertyID uuid.UUID) ([]models.TimelineEntry, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, property_id, kind, date, source_label, description, payload
FROM timeline_entries WHERE property_id = $1 ORDER BY date DESC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var out []models.TimelineEntry
	for rows.Next() {
		var t models.TimelineEntry
		if err := rows.Scan(&t.ID, &t.PropertyID, &t.Kind, &t.Date, &t.SourceLabel, &t.Description, &t.Payload); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RecentlyChangedProperties returns properties whose last_updated is at or
// after since, or that were created within the last 24 hours —
// the Alert Engine's candidate set (§4.7).
func (s *PostgresStore) RecentlyChangedProperties(ctx context.Context, since time.Time) ([]models.Property, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, dedupe_key, full_address, street, city, county, state, zip, lat, lng,
       beds, baths, lot_sqft, property_type, occupancy, heuristic_band, analyzed_band,
       ingestion_timestamp, last_updated, enrichment_dirty
FROM properties
WHERE last_updated >= $1 OR ingestion_timestamp >= $2`, since, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("query recently changed: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		var p models.Property
		var analyzedBand *string
		if err := rows.Scan(&p.ID, &p.DedupeKey, &p.Address.Full, &p.Address.Street, &p.Address.City,
			&p.Address.County, &p.Address.State, &p.Address.Zip, &p.Address.Lat, &p.Address.Lng,
			&p.Beds, &p.Baths, &p.LotSqFt, &p.PropertyType, &p.Occupancy,
			&p.HeuristicBand, &analyzedBand, &p.IngestionTimestamp, &p.LastUpdated, &p.EnrichmentDirty); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		if analyzedBand != nil {
			b := models.RiskBand(*analyzedBand)
			p.AnalyzedBand = &b
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// EnrichmentDirtyProperties returns properties flagged dirty by the
// upsert algorithm, for the Enrichment Client's batch loop.
func (s *PostgresStore) EnrichmentDirtyProperties(ctx context.Context, limit int) ([]models.Property, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, dedupe_key, full_address, street, city, county, state, zip, lat, lng,
       beds, baths, lot_sqft, property_type, occupancy, heuristic_band, analyzed_band,
       ingestion_timestamp, last_updated, enrichment_dirty
FROM properties WHERE enrichment_dirty = true LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dirty properties: %w", err)
	}
	defer rows.Close()

	var out []models.Property
	for rows.Next() {
		var p models.Property
		var analyzedBand *string
		if err := rows.Scan(&p.ID, &p.DedupeKey, &p.Address.Full, &p.Address.Street, &p.Address.City,
			&p.Address.County, &p.Address.State, &p.Address.Zip, &p.Address.Lat, &p.Address.Lng,
			&p.Beds, &p.Baths, &p.LotSqFt, &p.PropertyType, &p.Occupancy,
			&p.HeuristicBand, &analyzedBand, &p.IngestionTimestamp, &p.LastUpdated, &p.EnrichmentDirty); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		if analyzedBand != nil {
			b := models.RiskBand(*analyzedBand)
			p.AnalyzedBand = &b
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetAnalyzedRisk persists the Enrichment Client's output and clears the
// dirty flag.
func (s *PostgresStore) SetAnalyzedRisk(ctx context.Context, propertyID uuid.UUID, r *models.RiskAnalysis) error {
	_, err := s.pool.Exec(ctx, `
UPDATE properties SET analyzed_band = $2, risk_score = $3, risk_summary = $4,
	risk_rationale = $5, risk_analyzed_at = $6, enrichment_dirty = false
WHERE id = $1`, propertyID, r.Band, r.Score, r.Summary, r.Rationale, r.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("set analyzed risk: %w", err)
	}
	return nil
}

// PendingVerificationCandidates returns active SHERIFF_SALE/AUCTION events
// whose sale_date has passed and that weren't re-seen today, per §4.6.
func (s *PostgresStore) PendingVerificationCandidates(ctx context.Context, today time.Time) ([]models.ForeclosureEvent, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, property_id, stage, status, status_text, sale_date, opening_bid, judgment_amount,
       estimated_value, plaintiff, defendant, owner_phone, source_type, source_name,
       source_reliability, last_ingested_at, created_at, closed_at
FROM events
WHERE status = 'active' AND stage IN ('SHERIFF_SALE','AUCTION')
  AND sale_date IS NOT NULL AND sale_date <= $1 AND last_ingested_at < $2`,
		today, startOfDay(today))
	if err != nil {
		return nil, fmt.Errorf("query pending verification candidates: %w", err)
	}
	defer rows.Close()

	var out []models.ForeclosureEvent
	for rows.Next() {
		var e models.ForeclosureEvent
		var estValue *float64
		if err := rows.Scan(&e.ID, &e.PropertyID, &e.Stage, &e.Status, &e.StatusText, &e.SaleDate,
			&e.OpeningBid, &e.JudgmentAmount, &estValue, &e.Plaintiff, &e.Defendant, &e.OwnerPhone,
			&e.Source.Type, &e.Source.Name, &e.Source.Reliability, &e.LastIngestedAt, &e.CreatedAt, &e.ClosedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Valuation = models.ComputeValuation(estValue, e.OpeningBid)
		out = append(out, e)
	}
	return out, rows.Err()
}

// MatchCandidate is a slim projection used by the near-duplicate matcher,
// grounded on the teacher's propertyMatchCandidate.
type MatchCandidate struct {
	ID     uuid.UUID
	Street string
	City   string
	Zip    string
	State  string
}

// CandidatesByCityOrZip returns other properties sharing a city or zip with
// excludeID, for the near-duplicate matcher's read-only suggestion query.
// Never consulted by the upsert algorithm itself.
func (s *PostgresStore) CandidatesByCityOrZip(ctx context.Context, excludeID uuid.UUID, city, zip string) ([]MatchCandidate, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, street, city, zip, state FROM properties
WHERE id != $1 AND (city = $2 OR zip = $3)`, excludeID, city, zip)
	if err != nil {
		return nil, fmt.Errorf("query match candidates: %w", err)
	}
	defer rows.Close()

	var out []MatchCandidate
	for rows.Next() {
		var c MatchCandidate
		if err := rows.Scan(&c.ID, &c.Street, &c.City, &c.Zip, &c.State); err != nil {
			return nil, fmt.Errorf("scan match candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SavedSearches returns all searches with alerts_enabled = true.
func (s *PostgresStore) SavedSearches(ctx context.Context) ([]models.SavedSearch, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, user_id, filter, alerts_enabled, created_at FROM saved_searches WHERE alerts_enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("query saved searches: %w", err)
	}
	defer rows.Close()

	var out []models.SavedSearch
	for rows.Next() {
		var id, userID uuid.UUID
		var filterJSON []byte
		var alertsEnabled bool
		var createdAt time.Time
		if err := rows.Scan(&id, &userID, &filterJSON, &alertsEnabled, &createdAt); err != nil {
			return nil, fmt.Errorf("scan saved search: %w", err)
		}
		var search models.SavedSearch
		if err := json.Unmarshal(filterJSON, &search); err != nil {
			return nil, fmt.Errorf("unmarshal saved search filter: %w", err)
		}
		search.ID = id
		search.UserID = userID
		search.AlertsEnabled = alertsEnabled
		search.CreatedAt = createdAt
		out = append(out, search)
	}
	return out, rows.Err()
}

// InsertSavedSearch persists a new Buy Box.
func (s *PostgresStore) InsertSavedSearch(ctx context.Context, search *models.SavedSearch) error {
	filterJSON, err := json.Marshal(search)
	if err != nil {
		return fmt.Errorf("marshal saved search: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO saved_searches (id, user_id, filter, alerts_enabled, created_at)
VALUES ($1,$2,$3,$4,$5)`, search.ID, search.UserID, filterJSON, search.AlertsEnabled, search.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert saved search: %w", err)
	}
	return nil
}

// LastAlertSentAt returns the most recent alert timestamp for
// (userID, propertyID), or the zero time if none exists — used by the
// Alert Engine's 7-day noise-reduction window.
func (s *PostgresStore) LastAlertSentAt(ctx context.Context, userID, propertyID uuid.UUID) (time.Time, error) {
	var sentAt time.Time
	err := s.pool.QueryRow(ctx, `
SELECT sent_at FROM alert_history WHERE user_id = $1 AND property_id = $2 ORDER BY sent_at DESC LIMIT 1`,
		userID, propertyID).Scan(&sentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last alert sent at: %w", err)
	}
	return sentAt, nil
}

// RecordAlertSent appends an AlertHistory row.
func (s *PostgresStore) RecordAlertSent(ctx context.Context, a *models.AlertHistory) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO alert_history (user_id, property_id, sent_at) VALUES ($1,$2,$3)`,
		a.UserID, a.PropertyID, a.SentAt)
	if err != nil {
		return fmt.Errorf("record alert sent: %w", err)
	}
	return nil
}
