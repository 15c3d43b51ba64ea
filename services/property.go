// Package services implements the Property Store upsert algorithm and the
// near-duplicate matcher, grounded on the teacher's ListingService and
// MatchService.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"njforeclose/models"
	"njforeclose/normalize"
	"njforeclose/storage"
)

// keyedMutex hands out one *sync.Mutex per dedupe key, giving Upsert the
// per-key mutual exclusion spec 5 requires between concurrent adapters
// touching the same property without serializing unrelated keys behind a
// single process-wide lock.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ProcessResult mirrors the teacher's services.ProcessResult shape,
// reporting what the upsert did for one raw listing.
type ProcessResult struct {
	PropertyID    uuid.UUID
	IsNewProperty bool
	PriceChanged  bool
	StageChanged  bool
	DateChanged   bool
	EventsCreated int
}

// ProcessStats aggregates ProcessResults across a run, the direct analog
// of the teacher's ProcessStats/Aggregate/ToJSON.
type ProcessStats struct {
	RawCount        int
	NormalizedCount int
	CreatedCount    int
	UpdatedCount    int
	SkippedCount    int
	FailedCount     int
}

func (s *ProcessStats) Aggregate(r *ProcessResult) {
	s.NormalizedCount++
	if r.IsNewProperty {
		s.CreatedCount++
	} else {
		s.UpdatedCount++
	}
}

func (s *ProcessStats) ToJSON() json.RawMessage {
	data, _ := json.Marshal(s)
	return data
}

// PropertyService implements spec 4.3's find-or-create-then-reliability-
// gated-merge upsert algorithm.
type PropertyService struct {
	store *storage.PostgresStore
	locks *keyedMutex
}

func NewPropertyService(store *storage.PostgresStore) *PropertyService {
	return &PropertyService{store: store, locks: newKeyedMutex()}
}

// Upsert runs the full spec 4.3 algorithm for one raw listing that has
// already passed normalization. Two upserts for the same dedupe
// key are totally ordered by locks; upserts for different keys proceed
// concurrently, per spec 5's per-property serialization requirement.
func (s *PropertyService) Upsert(ctx context.Context, norm normalize.Result, source models.Source) (*ProcessResult, error) {
	unlock := s.locks.Lock(norm.DedupeKey)
	defer unlock()

	existing, err := s.store.FindByDedupeKey(ctx, norm.DedupeKey)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("find by dedupe key: %w", err)
	}

	now := time.Now().UTC()
	source.ObservedAt = now

	if existing == nil {
		return s.insertNew(ctx, norm, source, now)
	}
	return s.mergeExisting(ctx, existing, norm, source, now)
}

func (s *PropertyService) insertNew(ctx context.Context, norm normalize.Result, source models.Source, now time.Time) (*ProcessResult, error) {
	property := &models.Property{
		ID:                 uuid.New(),
		DedupeKey:          norm.DedupeKey,
		Address:            norm.Address,
		HeuristicBand:      norm.HeuristicBand,
		IngestionTimestamp: now,
		LastUpdated:        now,
		EnrichmentDirty:    true,
	}
	if err := s.store.InsertProperty(ctx, property); err != nil {
		return nil, err
	}

	event := &models.ForeclosureEvent{
		ID:             uuid.New(),
		PropertyID:     property.ID,
		Stage:          norm.Stage,
		Status:         models.EventStatusActive,
		StatusText:     norm.StatusText,
		SaleDate:       norm.SaleDate,
		OpeningBid:     norm.OpeningBid,
		JudgmentAmount: norm.Judgment,
		Valuation:      norm.Valuation,
		Plaintiff:      norm.Plaintiff,
		Defendant:      norm.Defendant,
		Source:         source,
		LastIngestedAt: now,
		CreatedAt:      now,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return nil, err
	}

	kind := timelineKindForNewEvent(norm.Stage)
	if err := s.appendTimelineOnce(ctx, property.ID, kind, now, source.Name, "initial observation", nil); err != nil {
		return nil, err
	}

	return &ProcessResult{PropertyID: property.ID, IsNewProperty: true, EventsCreated: 1}, nil
}

func timelineKindForNewEvent(stage models.Stage) models.TimelineKind {
	switch stage {
	case models.StageAuction:
		return models.TimelineAuctionListed
	case models.StagePreForeclosure:
		return models.TimelineLisPendensFiled
	default:
		return models.TimelineSheriffSaleScheduled
	}
}

// mergeExisting applies the reliability-gated merge (step 4), computes
// change detection against the pre-write record (step 5), appends
// timeline entries (step 6), flags enrichment-dirty (step 7), and writes
// the property (step 8).
func (s *PropertyService) mergeExisting(ctx context.Context, existing *models.Property, norm normalize.Result, source models.Source, now time.Time) (*ProcessResult, error) {
	active, err := s.store.ActiveEvent(ctx, existing.ID)
	if err != nil && err != storage.ErrNotFound {
		return nil, fmt.Errorf("active event: %w", err)
	}

	result := &ProcessResult{PropertyID: existing.ID}

	if active == nil {
		// No active event to merge against (e.g. it was closed by
		// reconciliation); open a fresh one under this observation.
		return s.insertNewEventOnExisting(ctx, existing, norm, source, now)
	}

	incomingReliability := source.Reliability
	existingReliability := active.Source.Reliability
	accept := incomingReliability >= existingReliability

	priorBid := active.OpeningBid
	priorSaleDate := active.SaleDate
	priorStage := active.Stage

	if accept {
		active.OpeningBid = norm.OpeningBid
		active.JudgmentAmount = norm.Judgment
		active.Valuation = norm.Valuation
		active.SaleDate = norm.SaleDate
		active.StatusText = norm.StatusText
		active.Plaintiff = norm.Plaintiff
		active.Defendant = norm.Defendant
		active.Stage = norm.Stage
	}
	active.LastIngestedAt = now
	active.Source = source

	if err := s.store.UpdateEventFields(ctx, active); err != nil {
		return nil, err
	}

	priceChanged := priorBid != nil && active.OpeningBid != nil && percentChange(*priorBid, *active.OpeningBid) > 5
	stageProgressed := norm.Stage.Rank() > priorStage.Rank()
	dateChanged := priorSaleDate != nil && active.SaleDate != nil && !priorSaleDate.Equal(*active.SaleDate)

	result.PriceChanged = priceChanged
	result.StageChanged = stageProgressed
	result.DateChanged = dateChanged

	if priceChanged {
		payload, _ := json.Marshal(map[string]any{"before": *priorBid, "after": *active.OpeningBid})
		if created, err := s.appendTimelineIfNew(ctx, existing.ID, models.TimelinePriceChange, now, source.Name, "opening bid changed", payload); err != nil {
			return nil, err
		} else if created {
			result.EventsCreated++
		}
	}
	if dateChanged {
		payload, _ := json.Marshal(map[string]any{"original_date": priorSaleDate.Format("2006-01-02"), "new_date": active.SaleDate.Format("2006-01-02")})
		if created, err := s.appendTimelineIfNew(ctx, existing.ID, models.TimelineSheriffSaleAdjourned, *active.SaleDate, source.Name, "sale date changed", payload); err != nil {
			return nil, err
		} else if created {
			result.EventsCreated++
		}
	}
	if stageProgressed {
		kind := models.TimelineFinalJudgment
		if norm.Stage == models.StageREO {
			kind = models.TimelineSoldToPlaintiff
		}
		if created, err := s.appendTimelineIfNew(ctx, existing.ID, kind, now, source.Name, "stage progressed", nil); err != nil {
			return nil, err
		} else if created {
			result.EventsCreated++
		}
	}

	existing.EnrichmentDirty = existing.EnrichmentDirty || priceChanged || stageProgressed || dateChanged
	existing.LastUpdated = now
	existing.HeuristicBand = models.HeuristicRiskBand(active.Valuation.EquityPct)
	if err := s.store.UpdateProperty(ctx, existing); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PropertyService) insertNewEventOnExisting(ctx context.Context, existing *models.Property, norm normalize.Result, source models.Source, now time.Time) (*ProcessResult, error) {
	event := &models.ForeclosureEvent{
		ID:             uuid.New(),
		PropertyID:     existing.ID,
		Stage:          norm.Stage,
		Status:         models.EventStatusActive,
		StatusText:     norm.StatusText,
		SaleDate:       norm.SaleDate,
		OpeningBid:     norm.OpeningBid,
		JudgmentAmount: norm.Judgment,
		Valuation:      norm.Valuation,
		Plaintiff:      norm.Plaintiff,
		Defendant:      norm.Defendant,
		Source:         source,
		LastIngestedAt: now,
		CreatedAt:      now,
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		return nil, err
	}
	kind := timelineKindForNewEvent(norm.Stage)
	if err := s.appendTimelineOnce(ctx, existing.ID, kind, now, source.Name, "re-opened after prior closure", nil); err != nil {
		return nil, err
	}

	existing.EnrichmentDirty = true
	existing.LastUpdated = now
	existing.HeuristicBand = models.HeuristicRiskBand(norm.Valuation.EquityPct)
	if err := s.store.UpdateProperty(ctx, existing); err != nil {
		return nil, err
	}

	return &ProcessResult{PropertyID: existing.ID, EventsCreated: 1}, nil
}

// appendTimelineIfNew implements the idempotence guard from spec 4.3 step
// 6: entries are keyed by (property_id, kind, date); redundant duplicates
// are suppressed. Returns whether a new entry was actually written.
func (s *PropertyService) appendTimelineIfNew(ctx context.Context, propertyID uuid.UUID, kind models.TimelineKind, date time.Time, sourceLabel, description string, payload json.RawMessage) (bool, error) {
	exists, err := s.store.TimelineEntryExists(ctx, propertyID, kind, date)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return true, s.appendTimelineOnce(ctx, propertyID, kind, date, sourceLabel, description, payload)
}

func (s *PropertyService) appendTimelineOnce(ctx context.Context, propertyID uuid.UUID, kind models.TimelineKind, date time.Time, sourceLabel, description string, payload json.RawMessage) error {
	entry := &models.TimelineEntry{
		ID:          uuid.New(),
		PropertyID:  propertyID,
		Kind:        kind,
		Date:        date,
		SourceLabel: sourceLabel,
		Description: description,
		Payload:     payload,
	}
	return s.store.AppendTimelineEntry(ctx, entry)
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return math.Abs(after-before) / math.Abs(before) * 100
}
