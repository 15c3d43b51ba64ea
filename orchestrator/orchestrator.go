// Package orchestrator drives the per-adapter fan-out ingestion run
// described in spec 4.5, grounded on the teacher's scraper.Orchestrator
// dispatch loop and services.ProcessStats aggregation, generalized from a
// single fixed SQLite/Postgres pairing to the adapter registry's
// (state, source-type) fan-out.
package orchestrator

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"njforeclose/adapter"
	"njforeclose/config"
	"njforeclose/errs"
	"njforeclose/httputil"
	"njforeclose/models"
	"njforeclose/normalize"
	"njforeclose/services"
	"njforeclose/storage"
)

// Orchestrator runs ingestion passes. The spec 4.5 guard thresholds come
// from cfg.YieldThresholdPct and cfg.CircuitBreakerPct.
type Orchestrator struct {
	cfg       *config.Config
	registry  *adapter.Registry
	pg        *storage.PostgresStore
	sqlite    *storage.SQLiteStore
	propertySvc *services.PropertyService
}

func New(cfg *config.Config, registry *adapter.Registry, pg *storage.PostgresStore, sqlite *storage.SQLiteStore, propertySvc *services.PropertyService) *Orchestrator {
	return &Orchestrator{cfg: cfg, registry: registry, pg: pg, sqlite: sqlite, propertySvc: propertySvc}
}

// Run executes one ingestion pass across every adapter that supports the
// given state, in parallel, and returns the aggregated result.
func (o *Orchestrator) Run(ctx context.Context, state string) *models.IngestionResult {
	startedAt := time.Now().UTC()
	handlers := o.registry.ForState(state)

	runID, err := o.sqlite.CreateRun(startedAt)
	if err != nil {
		log.Printf("orchestrator: create run: %v", err)
	}

	summaries := make([]models.AdapterIngestionSummary, len(handlers))
	var wg sync.WaitGroup
	for i, h := range handlers {
		wg.Add(1)
		go func(i int, h adapter.Handler) {
			defer wg.Done()
			summaries[i] = o.runAdapter(ctx, h, state)
		}(i, h)
	}
	wg.Wait()

	finishedAt := time.Now().UTC()
	status := models.RunStatusCompleted
	for _, s := range summaries {
		if s.Error != "" {
			status = models.RunStatusFailed
			break
		}
	}
	if runID != 0 {
		if err := o.sqlite.FinishRun(runID, finishedAt, status, summaries); err != nil {
			log.Printf("orchestrator: finish run: %v", err)
		}
	}

	return &models.IngestionResult{StartedAt: startedAt, FinishedAt: finishedAt, Summaries: summaries}
}

// runAdapter implements steps 3-4 of spec 4.5 for one adapter: retry-once
// search, yield-threshold guard, schema-drift circuit breaker, per-row
// normalize+upsert with failure isolation, and per-adapter deadline.
func (o *Orchestrator) runAdapter(ctx context.Context, h adapter.Handler, state string) models.AdapterIngestionSummary {
	summary := models.AdapterIngestionSummary{AdapterID: h.ID()}

	adapterCtx, cancel := context.WithTimeout(ctx, httputil.AdapterDeadline)
	defer cancel()

	raw, err := searchWithRetry(adapterCtx, h, adapter.SearchParams{State: state})
	if err != nil {
		if adapterCtx.Err() != nil {
			summary.Error = string(errs.KindTimeout)
		} else {
			summary.Error = err.Error()
		}
		return summary
	}
	summary.RawCount = len(raw)

	stats, err := o.sqlite.GetAdapterStats(h.ID())
	if err != nil {
		log.Printf("orchestrator: get adapter stats for %s: %v", h.ID(), err)
		stats = &models.AdapterStats{AdapterID: h.ID(), BreakerState: models.BreakerClosed}
	}

	if avg := stats.MovingAverage(); avg > 0 && float64(len(raw)) < avg*o.cfg.YieldThresholdPct {
		summary.Error = string(errs.KindVolumeAnomaly)
		log.Printf("orchestrator: adapter %s yielded %d rows, below %.0f%% of the %.1f-row moving average; rejecting batch",
			h.ID(), len(raw), o.cfg.YieldThresholdPct*100, avg)
		return summary
	}

	if tripped, fraction := schemaDrifted(raw, o.cfg.CircuitBreakerPct); tripped {
		summary.Error = string(errs.KindSchemaDrift)
		stats.BreakerState = models.BreakerOpen
		now := time.Now().UTC()
		stats.BreakerTrippedAt = &now
		if err := o.sqlite.SaveAdapterStats(stats); err != nil {
			log.Printf("orchestrator: save adapter stats for %s: %v", h.ID(), err)
		}
		log.Printf("orchestrator: adapter %s tripped schema-drift breaker (%.0f%% of rows missing address/date/status)", h.ID(), fraction*100)
		return summary
	}

	stats.BreakerState = models.BreakerClosed
	stats.BreakerTrippedAt = nil
	stats.RecordCount(len(raw))
	if err := o.sqlite.SaveAdapterStats(stats); err != nil {
		log.Printf("orchestrator: save adapter stats for %s: %v", h.ID(), err)
	}

	reliability := adapterReliability(o.cfg, h.ID())

	for _, listing := range raw {
		select {
		case <-adapterCtx.Done():
			summary.Error = string(errs.KindTimeout)
			return summary
		default:
		}

		norm, skip := normalize.NormalizeRawListing(&listing, state)
		if skip {
			summary.ItemsSkippedNormalization++
			continue
		}
		summary.NormalizedCount++

		listingSource := models.Source{
			Type:        listing.SourceType,
			Name:        h.ID(),
			Reliability: reliability,
			DetailURL:   listing.DetailURL,
		}

		result, err := o.propertySvc.Upsert(adapterCtx, norm, listingSource)
		if err != nil {
			summary.ItemsFailedProcessing++
			o.parkDeadLetter(h.ID(), &listing, err)
			continue
		}
		if result.IsNewProperty {
			summary.CreatedCount++
		} else {
			summary.UpdatedCount++
		}
	}

	return summary
}

func (o *Orchestrator) parkDeadLetter(adapterID string, listing *models.RawListing, cause error) {
	payload, _ := json.Marshal(listing)
	row := &models.DeadLetterRow{
		AdapterID:  adapterID,
		RawPayload: payload,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := o.sqlite.AppendDeadLetter(row); err != nil {
		log.Printf("orchestrator: append dead letter for %s: %v", adapterID, err)
	}
}

// searchWithRetry calls Search with one automatic retry on failure, per
// spec 4.5 step 3.
func searchWithRetry(ctx context.Context, h adapter.Handler, params adapter.SearchParams) ([]models.RawListing, error) {
	raw, err := h.Search(ctx, params)
	if err == nil {
		return raw, nil
	}
	return h.Search(ctx, params)
}

// schemaDrifted reports whether more than thresholdPct of rows are missing
// either address or (sale-date-or-status), per spec 4.5's circuit breaker.
func schemaDrifted(raw []models.RawListing, thresholdPct float64) (bool, float64) {
	if len(raw) == 0 {
		return false, 0
	}
	missing := 0
	for _, r := range raw {
		missingAddress := r.Address == ""
		missingDateOrStatus := r.SaleDateText == "" && r.StatusText == ""
		if missingAddress || missingDateOrStatus {
			missing++
		}
	}
	fraction := float64(missing) / float64(len(raw))
	return fraction > thresholdPct, fraction
}

func adapterReliability(cfg *config.Config, adapterID string) float64 {
	if ac, ok := cfg.Adapters[adapterID]; ok {
		return ac.Reliability
	}
	return 0.5
}
