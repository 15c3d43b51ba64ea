// Package reconciliation runs the daily job that transitions past-sale-date
// events to pending verification. It is grounded on the teacher's
// workers.HealthcheckWorker loop/query/event shape, but deliberately does
// not carry over its live HTTP re-check: no adapter in this pack exposes a
// reliable single-listing lookup, and guessing at delisting from an
// unrelated page fetch would be worse than doing nothing (see DESIGN.md's
// "do not guess" decision).
package reconciliation

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"njforeclose/models"
	"njforeclose/storage"
)

// Job runs the reconciliation pass described in spec 4.6.
type Job struct {
	store *storage.PostgresStore
}

func NewJob(store *storage.PostgresStore) *Job {
	return &Job{store: store}
}

// Run finds every active SHERIFF_SALE/AUCTION event whose sale date has
// passed without being re-observed today, transitions it to pending
// verification, and appends a LISTING_REMOVED timeline entry.
func (j *Job) Run(ctx context.Context, now time.Time) (int, error) {
	candidates, err := j.store.PendingVerificationCandidates(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	log.Printf("reconciliation: %d events past sale date without re-observation", len(candidates))

	transitioned := 0
	for i := range candidates {
		event := &candidates[i]

		if err := j.store.CloseEvent(ctx, event.ID, models.EventStatusPendingVerification, now); err != nil {
			log.Printf("reconciliation: close event %s: %v", event.ID, err)
			continue
		}

		entry := &models.TimelineEntry{
			ID:          uuid.New(),
			PropertyID:  event.PropertyID,
			Kind:        models.TimelineListingRemoved,
			Date:        now,
			SourceLabel: "reconciliation",
			Description: "no source re-observed this listing after its scheduled sale date",
		}
		if err := j.store.AppendTimelineEntry(ctx, entry); err != nil {
			log.Printf("reconciliation: append timeline for %s: %v", event.PropertyID, err)
			continue
		}

		transitioned++
	}

	log.Printf("reconciliation: transitioned %d events to pending verification", transitioned)
	return transitioned, nil
}
