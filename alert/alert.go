// Package alert implements the batched matching engine that scans
// recently-changed properties against saved searches and groups qualifying
// matches into per-user digests, per spec 4.7. Email/SMS delivery is out of
// scope (see spec); this package hands finished Digest values to whatever
// out-of-process consumer owns the mailbox, the same boundary the teacher
// draws around its logFunc callback in workers/healthcheck.go.
package alert

import (
	"context"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"njforeclose/models"
	"njforeclose/storage"
)

const (
	earthRadiusMiles = 3958.8
	cooldownWindow   = 7 * 24 * time.Hour
	digestCap        = 50
)

// Digest is a grouped, ready-to-send notification for one user.
type Digest struct {
	UserID       uuid.UUID
	Properties   []uuid.UUID
	TotalMatched int
	Truncated    bool
}

// Engine runs the batched alert pass.
type Engine struct {
	store *storage.PostgresStore
}

func NewEngine(store *storage.PostgresStore) *Engine {
	return &Engine{store: store}
}

// Run scans every property changed since lastRunAt against every
// alerts-enabled saved search and returns one Digest per user with at
// least one qualifying match.
func (e *Engine) Run(ctx context.Context, lastRunAt, now time.Time) ([]Digest, error) {
	candidates, err := e.store.RecentlyChangedProperties(ctx, lastRunAt)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	searches, err := e.store.SavedSearches(ctx)
	if err != nil {
		return nil, err
	}
	if len(searches) == 0 {
		return nil, nil
	}

	perUser := make(map[uuid.UUID][]uuid.UUID)

	for i := range candidates {
		p := &candidates[i]

		event, err := e.store.ActiveEvent(ctx, p.ID)
		if err != nil && err != storage.ErrNotFound {
			log.Printf("alert: active event for %s: %v", p.ID, err)
			continue
		}
		timeline, err := e.store.Timeline(ctx, p.ID)
		if err != nil {
			log.Printf("alert: timeline for %s: %v", p.ID, err)
			continue
		}
		sig := significance(p, event, timeline, lastRunAt)

		for _, search := range searches {
			if !search.AlertsEnabled {
				continue
			}
			if !matchesFilter(p, event, &search) {
				continue
			}
			if !sig.qualifies(&search) {
				continue
			}

			lastSent, err := e.store.LastAlertSentAt(ctx, search.UserID, p.ID)
			if err != nil {
				log.Printf("alert: last sent lookup: %v", err)
				continue
			}
			if !lastSent.IsZero() && now.Sub(lastSent) < cooldownWindow {
				continue
			}

			perUser[search.UserID] = append(perUser[search.UserID], p.ID)
		}
	}

	var digests []Digest
	for userID, propertyIDs := range perUser {
		unique := dedupe(propertyIDs)
		digest := Digest{UserID: userID, TotalMatched: len(unique)}
		if len(unique) > digestCap {
			digest.Properties = unique[:digestCap]
			digest.Truncated = true
		} else {
			digest.Properties = unique
		}

		for _, propertyID := range digest.Properties {
			if err := e.store.RecordAlertSent(ctx, &models.AlertHistory{
				UserID:     userID,
				PropertyID: propertyID,
				SentAt:     now,
			}); err != nil {
				log.Printf("alert: record sent %s/%s: %v", userID, propertyID, err)
			}
		}

		digests = append(digests, digest)
	}

	return digests, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// significanceFlags captures why a candidate changed, derived from its
// timeline entries dated within the current run window rather than from
// any separately-tracked "previous value" — the timeline is the audit
// trail, so it is also the significance source of truth.
type significanceFlags struct {
	newlyCreated    bool
	priceChanged    bool
	equityCrossed   bool
	stageProgressed bool
	saleDateChanged bool
}

func (f significanceFlags) qualifies(search *models.SavedSearch) bool {
	if f.newlyCreated {
		return true
	}
	if f.priceChanged {
		return true
	}
	if f.equityCrossed {
		return true
	}
	if f.stageProgressed {
		return true
	}
	if f.saleDateChanged && searchWantsUpcomingAuction(search) {
		return true
	}
	return false
}

func searchWantsUpcomingAuction(search *models.SavedSearch) bool {
	for _, s := range search.Stages {
		if s == models.StageSheriffSale || s == models.StageAuction {
			return true
		}
	}
	return false
}

func significance(p *models.Property, event *models.ForeclosureEvent, timeline []models.TimelineEntry, since time.Time) significanceFlags {
	var f significanceFlags

	if p.IngestionTimestamp.After(since) {
		f.newlyCreated = true
	}

	for _, entry := range timeline {
		if entry.Date.Before(since) {
			continue
		}
		switch entry.Kind {
		case models.TimelinePriceChange:
			// PropertyService only writes this entry once opening bid moves
			// more than 5%, so its mere presence already satisfies the
			// price-drop gate; it may also have moved equity_pct across a
			// search's threshold, so both flags are set together.
			f.priceChanged = true
			f.equityCrossed = true
		case models.TimelineFinalJudgment, models.TimelineSoldToPlaintiff, models.TimelineSoldToThirdParty, models.TimelineAuctionListed:
			f.stageProgressed = true
		case models.TimelineSheriffSaleAdjourned:
			f.saleDateChanged = true
		}
	}

	_ = event
	return f
}

func matchesFilter(p *models.Property, event *models.ForeclosureEvent, search *models.SavedSearch) bool {
	if search.Zip != "" && search.Zip != p.Address.Zip {
		return false
	}
	if search.City != "" && !equalFold(search.City, p.Address.City) {
		return false
	}
	if search.County != "" && !equalFold(search.County, p.Address.County) {
		return false
	}
	if len(search.Cities) > 0 && !containsFold(search.Cities, p.Address.City) {
		return false
	}
	if len(search.Stages) > 0 {
		if event == nil {
			return false
		}
		if !containsStage(search.Stages, event.Stage) {
			return false
		}
	}
	if search.MinEquityPct != nil {
		if event == nil || event.Valuation.EquityPct == nil || *event.Valuation.EquityPct < *search.MinEquityPct {
			return false
		}
	}
	if search.MaxPrice != nil {
		if event == nil || event.OpeningBid == nil || *event.OpeningBid > *search.MaxPrice {
			return false
		}
	}
	if len(search.PropertyTypes) > 0 {
		if p.PropertyType == nil || !containsFold(search.PropertyTypes, *p.PropertyType) {
			return false
		}
	}
	if search.MinBeds != nil && (p.Beds == nil || *p.Beds < *search.MinBeds) {
		return false
	}
	if search.MaxBeds != nil && (p.Beds == nil || *p.Beds > *search.MaxBeds) {
		return false
	}
	if search.MinBaths != nil && (p.Baths == nil || *p.Baths < *search.MinBaths) {
		return false
	}
	if search.MaxBaths != nil && (p.Baths == nil || *p.Baths > *search.MaxBaths) {
		return false
	}
	if search.MinLotSqFt != nil && (p.LotSqFt == nil || *p.LotSqFt < *search.MinLotSqFt) {
		return false
	}
	if search.MaxLotSqFt != nil && (p.LotSqFt == nil || *p.LotSqFt > *search.MaxLotSqFt) {
		return false
	}
	if search.Lat != nil && search.Lng != nil && search.RadiusMiles != nil {
		if p.Address.Lat == nil || p.Address.Lng == nil {
			return false
		}
		if haversineMiles(*search.Lat, *search.Lng, *p.Address.Lat, *p.Address.Lng) > *search.RadiusMiles {
			return false
		}
	}
	return true
}

func containsStage(stages []models.Stage, s models.Stage) bool {
	for _, x := range stages {
		if x == s {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if equalFold(x, s) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	return strings.EqualFold(a, b)
}

// haversineMiles computes great-circle distance in miles between two
// lat/lng points, per spec 4.7's earth radius = 3958.8 mi.
func haversineMiles(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}
