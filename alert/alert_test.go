package alert

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"njforeclose/models"
)

func TestMatchesFilter_ZipAndStage(t *testing.T) {
	p := &models.Property{Address: models.Address{Zip: "07095", City: "Woodbridge"}}
	event := &models.ForeclosureEvent{Stage: models.StageSheriffSale}

	search := &models.SavedSearch{Zip: "07095", Stages: []models.Stage{models.StageSheriffSale}}
	if !matchesFilter(p, event, search) {
		t.Fatalf("expected match")
	}

	search.Zip = "08608"
	if matchesFilter(p, event, search) {
		t.Fatalf("expected no match on zip mismatch")
	}
}

func TestMatchesFilter_MinEquityPct(t *testing.T) {
	p := &models.Property{}
	equity := 30.0
	event := &models.ForeclosureEvent{Valuation: models.Valuation{EquityPct: &equity}}
	min := 25.0
	search := &models.SavedSearch{MinEquityPct: &min}
	if !matchesFilter(p, event, search) {
		t.Fatalf("expected match, equity 30 >= min 25")
	}

	min = 40
	search.MinEquityPct = &min
	if matchesFilter(p, event, search) {
		t.Fatalf("expected no match, equity 30 < min 40")
	}
}

func TestMatchesFilter_RadiusUsesHaversine(t *testing.T) {
	woodbridgeLat, woodbridgeLng := 40.5576, -74.2846
	trentonLat, trentonLng := 40.2206, -74.7597

	p := &models.Property{Address: models.Address{Lat: &woodbridgeLat, Lng: &woodbridgeLng}}
	radius := 10.0
	search := &models.SavedSearch{Lat: &woodbridgeLat, Lng: &woodbridgeLng, RadiusMiles: &radius}
	if !matchesFilter(p, nil, search) {
		t.Fatalf("expected match at distance 0")
	}

	search.Lat, search.Lng = &trentonLat, &trentonLng
	if matchesFilter(p, nil, search) {
		t.Fatalf("expected no match, Woodbridge is well outside a 10mi radius of Trenton")
	}
}

func TestHaversineMiles_KnownDistance(t *testing.T) {
	// Newark, NJ to Trenton, NJ is roughly 47 miles as the crow flies.
	d := haversineMiles(40.7357, -74.1724, 40.2206, -74.7597)
	if d < 42 || d > 52 {
		t.Fatalf("expected ~47 miles, got %.1f", d)
	}
}

func TestSignificanceFlags_QualifiesOnNewlyCreated(t *testing.T) {
	f := significanceFlags{newlyCreated: true}
	if !f.qualifies(&models.SavedSearch{}) {
		t.Fatalf("expected a newly created property to always qualify")
	}
}

func TestSignificanceFlags_SaleDateOnlyQualifiesForAuctionSearches(t *testing.T) {
	f := significanceFlags{saleDateChanged: true}
	if f.qualifies(&models.SavedSearch{Stages: []models.Stage{models.StagePreForeclosure}}) {
		t.Fatalf("expected no qualify: search doesn't want sheriff sale/auction stages")
	}
	if !f.qualifies(&models.SavedSearch{Stages: []models.Stage{models.StageSheriffSale}}) {
		t.Fatalf("expected qualify: search wants sheriff sale stage")
	}
}

func TestSignificance_DerivesFromTimelineWindow(t *testing.T) {
	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &models.Property{IngestionTimestamp: since.Add(-time.Hour)}
	timeline := []models.TimelineEntry{
		{Kind: models.TimelinePriceChange, Date: since.Add(time.Hour)},
		{Kind: models.TimelineSheriffSaleAdjourned, Date: since.Add(-time.Hour)},
	}

	f := significance(p, nil, timeline, since)
	if f.newlyCreated {
		t.Fatalf("property ingested before the window should not be newlyCreated")
	}
	if !f.priceChanged || !f.equityCrossed {
		t.Fatalf("expected priceChanged/equityCrossed from the in-window price entry")
	}
	if f.saleDateChanged {
		t.Fatalf("the adjournment entry is before the window and should not count")
	}
}

func TestDedupe(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := dedupe([]uuid.UUID{a, a, b})
	if len(got) != 2 {
		t.Fatalf("expected 2 unique ids, got %d", len(got))
	}
}
