package normalize

import (
	"testing"

	"njforeclose/models"
)

func TestNormalizeRawListing_HappySheriffSale(t *testing.T) {
	raw := &models.RawListing{
		Address:        "100 Garden State Pkwy, Woodbridge, NJ 07095",
		StageHint:      "Sheriff Sale",
		StatusText:     "Scheduled",
		SaleDateText:   "2024-12-25",
		OpeningBidText: "$150,000.00",
		EstValueText:   "$300,000",
		Plaintiff:      "US Bank Trust",
		Defendant:      "James T. Kirk",
	}

	result, skip := NormalizeRawListing(raw, "NJ")
	if skip {
		t.Fatalf("expected no skip")
	}
	if result.Stage != models.StageSheriffSale {
		t.Fatalf("expected SHERIFF_SALE, got %s", result.Stage)
	}
	if result.SaleDate == nil || result.SaleDate.Format("2006-01-02") != "2024-12-25" {
		t.Fatalf("expected sale date 2024-12-25, got %v", result.SaleDate)
	}
	if result.OpeningBid == nil || *result.OpeningBid != 150000 {
		t.Fatalf("expected opening bid 150000, got %v", result.OpeningBid)
	}
	if result.EstValue == nil || *result.EstValue != 300000 {
		t.Fatalf("expected est value 300000, got %v", result.EstValue)
	}
	if result.Valuation.EquityPct == nil || *result.Valuation.EquityPct != 50.0 {
		t.Fatalf("expected equity_pct 50.0, got %v", result.Valuation.EquityPct)
	}
	if result.HeuristicBand != models.RiskLow {
		t.Fatalf("expected Low band, got %s", result.HeuristicBand)
	}
}

func TestNormalizeRawListing_AdjournedStatus(t *testing.T) {
	raw := &models.RawListing{
		Address:        "1 Some St, Newark, NJ 07102",
		StatusText:     "Adjourned to 1/15",
		SaleDateText:   "Adjourned to 1/15",
		OpeningBidText: "N/A",
		EstValueText:   "250000",
	}

	result, skip := NormalizeRawListing(raw, "NJ")
	if skip {
		t.Fatalf("expected no skip")
	}
	if result.SaleDate != nil {
		t.Fatalf("expected nil sale date, got %v", result.SaleDate)
	}
	if result.OpeningBid != nil {
		t.Fatalf("expected nil opening bid, got %v", result.OpeningBid)
	}
	if result.Valuation.EquityPct != nil {
		t.Fatalf("expected nil equity_pct, got %v", result.Valuation.EquityPct)
	}
	if result.HeuristicBand != models.RiskUnknown {
		t.Fatalf("expected Unknown band, got %s", result.HeuristicBand)
	}
	if result.Stage != models.StageSheriffSale {
		t.Fatalf("expected SHERIFF_SALE inferred from 'adjourned', got %s", result.Stage)
	}
}

func TestNormalizeRawListing_UnderwaterREO(t *testing.T) {
	raw := &models.RawListing{
		Address:        "2 Bank Owned Way, Trenton, NJ 08608",
		StageHint:      "REO",
		OpeningBidText: "$220,000",
		EstValueText:   "$200,000",
	}

	result, skip := NormalizeRawListing(raw, "NJ")
	if skip {
		t.Fatalf("expected no skip")
	}
	if result.Stage != models.StageREO {
		t.Fatalf("expected REO, got %s", result.Stage)
	}
	if result.Valuation.EquityPct == nil || *result.Valuation.EquityPct != -10.0 {
		t.Fatalf("expected equity_pct -10.0, got %v", result.Valuation.EquityPct)
	}
	if result.HeuristicBand != models.RiskHigh {
		t.Fatalf("expected High band, got %s", result.HeuristicBand)
	}
}

func TestNormalizeRawListing_DedupeEquivalence(t *testing.T) {
	a := &models.RawListing{
		Address:    "777  Messy   Road ,   Clifton  , NJ 07013 ",
		StatusText: "Scheduled",
	}
	b := &models.RawListing{
		Address:    "777 Messy Rd, Clifton Twp, NJ 07013",
		StatusText: "Scheduled",
	}

	rA, skipA := NormalizeRawListing(a, "NJ")
	rB, skipB := NormalizeRawListing(b, "NJ")
	if skipA || skipB {
		t.Fatalf("expected no skip, got %v/%v", skipA, skipB)
	}
	if rA.DedupeKey != rB.DedupeKey {
		t.Fatalf("expected equal dedupe keys, got %q vs %q", rA.DedupeKey, rB.DedupeKey)
	}
}

func TestNormalizeRawListing_SkipsUnparseableAddress(t *testing.T) {
	raw := &models.RawListing{Address: "07013", StatusText: "Scheduled"}
	_, skip := NormalizeRawListing(raw, "NJ")
	if !skip {
		t.Fatalf("expected skip for address with no street")
	}
}

func TestNormalizeRawListing_SkipsWhenNoPriceDateOrStatus(t *testing.T) {
	raw := &models.RawListing{Address: "1 Empty St, Newark, NJ 07102"}
	_, skip := NormalizeRawListing(raw, "NJ")
	if !skip {
		t.Fatalf("expected skip when row carries no price, date, or status")
	}
}

func TestNormalizeRawListing_Deterministic(t *testing.T) {
	raw := &models.RawListing{
		Address:        "5 Repeat Rd, Newark, NJ 07102",
		StageHint:      "Sheriff Sale",
		OpeningBidText: "$100,000",
		EstValueText:   "$150,000",
	}
	first, _ := NormalizeRawListing(raw, "NJ")
	second, _ := NormalizeRawListing(raw, "NJ")
	if first.DedupeKey != second.DedupeKey || *first.Valuation.EquityPct != *second.Valuation.EquityPct {
		t.Fatalf("expected deterministic normalization, got %+v vs %+v", first, second)
	}
}
