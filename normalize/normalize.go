// Package normalize holds the pure, side-effect-free transformations that
// turn a raw source row into a canonical record: money/date/stage parsing,
// address canonicalization, dedupe-key derivation, and the pre-enrichment
// heuristic risk band.
package normalize

import (
	"strings"
	"time"

	"njforeclose/identity"
	"njforeclose/models"
)

// Result is the outcome of normalizing one raw listing.
type Result struct {
	DedupeKey     string
	Address       models.Address
	Stage         models.Stage
	StatusText    string
	SaleDate      *time.Time
	OpeningBid    *float64
	EstValue      *float64
	Judgment      *float64
	Plaintiff     string
	Defendant     string
	Valuation     models.Valuation
	HeuristicBand models.RiskBand
}

// NormalizeRawListing is the pure transform from spec 4.2: raw listing to
// canonical record, or a skip. skip is true when the address can't be
// parsed beyond a zip, or the row carries neither a price, a date, nor a
// status — the caller counts these as itemsSkippedNormalization.
func NormalizeRawListing(raw *models.RawListing, state string) (Result, bool) {
	parsed := ParseAddress(raw.Address)
	if parsed.Street == "" {
		return Result{}, true
	}

	openingBid := Money(raw.OpeningBidText)
	estValue := Money(raw.EstValueText)
	saleDate := SaleDate(raw.SaleDateText)

	hasStatus := strings.TrimSpace(raw.StatusText) != "" || strings.TrimSpace(raw.StageHint) != ""
	if openingBid == nil && saleDate == nil && !hasStatus {
		return Result{}, true
	}

	stage := InferStage(raw.StageHint, raw.StatusText)

	plaintiff := raw.Plaintiff
	defendant := raw.Defendant
	if plaintiff == "" && defendant == "" {
		plaintiff, defendant = SplitCaption(raw.Address)
	}

	st := parsed.State
	if st == "" {
		st = state
	}

	addr := models.Address{
		Full:   raw.Address,
		Street: parsed.Street,
		City:   identity.CanonicalizeCity(parsed.City),
		County: "",
		State:  st,
		Zip:    parsed.Zip,
	}

	valuation := models.ComputeValuation(estValue, openingBid)

	return Result{
		DedupeKey:     identity.DedupeKey(st, parsed.Zip, parsed.Street, ""),
		Address:       addr,
		Stage:         stage,
		StatusText:    raw.StatusText,
		SaleDate:      saleDate,
		OpeningBid:    openingBid,
		EstValue:      estValue,
		Plaintiff:     plaintiff,
		Defendant:     defendant,
		Valuation:     valuation,
		HeuristicBand: models.HeuristicRiskBand(valuation.EquityPct),
	}, false
}
