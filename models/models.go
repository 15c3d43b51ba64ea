// Package models defines the canonical data types shared across the
// ingestion, normalization, storage, and alerting packages.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Stage is the foreclosure lifecycle stage of a ForeclosureEvent.
type Stage string

const (
	StagePreForeclosure Stage = "PRE_FORECLOSURE"
	StageSheriffSale    Stage = "SHERIFF_SALE"
	StageAuction        Stage = "AUCTION"
	StageREO            Stage = "REO"
	StageUnknown        Stage = "UNKNOWN"
)

// stageRank gives the ordering used by stage-progression change detection
// in the upsert algorithm: PRE_FORECLOSURE < SHERIFF_SALE/AUCTION < REO.
var stageRank = map[Stage]int{
	StageUnknown:        0,
	StagePreForeclosure: 1,
	StageSheriffSale:    2,
	StageAuction:        2,
	StageREO:            3,
}

// Rank returns the stage's position for progression comparisons.
func (s Stage) Rank() int {
	return stageRank[s]
}

// RiskBand is the categorical risk classification, either heuristic
// (derived from equity_pct) or analyzed (from the Enrichment Client).
type RiskBand string

const (
	RiskLow      RiskBand = "Low"
	RiskModerate RiskBand = "Moderate"
	RiskHigh     RiskBand = "High"
	RiskUnknown  RiskBand = "Unknown"
)

// EventStatus is the lifecycle status of a ForeclosureEvent.
type EventStatus string

const (
	EventStatusActive              EventStatus = "active"
	EventStatusClosed              EventStatus = "closed"
	EventStatusPendingVerification EventStatus = "pending_verification"
)

// Address is the canonical, normalized address portion of a Property.
type Address struct {
	Full   string
	Street string
	City   string
	County string
	State  string // ISO-2, "NJ" for the shipped profile
	Zip    string
	Lat    *float64
	Lng    *float64
}

// Property is the canonical real-estate asset, stable across foreclosure
// cycles and never deleted once created.
type Property struct {
	ID         uuid.UUID
	DedupeKey  string
	Address    Address
	Beds       *int
	Baths      *float64
	LotSqFt    *int
	PropertyType *string
	Occupancy  *string

	HeuristicBand RiskBand
	AnalyzedBand  *RiskBand

	IngestionTimestamp time.Time
	LastUpdated        time.Time
	EnrichmentDirty    bool
}

// ForeclosureEvent is the temporal legal state attached to a Property. At
// most one event per property has Status == EventStatusActive.
type ForeclosureEvent struct {
	ID              uuid.UUID
	PropertyID      uuid.UUID
	Stage           Stage
	Status          EventStatus
	StatusText      string
	SaleDate        *time.Time
	OpeningBid      *float64
	JudgmentAmount  *float64
	Plaintiff       string
	Defendant       string
	OwnerPhone      string
	Valuation       Valuation
	Source          Source
	LastIngestedAt  time.Time
	CreatedAt       time.Time
	ClosedAt        *time.Time
}

// Valuation carries the estimated value and derived equity fields. All
// fields may be null; equity_pct is null iff estimated_value or
// opening_bid is null, or estimated_value <= 0.
type Valuation struct {
	EstimatedValue *float64
	EquityAmount   *float64
	EquityPct      *float64
}

// ComputeValuation derives EquityAmount/EquityPct from an estimated value
// and opening bid, per spec: equity_pct = (est - bid) / est * 100, defined
// only when both are non-null and est > 0.
func ComputeValuation(estimatedValue, openingBid *float64) Valuation {
	v := Valuation{EstimatedValue: estimatedValue}
	if estimatedValue == nil || openingBid == nil || *estimatedValue <= 0 {
		return v
	}
	amount := *estimatedValue - *openingBid
	pct := amount / *estimatedValue * 100
	v.EquityAmount = &amount
	v.EquityPct = &pct
	return v
}

// HeuristicRiskBand derives a placeholder risk band purely from equity_pct,
// used before (or in place of) enrichment. Risk Analysis may override it.
func HeuristicRiskBand(equityPct *float64) RiskBand {
	if equityPct == nil {
		return RiskUnknown
	}
	switch {
	case *equityPct >= 25:
		return RiskLow
	case *equityPct >= 10:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// TimelineKind enumerates the append-only audit-event kinds.
type TimelineKind string

const (
	TimelineLisPendensFiled      TimelineKind = "LIS_PENDENS_FILED"
	TimelineSheriffSaleScheduled TimelineKind = "SHERIFF_SALE_SCHEDULED"
	TimelineSheriffSaleAdjourned TimelineKind = "SHERIFF_SALE_ADJOURNED"
	TimelineAuctionListed        TimelineKind = "AUCTION_LISTED"
	TimelinePriceChange          TimelineKind = "PRICE_CHANGE"
	TimelineSoldToPlaintiff      TimelineKind = "SOLD_TO_PLAINTIFF"
	TimelineSoldToThirdParty     TimelineKind = "SOLD_TO_THIRD_PARTY"
	TimelineListingRemoved       TimelineKind = "LISTING_REMOVED"
	TimelineFinalJudgment        TimelineKind = "FINAL_JUDGMENT"
)

// TimelineEntry is an immutable, append-only audit record for a Property.
type TimelineEntry struct {
	ID          uuid.UUID
	PropertyID  uuid.UUID
	Kind        TimelineKind
	Date        time.Time
	SourceLabel string
	Description string
	Payload     json.RawMessage
}

// SourceType classifies where a listing observation came from.
type SourceType string

const (
	SourceScraper SourceType = "Scraper"
	SourceManual  SourceType = "Manual"
	SourceAPI     SourceType = "API"
)

// Source describes the adapter that produced an observation, including its
// configured reliability weight used by the reliability-gated merge.
type Source struct {
	Type        SourceType
	Name        string
	DetailURL   string
	Reliability float64
	ObservedAt  time.Time
}

// SavedSearch is a user-scoped Buy Box: a serialized filter predicate plus
// an alerts_enabled flag.
type SavedSearch struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Zip             string
	City            string
	County          string
	Cities          []string
	Stages          []Stage
	MinEquityPct    *float64
	MaxPrice        *float64
	PropertyTypes   []string
	MinBeds         *int
	MaxBeds         *int
	MinBaths        *float64
	MaxBaths        *float64
	MinLotSqFt      *int
	MaxLotSqFt      *int
	Lat             *float64
	Lng             *float64
	RadiusMiles     *float64
	AlertsEnabled   bool
	CreatedAt       time.Time
}

// AlertHistory records an emitted alert for cooldown-window suppression.
type AlertHistory struct {
	UserID     uuid.UUID
	PropertyID uuid.UUID
	SentAt     time.Time
}

// RiskAnalysis is the Enrichment Client's output.
type RiskAnalysis struct {
	Score      int
	Band       RiskBand
	Summary    string
	Rationale  string
	AnalyzedAt time.Time
}

// RawListing is the unparsed payload produced by a Source Adapter, before
// normalization. All string fields carry the source's raw text verbatim;
// Data holds opaque source-specific debug metadata.
type RawListing struct {
	AdapterID       string
	SourceType      SourceType
	Address         string
	StatusText      string
	StageHint       string
	SaleDateText    string
	OpeningBidText  string
	EstValueText    string
	Plaintiff       string
	Defendant       string
	DetailURL       string
	Data            json.RawMessage
}

// DeadLetterRow is a parked, failed-ingestion row kept for human review.
type DeadLetterRow struct {
	ID         int64
	AdapterID  string
	RawPayload json.RawMessage
	Reason     string
	OccurredAt time.Time
}

// LogLevel mirrors the levels used by the ambient logging stack and the
// per-run scrape log.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
	LogLevelFatal LogLevel = "fatal"
)
