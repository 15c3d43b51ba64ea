// Package enrichment calls the external risk-analysis service and applies
// its verdict to enrichment-dirty properties, grounded on the teacher's
// workers.EnrichmentWorker loop shape with the HTML-scraping body replaced
// by a JSON HTTP call, per spec 4.4.
package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"njforeclose/config"
	"njforeclose/models"
	"njforeclose/storage"
)

// deepNegativeEquityThreshold is the skip-optimization boundary from spec
// 4.4: equity_pct below this short-circuits to a fixed High-risk verdict
// without calling the service.
const deepNegativeEquityThreshold = -20.0

// Client calls the external risk-analysis service under a token-bucket
// rate limit, replacing the teacher's time.Sleep(500ms) pacing with a
// cancellation-aware limiter (spec 4.4: every suspension point must honor
// cancellation, which a sleep loop cannot express).
type Client struct {
	store   *storage.PostgresStore
	http    *http.Client
	cfg     config.RiskServiceConfig
	limiter *rate.Limiter
}

func NewClient(store *storage.PostgresStore, httpClient *http.Client, cfg config.RiskServiceConfig, ratePerMinute int) *Client {
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &Client{
		store:   store,
		http:    httpClient,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(ratePerMinute)), 1),
	}
}

// riskRequest is the trimmed view of a property spec 4.4 requires: address,
// valuation, foreclosure details, occupancy. Timeline and raw source blobs
// are deliberately omitted to bound token cost.
type riskRequest struct {
	Address        string   `json:"address"`
	EstimatedValue *float64 `json:"estimated_value"`
	OpeningBid     *float64 `json:"opening_bid"`
	Stage          string   `json:"stage"`
	Occupancy      *string  `json:"occupancy,omitempty"`
	Beds           *int     `json:"beds,omitempty"`
	Baths          *float64 `json:"baths,omitempty"`
}

type riskResponse struct {
	Score     int    `json:"score"`
	Band      string `json:"band"`
	Summary   string `json:"summary"`
	Rationale string `json:"rationale"`
}

// Enrich calls the risk service for one property/event pair and returns the
// parsed, structurally-validated analysis. Wait blocks on the limiter until
// ctx allows a call, so callers must not assume bounded latency.
func (c *Client) Enrich(ctx context.Context, p *models.Property, event *models.ForeclosureEvent) (*models.RiskAnalysis, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req := riskRequest{Address: p.Address.Full, Occupancy: p.Occupancy, Beds: p.Beds, Baths: p.Baths}
	if event != nil {
		req.EstimatedValue = event.Valuation.EstimatedValue
		req.OpeningBid = event.OpeningBid
		req.Stage = string(event.Stage)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal risk request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build risk request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call risk service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk service returned status %d", resp.StatusCode)
	}

	var out riskResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode risk response: %w", err)
	}

	return validate(out)
}

// validate enforces the response shape spec 4.4 requires before it is
// trusted: score in [0,100], band a known enum member, non-empty
// summary/rationale. A malformed response is treated as a failed call, not
// applied to the property.
func validate(r riskResponse) (*models.RiskAnalysis, error) {
	if r.Score < 0 || r.Score > 100 {
		return nil, fmt.Errorf("score %d out of range", r.Score)
	}
	band := models.RiskBand(r.Band)
	switch band {
	case models.RiskLow, models.RiskModerate, models.RiskHigh, models.RiskUnknown:
	default:
		return nil, fmt.Errorf("unrecognized band %q", r.Band)
	}
	if r.Summary == "" || r.Rationale == "" {
		return nil, fmt.Errorf("empty summary or rationale")
	}
	return &models.RiskAnalysis{
		Score:      r.Score,
		Band:       band,
		Summary:    r.Summary,
		Rationale:  r.Rationale,
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

var skipVerdict = models.RiskAnalysis{
	Score:     0,
	Band:      models.RiskHigh,
	Summary:   "auto-rejected: deep negative equity",
	Rationale: "equity_pct below -20%; skipped external analysis per rate-limiting policy",
}

// Run drains the enrichment-dirty batch on a ticker, the direct analog of
// the teacher's EnrichmentWorker.Run/processBatch.
func (c *Client) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.processBatch(ctx, batchSize)
		}
	}
}

func (c *Client) processBatch(ctx context.Context, batchSize int) {
	properties, err := c.store.EnrichmentDirtyProperties(ctx, batchSize)
	if err != nil {
		log.Printf("enrichment: query dirty properties: %v", err)
		return
	}
	if len(properties) == 0 {
		return
	}

	log.Printf("enrichment: processing %d dirty properties", len(properties))

	for i := range properties {
		p := &properties[i]

		event, err := c.store.ActiveEvent(ctx, p.ID)
		if err != nil && err != storage.ErrNotFound {
			log.Printf("enrichment: active event for %s: %v", p.ID, err)
			continue
		}

		if event != nil && event.Valuation.EquityPct != nil && *event.Valuation.EquityPct < deepNegativeEquityThreshold {
			verdict := skipVerdict
			verdict.AnalyzedAt = time.Now().UTC()
			if err := c.store.SetAnalyzedRisk(ctx, p.ID, &verdict); err != nil {
				log.Printf("enrichment: skip-set for %s: %v", p.ID, err)
			}
			continue
		}

		analysis, err := c.Enrich(ctx, p, event)
		if err != nil {
			// Best-effort per spec 4.4: never block ingestion progress.
			// The heuristic band stays in place; enrichment_dirty is left
			// set so the next batch retries.
			log.Printf("enrichment: unavailable for %s: %v", p.ID, err)
			continue
		}

		if err := c.store.SetAnalyzedRisk(ctx, p.ID, analysis); err != nil {
			log.Printf("enrichment: set analyzed risk for %s: %v", p.ID, err)
			continue
		}
	}
}
