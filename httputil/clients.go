// Package httputil centralizes the *http.Client instances used by
// external collaborators, each with its own timeout, mirroring the
// teacher's httputil/clients.go.
package httputil

import "net/http"

// Clients bundles the per-collaborator HTTP clients used across adapters
// and the enrichment client.
type Clients struct {
	// ListPage fetches source list pages; short timeout per spec 4.1.
	ListPage *http.Client
	// DetailPage fetches per-listing detail pages; tighter timeout.
	DetailPage *http.Client
	// RiskService calls the external risk-analysis service.
	RiskService *http.Client
}

// NewClients builds the client set with the timeouts named in spec 4.1/4.4:
// 15s list-page, 5s detail-page, 30s enrichment.
func NewClients() *Clients {
	return &Clients{
		ListPage:    &http.Client{Timeout: listPageTimeout},
		DetailPage:  &http.Client{Timeout: detailPageTimeout},
		RiskService: &http.Client{Timeout: riskServiceTimeout},
	}
}
