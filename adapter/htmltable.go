package adapter

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"njforeclose/config"
	"njforeclose/httputil"
	"njforeclose/models"
)

// HTMLTableHandler fetches a county sheriff-sale results page and parses
// its results table. Column headers are discovered at parse time (spec
// 4.1: "Selector mapping is dynamic ... reordered columns do not break
// the parse"), grounded on the teacher's api_handler.go fetch-and-parse
// shape but reading an HTML table instead of a JSON API.
type HTMLTableHandler struct {
	cfg     *config.AdapterConfig
	clients *httputil.Clients
}

func NewHTMLTableHandler(cfg *config.AdapterConfig, clients *httputil.Clients) *HTMLTableHandler {
	return &HTMLTableHandler{cfg: cfg, clients: clients}
}

func (h *HTMLTableHandler) ID() string    { return h.cfg.ID }
func (h *HTMLTableHandler) Label() string { return h.cfg.Label }

func (h *HTMLTableHandler) SupportsState(code string) bool {
	return supportsState(h.cfg.StateScope, code)
}

// knownColumns maps the header text a sheriff-sale site is likely to use
// (lowercased, whitespace-collapsed) to the RawListing field it feeds.
var knownColumns = map[string]string{
	"sheriff #":       "debug_id",
	"case":            "caption",
	"case name":       "caption",
	"plaintiff":       "plaintiff",
	"defendant":       "defendant",
	"address":         "address",
	"property address": "address",
	"sale date":       "sale_date",
	"status":          "status",
	"approx judgment": "judgment",
	"upset amount":    "opening_bid",
	"opening bid":     "opening_bid",
}

// Search fetches the adapter's configured endpoint and parses the results
// table. A whole-page failure returns an empty batch, never an error that
// would abort the run (spec 4.1: "one dead source does not abort the
// run"); per-row parse failures are simply skipped.
func (h *HTMLTableHandler) Search(ctx context.Context, params SearchParams) ([]models.RawListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.Endpoint, nil)
	if err != nil {
		log.Printf("adapter %s: build request: %v", h.ID(), err)
		return nil, nil
	}
	req.Header.Set("User-Agent", "njforeclose-ingest/1.0")

	resp, err := h.clients.ListPage.Do(req)
	if err != nil {
		log.Printf("adapter %s: fetch failed: %v", h.ID(), err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("adapter %s: unexpected status %d", h.ID(), resp.StatusCode)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("adapter %s: parse HTML: %v", h.ID(), err)
		return nil, nil
	}

	return h.parseTable(doc), nil
}

func (h *HTMLTableHandler) parseTable(doc *goquery.Document) []models.RawListing {
	var listings []models.RawListing

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := discoverHeaders(table)
		if len(headers) == 0 {
			return true // keep looking for a table with a header row
		}

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			listing, ok := h.parseRow(row, headers)
			if ok {
				listings = append(listings, listing)
			}
		})
		return false // stop at the first table that has headers we recognize
	})

	return listings
}

// discoverHeaders reads the table's header row and maps each column index
// to the RawListing field it feeds, so a reordered column layout still
// parses correctly.
func discoverHeaders(table *goquery.Selection) map[int]string {
	headers := make(map[int]string)
	table.Find("thead tr").First().Find("th").Each(func(i int, cell *goquery.Selection) {
		text := normalizeHeader(cell.Text())
		if field, ok := knownColumns[text]; ok {
			headers[i] = field
		}
	})
	return headers
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.Join(strings.Fields(s), " ")))
}

func (h *HTMLTableHandler) parseRow(row *goquery.Selection, headers map[int]string) (models.RawListing, bool) {
	fields := make(map[string]string)
	row.Find("td").Each(func(i int, cell *goquery.Selection) {
		field, ok := headers[i]
		if !ok {
			return
		}
		fields[field] = strings.TrimSpace(cell.Text())
	})

	if fields["address"] == "" {
		return models.RawListing{}, false
	}

	plaintiff := fields["plaintiff"]
	defendant := fields["defendant"]

	debug, _ := json.Marshal(fields)

	return models.RawListing{
		AdapterID:      h.ID(),
		SourceType:     models.SourceScraper,
		Address:        fields["address"],
		StatusText:     fields["status"],
		StageHint:      fields["caption"],
		SaleDateText:   fields["sale_date"],
		OpeningBidText: fields["opening_bid"],
		EstValueText:   fields["est_value"],
		Plaintiff:      plaintiff,
		Defendant:      defendant,
		DetailURL:      "",
		Data:           debug,
	}, true
}
