package adapter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"log"
	"os"
	"strings"

	"njforeclose/config"
	"njforeclose/models"
)

// CSVImportHandler ingests a manually-uploaded spreadsheet, grounding the
// REST contract's `POST /ingest` `source_type: excel_import` case (spec
// §6) as an in-process adapter — the HTTP surface itself is out of
// scope, but the underlying ingestion path is.
type CSVImportHandler struct {
	cfg *config.AdapterConfig
	// Path points at the uploaded file; Search returns an empty batch while
	// it is empty. Nothing in the orchestrator sets it. Adapters must
	// otherwise stay stateless across calls per spec 4.1.
	Path string
}

func NewCSVImportHandler(cfg *config.AdapterConfig) *CSVImportHandler {
	return &CSVImportHandler{cfg: cfg}
}

func (h *CSVImportHandler) ID() string    { return h.cfg.ID }
func (h *CSVImportHandler) Label() string { return h.cfg.Label }

func (h *CSVImportHandler) SupportsState(code string) bool {
	return supportsState(h.cfg.StateScope, code)
}

// csvColumnAliases maps a lowercased header cell to the RawListing field
// it feeds, the same dynamic-header-discovery contract as the HTML table
// adapter so column reordering in an uploaded sheet doesn't break parsing.
var csvColumnAliases = map[string]string{
	"address":       "address",
	"property address": "address",
	"status":        "status",
	"stage":         "stage_hint",
	"sale date":     "sale_date",
	"auction date":  "sale_date",
	"opening bid":   "opening_bid",
	"upset amount":  "opening_bid",
	"est. value":    "est_value",
	"estimated value": "est_value",
	"plaintiff":     "plaintiff",
	"defendant":     "defendant",
	"home owner":    "defendant",
	"source url":    "detail_url",
}

func (h *CSVImportHandler) Search(ctx context.Context, params SearchParams) ([]models.RawListing, error) {
	if h.Path == "" {
		return nil, nil
	}
	f, err := os.Open(h.Path)
	if err != nil {
		log.Printf("adapter %s: open file: %v", h.ID(), err)
		return nil, nil
	}
	defer f.Close()

	return h.parseCSV(f), nil
}

func (h *CSVImportHandler) parseCSV(r io.Reader) []models.RawListing {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Printf("adapter %s: read header: %v", h.ID(), err)
		return nil
	}

	columns := make(map[int]string, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := csvColumnAliases[key]; ok {
			columns[i] = field
		}
	}

	var listings []models.RawListing
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("adapter %s: skip malformed row: %v", h.ID(), err)
			continue
		}

		fields := make(map[string]string)
		for i, value := range record {
			if field, ok := columns[i]; ok {
				fields[field] = strings.TrimSpace(value)
			}
		}
		if fields["address"] == "" {
			continue
		}

		debug, _ := json.Marshal(fields)
		listings = append(listings, models.RawListing{
			AdapterID:      h.ID(),
			SourceType:     models.SourceManual,
			Address:        fields["address"],
			StatusText:     fields["status"],
			StageHint:      fields["stage_hint"],
			SaleDateText:   fields["sale_date"],
			OpeningBidText: fields["opening_bid"],
			EstValueText:   fields["est_value"],
			Plaintiff:      fields["plaintiff"],
			Defendant:      fields["defendant"],
			DetailURL:      fields["detail_url"],
			Data:           debug,
		})
	}
	return listings
}
