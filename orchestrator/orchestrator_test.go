package orchestrator

import (
	"context"
	"errors"
	"testing"

	"njforeclose/adapter"
	"njforeclose/config"
	"njforeclose/models"
)

type fakeHandler struct {
	id       string
	results  []models.RawListing
	err      error
	failOnce bool
	calls    int
}

func (f *fakeHandler) ID() string                       { return f.id }
func (f *fakeHandler) Label() string                     { return f.id }
func (f *fakeHandler) SupportsState(code string) bool    { return true }
func (f *fakeHandler) Search(ctx context.Context, params adapter.SearchParams) ([]models.RawListing, error) {
	f.calls++
	if f.failOnce && f.calls == 1 {
		return nil, errors.New("transient")
	}
	return f.results, f.err
}

func TestSearchWithRetry_RetriesOnceOnFailure(t *testing.T) {
	h := &fakeHandler{id: "test-adapter", failOnce: true, results: []models.RawListing{{Address: "1 Main St"}}}
	raw, err := searchWithRetry(context.Background(), h, adapter.SearchParams{State: "NJ"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if h.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", h.calls)
	}
	if len(raw) != 1 {
		t.Fatalf("expected 1 raw listing, got %d", len(raw))
	}
}

func TestSearchWithRetry_PropagatesRepeatedFailure(t *testing.T) {
	h := &fakeHandler{id: "test-adapter", err: errors.New("still broken")}
	_, err := searchWithRetry(context.Background(), h, adapter.SearchParams{State: "NJ"})
	if err == nil {
		t.Fatalf("expected error after both attempts fail")
	}
	if h.calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", h.calls)
	}
}

func TestSchemaDrifted_TripsAboveThreshold(t *testing.T) {
	raw := []models.RawListing{
		{Address: "1 Main St", StatusText: "Scheduled"},
		{Address: "", StatusText: "Scheduled"},
		{Address: "3 Main St", SaleDateText: "", StatusText: ""},
	}
	tripped, fraction := schemaDrifted(raw, 0.20)
	if !tripped {
		t.Fatalf("expected breaker to trip: 2/3 rows missing a critical field")
	}
	if fraction < 0.6 || fraction > 0.7 {
		t.Fatalf("expected fraction ~0.667, got %f", fraction)
	}
}

func TestSchemaDrifted_StaysClosedBelowThreshold(t *testing.T) {
	raw := []models.RawListing{
		{Address: "1 Main St", StatusText: "Scheduled"},
		{Address: "2 Main St", StatusText: "Scheduled"},
		{Address: "3 Main St", StatusText: "Scheduled"},
		{Address: "", StatusText: "Scheduled"},
	}
	tripped, _ := schemaDrifted(raw, 0.30)
	if tripped {
		t.Fatalf("expected breaker to stay closed: 1/4 rows missing is below threshold")
	}
}

func TestAdapterReliability_DefaultsWhenUnconfigured(t *testing.T) {
	cfg := &config.Config{Adapters: map[string]*config.AdapterConfig{
		"known": {ID: "known", Reliability: 0.85},
	}}
	if got := adapterReliability(cfg, "known"); got != 0.85 {
		t.Fatalf("expected 0.85, got %f", got)
	}
	if got := adapterReliability(cfg, "unknown"); got != 0.5 {
		t.Fatalf("expected default 0.5, got %f", got)
	}
}
