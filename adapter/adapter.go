// Package adapter defines the Source Adapter contract (spec 4.1) and the
// registry of configured adapters. The registry is keyed by adapter id, not
// by (state, source-type); state selection filters handlers through
// SupportsState.
package adapter

import (
	"context"
	"fmt"

	"njforeclose/config"
	"njforeclose/httputil"
	"njforeclose/models"
)

// SearchParams is the normalized search request handed to an adapter,
// derived from a saved search or an ad-hoc query by the orchestrator.
type SearchParams struct {
	State  string
	County string
	City   string
	Zip    string
}

// Handler is the Source Adapter contract. Implementations must be
// stateless across calls: no per-call mutable state may leak between
// invocations of Search.
type Handler interface {
	ID() string
	Label() string
	SupportsState(code string) bool
	Search(ctx context.Context, params SearchParams) ([]models.RawListing, error)
}

// NewHandler is the factory switch on the configured handler type
// (html-table, browser, csv-import), generalizing the teacher's
// scraper.NewHandler switch on api/browser/apify. It does not consider
// the state; that is left to each handler's SupportsState.
func NewHandler(cfg *config.AdapterConfig, clients *httputil.Clients) (Handler, error) {
	switch cfg.Handler {
	case "html-table":
		return NewHTMLTableHandler(cfg, clients), nil
	case "browser":
		return NewBrowserHandler(cfg), nil
	case "csv-import":
		return NewCSVImportHandler(cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter handler type %q for adapter %q", cfg.Handler, cfg.ID)
	}
}

// Registry holds all configured adapters, keyed by id.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry builds a Handler for every configured adapter.
func NewRegistry(cfg *config.Config, clients *httputil.Clients) (*Registry, error) {
	handlers := make(map[string]Handler, len(cfg.Adapters))
	for id, ac := range cfg.Adapters {
		h, err := NewHandler(ac, clients)
		if err != nil {
			return nil, fmt.Errorf("adapter %s: %w", id, err)
		}
		handlers[id] = h
	}
	return &Registry{handlers: handlers}, nil
}

// ForState returns every adapter that supports the given state code.
func (r *Registry) ForState(state string) []Handler {
	var out []Handler
	for _, h := range r.handlers {
		if h.SupportsState(state) {
			out = append(out, h)
		}
	}
	return out
}

// Get returns one adapter by id.
func (r *Registry) Get(id string) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// All returns every registered handler.
func (r *Registry) All() []Handler {
	out := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	return out
}

func supportsState(scope []string, code string) bool {
	for _, s := range scope {
		if s == code {
			return true
		}
	}
	return false
}
