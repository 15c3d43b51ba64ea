package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"njforeclose/storage"
)

// MatchService surfaces cross-property near-duplicate suggestions —
// grounded on the teacher's MatchService.InsertPotentialMatches — but is
// deliberately read-only here: block/lot identifiers aren't available from
// any adapter in this pack, so this repo cannot safely resolve two listings
// at slightly different addresses to the same parcel. FindPotentialMatches
// is exposed for manual review and is never consulted by PropertyService's
// Upsert (see DESIGN.md's dedupe-across-block/lot Open Question).
type MatchService struct {
	store *storage.PostgresStore
}

func NewMatchService(store *storage.PostgresStore) *MatchService {
	return &MatchService{store: store}
}

// PotentialMatch is a scored suggestion that two properties may describe
// the same parcel.
type PotentialMatch struct {
	PropertyID uuid.UUID
	Confidence float64
	Reasons    []string
}

// FindPotentialMatches scores every other property sharing a city or zip
// with the given property against simple address-similarity signals. It
// never mutates state and is not part of the ingestion path.
func (s *MatchService) FindPotentialMatches(ctx context.Context, propertyID uuid.UUID, street, city, zip string) ([]PotentialMatch, error) {
	candidates, err := s.store.CandidatesByCityOrZip(ctx, propertyID, city, zip)
	if err != nil {
		return nil, err
	}

	normalizedStreet := strings.ToLower(strings.TrimSpace(street))
	base := baseAddress(normalizedStreet)

	var out []PotentialMatch
	for _, c := range candidates {
		candidateStreet := strings.ToLower(strings.TrimSpace(c.Street))

		var reasons []string
		confidence := 0.0

		if normalizedStreet != "" && normalizedStreet == candidateStreet {
			reasons = append(reasons, "same_address")
			confidence += 0.7
		} else if base != "" && base == baseAddress(candidateStreet) {
			reasons = append(reasons, "same_base_address")
			confidence += 0.5
		}
		if zip != "" && zip == c.Zip {
			reasons = append(reasons, "same_zip")
			confidence += 0.2
		}
		if city != "" && strings.EqualFold(city, c.City) {
			reasons = append(reasons, "same_city")
			confidence += 0.1
		}

		if len(reasons) == 0 || confidence < 0.5 {
			continue
		}
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, PotentialMatch{PropertyID: c.ID, Confidence: confidence, Reasons: reasons})
	}
	return out, nil
}

// baseAddress strips a leading unit/apartment token from a street string so
// "12 main st apt 3" and "12 main st" share a base form.
func baseAddress(street string) string {
	fields := strings.Fields(street)
	var kept []string
	skip := false
	for _, f := range fields {
		if skip {
			skip = false
			continue
		}
		if f == "apt" || f == "unit" || f == "suite" || f == "ste" || f == "#" {
			skip = true
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}
