package enrichment

import "testing"

func TestValidate_RejectsOutOfRangeScore(t *testing.T) {
	_, err := validate(riskResponse{Score: 150, Band: "High", Summary: "s", Rationale: "r"})
	if err == nil {
		t.Fatalf("expected error for score out of [0,100]")
	}
}

func TestValidate_RejectsUnknownBand(t *testing.T) {
	_, err := validate(riskResponse{Score: 50, Band: "Extreme", Summary: "s", Rationale: "r"})
	if err == nil {
		t.Fatalf("expected error for unrecognized band")
	}
}

func TestValidate_RejectsEmptySummaryOrRationale(t *testing.T) {
	if _, err := validate(riskResponse{Score: 50, Band: "Low", Summary: "", Rationale: "r"}); err == nil {
		t.Fatalf("expected error for empty summary")
	}
	if _, err := validate(riskResponse{Score: 50, Band: "Low", Summary: "s", Rationale: ""}); err == nil {
		t.Fatalf("expected error for empty rationale")
	}
}

func TestValidate_AcceptsWellFormedResponse(t *testing.T) {
	got, err := validate(riskResponse{Score: 72, Band: "Moderate", Summary: "s", Rationale: "r"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Score != 72 || got.Band != "Moderate" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
