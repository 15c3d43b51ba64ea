package models

import "testing"

func TestComputeValuation_EquityPctFormula(t *testing.T) {
	est, bid := 300000.0, 150000.0
	v := ComputeValuation(&est, &bid)
	if v.EquityPct == nil {
		t.Fatalf("expected non-nil equity_pct")
	}
	if diff := *v.EquityPct - 50.0; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("expected 50.0, got %f", *v.EquityPct)
	}
}

func TestComputeValuation_NilWhenEitherInputMissing(t *testing.T) {
	est := 300000.0
	if v := ComputeValuation(&est, nil); v.EquityPct != nil {
		t.Fatalf("expected nil equity_pct with no opening bid")
	}
	bid := 150000.0
	if v := ComputeValuation(nil, &bid); v.EquityPct != nil {
		t.Fatalf("expected nil equity_pct with no estimated value")
	}
}

func TestComputeValuation_NilWhenEstimatedValueNonPositive(t *testing.T) {
	est, bid := 0.0, 150000.0
	if v := ComputeValuation(&est, &bid); v.EquityPct != nil {
		t.Fatalf("expected nil equity_pct when estimated value is zero")
	}
}

func TestHeuristicRiskBand_Thresholds(t *testing.T) {
	cases := []struct {
		pct  float64
		want RiskBand
	}{
		{50, RiskLow},
		{25, RiskLow},
		{24.9, RiskModerate},
		{10, RiskModerate},
		{9.9, RiskHigh},
		{-10, RiskHigh},
	}
	for _, c := range cases {
		pct := c.pct
		if got := HeuristicRiskBand(&pct); got != c.want {
			t.Fatalf("HeuristicRiskBand(%v) = %s, want %s", pct, got, c.want)
		}
	}
	if got := HeuristicRiskBand(nil); got != RiskUnknown {
		t.Fatalf("HeuristicRiskBand(nil) = %s, want Unknown", got)
	}
}

func TestStageRank_Progression(t *testing.T) {
	if StagePreForeclosure.Rank() >= StageSheriffSale.Rank() {
		t.Fatalf("expected pre-foreclosure to rank below sheriff sale")
	}
	if StageSheriffSale.Rank() >= StageREO.Rank() {
		t.Fatalf("expected sheriff sale to rank below REO")
	}
	if StageUnknown.Rank() >= StagePreForeclosure.Rank() {
		t.Fatalf("expected unknown to rank lowest")
	}
}
