package normalize

import (
	"testing"

	"njforeclose/models"
)

func TestMoney(t *testing.T) {
	cases := []struct {
		in   string
		want *float64
	}{
		{"$150,000.00", floatPtr(150000)},
		{"1,200", floatPtr(1200)},
		{"$ 120,000.50 ", floatPtr(120000.50)},
		{"N/A", nil},
		{"TBD", nil},
		{"", nil},
	}
	for _, c := range cases {
		got := Money(c.in)
		if (got == nil) != (c.want == nil) {
			t.Fatalf("Money(%q) = %v, want %v", c.in, got, c.want)
		}
		if got != nil && *got != *c.want {
			t.Fatalf("Money(%q) = %v, want %v", c.in, *got, *c.want)
		}
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestSaleDate_AdjournedIsNil(t *testing.T) {
	if d := SaleDate("Adjourned to 1/15"); d != nil {
		t.Fatalf("expected nil for adjourned text, got %v", d)
	}
}

func TestSaleDate_ParsesKnownLayouts(t *testing.T) {
	d := SaleDate("2024-12-25")
	if d == nil || d.Format("2006-01-02") != "2024-12-25" {
		t.Fatalf("expected 2024-12-25, got %v", d)
	}
	d = SaleDate("12/25/2024")
	if d == nil || d.Format("2006-01-02") != "2024-12-25" {
		t.Fatalf("expected 2024-12-25, got %v", d)
	}
}

func TestInferStage_REOBeforeSheriffSale(t *testing.T) {
	stage := InferStage("REO", "Scheduled for REO resale")
	if stage != models.StageREO {
		t.Fatalf("expected REO, got %s", stage)
	}
}

func TestSplitCaption(t *testing.T) {
	p, d := SplitCaption("US Bank Trust v. James T. Kirk")
	if p != "US Bank Trust" || d != "James T. Kirk" {
		t.Fatalf("unexpected split: %q / %q", p, d)
	}

	p, d = SplitCaption("No Separator Here")
	if p != "" || d != "No Separator Here" {
		t.Fatalf("expected whole title as defendant, got %q / %q", p, d)
	}
}
