package services

import "testing"

func TestBaseAddress_StripsUnitToken(t *testing.T) {
	if got := baseAddress("12 main st apt 3"); got != "12 main st" {
		t.Fatalf("expected '12 main st', got %q", got)
	}
	if got := baseAddress("12 main st"); got != "12 main st" {
		t.Fatalf("expected unchanged '12 main st', got %q", got)
	}
	if got := baseAddress("12 main st unit 4b"); got != "12 main st" {
		t.Fatalf("expected '12 main st', got %q", got)
	}
}
