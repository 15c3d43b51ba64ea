package identity

import "testing"

func TestDedupeKey_EquivalentAcrossFormatting(t *testing.T) {
	a := DedupeKey("NJ", "07013", " 777  Messy   Road , ", "")
	b := DedupeKey("NJ", "07013", "777 Messy Rd", "")

	if a != b {
		t.Fatalf("expected equal dedupe keys, got %q vs %q", a, b)
	}
	if !ValidDedupeKey(a) {
		t.Fatalf("dedupe key %q does not match the required alphabet", a)
	}
}

func TestDedupeKey_ValidAlphabet(t *testing.T) {
	cases := []struct {
		state, zip, street, unit string
	}{
		{"NJ", "07095", "100 Garden State Pkwy", ""},
		{"NJ", "", "1st Ave NE", "Apt 3"},
		{"NJ", "07013", "", ""},
	}
	for _, c := range cases {
		key := DedupeKey(c.state, c.zip, c.street, c.unit)
		if !ValidDedupeKey(key) {
			t.Fatalf("dedupe key %q for %+v does not match the required alphabet", key, c)
		}
	}
}

func TestDedupeKey_UnitDistinguishesProperties(t *testing.T) {
	a := DedupeKey("NJ", "07013", "1 Messy Rd", "Apt 1")
	b := DedupeKey("NJ", "07013", "1 Messy Rd", "Apt 2")
	if a == b {
		t.Fatalf("expected different units to produce different keys, both were %q", a)
	}
}

func TestCanonicalizeStreet_ExpandsAbbreviations(t *testing.T) {
	got := CanonicalizeStreet("100 Garden State Pkwy")
	want := "100 garden state parkway"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCanonicalizeCity_StripsTownshipSuffixes(t *testing.T) {
	if got := CanonicalizeCity("Clifton Twp"); got != "clifton" {
		t.Fatalf("expected clifton, got %q", got)
	}
	if got := CanonicalizeCity("Clifton"); got != "clifton" {
		t.Fatalf("expected clifton, got %q", got)
	}
}
