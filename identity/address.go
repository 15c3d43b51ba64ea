// Package identity derives the deterministic dedupe key that identifies a
// Property across sources and time, from its raw address text.
package identity

import (
	"regexp"
	"strconv"
	"strings"
)

// suffixExpansions maps common USPS abbreviations to their full form. The
// canonicalizer expands rather than abbreviates so that "St" and "Street"
// converge on the same token regardless of which form a given source uses.
var suffixExpansions = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"blvd": "boulevard",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"hwy":  "highway",
	"pkwy": "parkway",
	"rt":   "route",
	"rte":  "route",
	"cir":  "circle",
	"ter":  "terrace",
	"sq":   "square",
	"cres": "crescent",
}

var directionalExpansions = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
}

var unitExpansions = map[string]string{
	"apt":   "unit",
	"ste":   "unit",
	"suite": "unit",
	"no":    "unit",
	"#":     "unit",
	"unit":  "unit",
}

var floorExpansions = map[string]string{
	"fl": "floor",
}

var ordinalPattern = regexp.MustCompile(`^(\d+)(st|nd|rd|th)$`)

var wordOrdinals = map[string]string{
	"first": "1", "second": "2", "third": "3", "fourth": "4", "fifth": "5",
	"sixth": "6", "seventh": "7", "eighth": "8", "ninth": "9", "tenth": "10",
}

var nonAlnumSpace = regexp.MustCompile(`[^a-z0-9\-/ ]+`)
var multiSpace = regexp.MustCompile(`\s+`)
var numberRange = regexp.MustCompile(`^(\d+)-(\d+)$`)
var townshipSuffix = regexp.MustCompile(`\b(township|twp|borough|boro)\b`)

// Sanitize is stage 1: lowercase, strip punctuation except '-' and '/'
// adjacent to digits, drop commas/periods/quotes/semicolons.
func Sanitize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, ";", " ")
	s = nonAlnumSpace.ReplaceAllString(s, " ")
	b := []byte(s)
	for i, c := range b {
		if c != '-' && c != '/' {
			continue
		}
		prevDigit := i > 0 && b[i-1] >= '0' && b[i-1] <= '9'
		nextDigit := i+1 < len(b) && b[i+1] >= '0' && b[i+1] <= '9'
		if !prevDigit && !nextDigit {
			b[i] = ' '
		}
	}
	s = multiSpace.ReplaceAllString(string(b), " ")
	return strings.TrimSpace(s)
}

// expandToken expands one sanitized token via the suffix/directional/unit
// maps, stage 2 of the canonicalizer.
func expandToken(tok string) string {
	if v, ok := suffixExpansions[tok]; ok {
		return v
	}
	if v, ok := directionalExpansions[tok]; ok {
		return v
	}
	if v, ok := unitExpansions[tok]; ok {
		return v
	}
	if v, ok := floorExpansions[tok]; ok {
		return v
	}
	return tok
}

// normalizeNumeric is stage 3: ordinals to digits, number ranges reduced
// to their first number.
func normalizeNumeric(tok string) string {
	if v, ok := wordOrdinals[tok]; ok {
		return v
	}
	if m := ordinalPattern.FindStringSubmatch(tok); m != nil {
		return m[1]
	}
	if m := numberRange.FindStringSubmatch(tok); m != nil {
		return m[1]
	}
	return tok
}

// CanonicalizeStreet runs stages 1-3 of the address canonicalizer over a
// street-only string and returns the joined, normalized token sequence.
func CanonicalizeStreet(street string) string {
	sanitized := Sanitize(street)
	if sanitized == "" {
		return ""
	}
	tokens := strings.Fields(sanitized)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = expandToken(tok)
		tok = normalizeNumeric(tok)
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// CanonicalizeCity is stage 4's city half: strip twp/township/boro/borough
// tokens so "Clifton Twp" and "Clifton" agree.
func CanonicalizeCity(city string) string {
	sanitized := Sanitize(city)
	sanitized = townshipSuffix.ReplaceAllString(sanitized, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(sanitized, " "))
}

// splitHouseNumber pulls the leading house number token off a canonicalized
// street string, returning (number, remainder). Returns ("", street) if the
// street does not start with a digit.
func splitHouseNumber(street string) (string, string) {
	fields := strings.Fields(street)
	if len(fields) == 0 {
		return "", ""
	}
	first := fields[0]
	if _, err := strconv.Atoi(first); err != nil {
		return "", street
	}
	return first, strings.Join(fields[1:], " ")
}

// slugify strips every non-alphanumeric character from a run of words and
// concatenates them into one lowercase token with no separator (or "none"
// when nothing is left), so the result fits one segment of the dedupe-key
// alphabet ^[a-z0-9]+(-[a-z0-9]+)*$.
func slugify(s string) string {
	fields := strings.Fields(s)
	var kept []string
	for _, f := range fields {
		f = regexp.MustCompile(`[^a-z0-9]`).ReplaceAllString(f, "")
		if f != "" {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return "none"
	}
	return strings.Join(kept, "")
}

// DedupeKey computes the deterministic, cross-source property identity key
// from a state code, zip, street, and optional unit, per spec 4.2 stage 5:
// "{state}-{zip}-{num}-{street_joined}-{unit_or_nounit}". State is included
// per the state-expansion Open Question decision recorded in DESIGN.md.
func DedupeKey(state, zip, street, unit string) string {
	canonStreet := CanonicalizeStreet(street)
	num, remainder := splitHouseNumber(canonStreet)
	streetSlug := slugify(remainder)
	unitSlug := "nounit"
	if u := Sanitize(unit); u != "" {
		unitSlug = "unit" + slugify(u)
	}
	numSlug := "0"
	if num != "" {
		numSlug = num
	}
	stateSlug := slugify(strings.ToLower(state))
	zipSlug := slugify(zip)
	if zipSlug == "" || zipSlug == "none" {
		zipSlug = "nozip"
	}
	return strings.Join([]string{stateSlug, zipSlug, numSlug, streetSlug, unitSlug}, "-")
}

var dedupeKeyPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidDedupeKey reports whether a key matches the required alphabet,
// testable property 3.
func ValidDedupeKey(key string) bool {
	return dedupeKeyPattern.MatchString(key)
}
