package normalize

import (
	"regexp"
	"strings"
)

// stateZipPattern matches a trailing "STATE ZIP" fragment, e.g. "NJ 07095".
var stateZipPattern = regexp.MustCompile(`(?i)\b([A-Z]{2})\s+(\d{5})(?:-\d{4})?\s*$`)

// bareZipPattern matches an input that is nothing but a zip code.
var bareZipPattern = regexp.MustCompile(`^(\d{5})(?:-\d{4})?$`)

// ParsedAddress is the result of splitting a raw, comma-separated address
// string into its component parts.
type ParsedAddress struct {
	Street string
	City   string
	State  string
	Zip    string
}

// ParseAddress splits "STREET, CITY, STATE ZIP" (commas optional/messy)
// into its components. Returns an empty Street when the input can't be
// parsed beyond a zip code, which the caller treats as a skip candidate.
func ParseAddress(raw string) ParsedAddress {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ParsedAddress{}
	}

	var state, zip string
	rest := trimmed
	if m := stateZipPattern.FindStringSubmatchIndex(trimmed); m != nil {
		state = strings.ToUpper(trimmed[m[2]:m[3]])
		zip = trimmed[m[4]:m[5]]
		rest = strings.TrimSpace(trimmed[:m[0]])
		rest = strings.TrimRight(rest, ", ")
	} else if m := bareZipPattern.FindStringSubmatch(trimmed); m != nil {
		return ParsedAddress{Zip: m[1]}
	}

	parts := splitAndTrim(rest, ",")
	var street, city string
	switch len(parts) {
	case 0:
		street = ""
	case 1:
		street = parts[0]
	default:
		street = parts[0]
		city = parts[len(parts)-1]
	}

	return ParsedAddress{Street: street, City: city, State: state, Zip: zip}
}

func splitAndTrim(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
