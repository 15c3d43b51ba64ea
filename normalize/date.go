package normalize

import (
	"strings"
	"time"
)

// adjournmentKeywords are status words that mean "no concrete date", even
// when a partial date happens to be embedded in the same string.
var adjournmentKeywords = []string{
	"adjourned", "postponed", "cancelled", "canceled", "tbd", "n/a", "set for sale",
}

// dateLayouts are the calendar formats attempted, in order, for anything
// that survives the keyword check.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"01-02-2006",
}

// SaleDate parses a raw sale-date string into UTC midnight, or nil if the
// text is a status keyword (adjourned, TBD, ...) or does not parse under
// any known calendar layout.
func SaleDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)
	for _, kw := range adjournmentKeywords {
		if strings.Contains(lower, kw) {
			return nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
