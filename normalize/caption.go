package normalize

import "regexp"

var captionSeparator = regexp.MustCompile(`(?i)\s+(v\.|vs\.?|versus)\s+`)

// SplitCaption splits a case title of the form "PLAINTIFF v. DEFENDANT" on
// v./vs/versus (case-insensitive). When no separator matches, the whole
// title is treated as the defendant.
func SplitCaption(title string) (plaintiff, defendant string) {
	parts := captionSeparator.Split(title, 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", title
}
