package client

import "regexp"

// Checked in order; the first pattern that matches anywhere wins, so
// "16 oz, Pack of 2" yields "16 oz".
var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:fl\s*)?oz`), // 6 oz, 15.8 oz, 17 fl oz
	regexp.MustCompile(`(?i)(\d+)\s*lb`),                 // 2 lb
	regexp.MustCompile(`(?i)(\d+)\s*g`),                  // 500 g
	regexp.MustCompile(`(?i)(\d+)\s*ml`),                 // 250 ml
	regexp.MustCompile(`(?i)(\d+)\s*l`),                  // 1 l
	regexp.MustCompile(`(?i)Pack of (\d+)`),              // Pack of 4
}

// ExtractSize pulls a package size out of a free-text product name. It
// returns "" when nothing matches.
func ExtractSize(text string) string {
	for _, re := range sizePatterns {
		if match := re.FindString(text); match != "" {
			return match
		}
	}
	return ""
}
