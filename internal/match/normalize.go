// Package match provides pure label matching, normalization and confidence
// scoring for matching rules.
package match

import (
	"regexp"
	"strings"
)

// Trailing noise that payment providers append to labels: bare reference
// numbers, card fragments like x1234 or ****1234, and "ref"-prefixed codes.
var trailingNoise = []*regexp.Regexp{
	regexp.MustCompile(`^[x*]+\d{2,}$`),
	regexp.MustCompile(`^\d{4,}$`),
	regexp.MustCompile(`^ref[:.]?\w*\d+$`),
	regexp.MustCompile(`^\d{2}[-/.]\d{2}[-/.]\d{2,4}$`),
}

// NormalizeLabel reduces a raw transaction label to its canonical grouping
// key: lower-cased, whitespace-collapsed, trailing reference noise removed.
func NormalizeLabel(label string) string {
	fields := strings.Fields(strings.ToLower(label))

	// Strip noise tokens from the end only; digits inside a counterparty
	// name ("4mation") must survive.
	for len(fields) > 1 {
		last := fields[len(fields)-1]
		if !isNoiseToken(last) {
			break
		}
		fields = fields[:len(fields)-1]
	}

	return strings.Join(fields, " ")
}

func isNoiseToken(token string) bool {
	for _, re := range trailingNoise {
		if re.MatchString(token) {
			return true
		}
	}
	return false
}

// normalizeForMatch prepares a label or pattern for comparison: trimmed and
// lower-cased, nothing else. Matching is deliberately less aggressive than
// grouping so that a pattern can still target reference fragments.
func normalizeForMatch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// CanonicalPattern returns the form of a pattern used for comparison. The
// rule natural key must use the same form, otherwise two enabled rules that
// match identically could coexist under different casings.
func CanonicalPattern(pattern string) string {
	return normalizeForMatch(pattern)
}
