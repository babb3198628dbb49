// Package match validates quest answers against a configured reference
// answer. Comparison always runs over normalized text: Unicode NFKC, lower
// case, interior whitespace collapsed to single spaces. Three policies are
// supported: exact, contains and fuzzy (Levenshtein similarity).
package match

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"
)

// Policy selects how a submitted answer is compared to the reference.
type Policy string

const (
	PolicyExact    Policy = "exact"
	PolicyContains Policy = "contains"
	PolicyFuzzy    Policy = "fuzzy"
)

// FuzzyThreshold is the minimum similarity ratio a fuzzy match must reach.
const FuzzyThreshold = 0.90

// Valid reports whether p is one of the supported policies.
func (p Policy) Valid() bool {
	switch p {
	case PolicyExact, PolicyContains, PolicyFuzzy:
		return true
	}
	return false
}

// Normalize folds text for comparison: NFKC normalization, lower case, and
// runs of whitespace collapsed to a single space with the ends trimmed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Similarity returns the Levenshtein similarity ratio of two already
// normalized strings, in [0,1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if n := len([]rune(b)); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Answer reports whether submitted satisfies reference under the given
// policy. Unknown policies never match. An empty submission only matches an
// empty reference under the exact policy.
func Answer(p Policy, submitted, reference string) bool {
	sub := Normalize(submitted)
	ref := Normalize(reference)

	switch p {
	case PolicyExact:
		return sub == ref
	case PolicyContains:
		if ref == "" {
			return sub == ""
		}
		return strings.Contains(sub, ref)
	case PolicyFuzzy:
		return Similarity(sub, ref) >= FuzzyThreshold
	}
	return false
}
