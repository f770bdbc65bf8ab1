// Package strings provides string slice utilities.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrimLower trims and lowercases each element, dropping empties and
// duplicates. Order of first occurrence is preserved.
//
// Example:
//
//	DedupeAndTrimLower([]string{"  API ", "partner", "api", ""})
//	// Returns: []string{"api", "partner"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; !ok {
			seen[normalized] = struct{}{}
			result = append(result, normalized)
		}
	}

	return result
}

// SortedUnion merges lists into one normalized, sorted set. The result is
// never nil so it encodes as an empty array.
func SortedUnion(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	out := DedupeAndTrimLower(all)
	if out == nil {
		out = []string{}
	}
	slices.Sort(out)
	return out
}
