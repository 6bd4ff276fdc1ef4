// Package strings provides string normalization helpers.
package strings

import (
	"strings"
)

// DedupeAndTrimLower splits each value on commas, trims and lowercases the
// parts, and drops empties and duplicates. Order of first occurrence is kept.
//
//	DedupeAndTrimLower([]string{" DE,nl ", "de", ""})
//	// Returns: []string{"de", "nl"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			trimmed := strings.ToLower(strings.TrimSpace(part))
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; !ok {
				seen[trimmed] = struct{}{}
				result = append(result, trimmed)
			}
		}
	}

	return result
}

// CollapseSpace trims s and collapses internal runs of whitespace into a
// single space.
//
//	CollapseSpace("  baby   ear\tmuffs ")
//	// Returns: "baby ear muffs"
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
