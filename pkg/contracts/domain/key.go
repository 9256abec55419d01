package domain

import "strings"

// KeySeparator joins composite key parts. It does not occur in admissions data.
const KeySeparator = "|"

// CompositeKey joins the trimmed values of fields in order.
// Missing values contribute an empty part, so rows with equal trimmed
// values always produce equal keys.
func CompositeKey(r Row, fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = r.Text(f)
	}
	return strings.Join(parts, KeySeparator)
}

// KeyCounts counts how often each composite key occurs in rows.
func KeyCounts(rows []Row, fields []string) map[string]int {
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[CompositeKey(r, fields)]++
	}
	return counts
}

// DuplicateKeys returns the keys that occur more than once.
func DuplicateKeys(rows []Row, fields []string) map[string]bool {
	dups := make(map[string]bool)
	for k, n := range KeyCounts(rows, fields) {
		if n > 1 {
			dups[k] = true
		}
	}
	return dups
}
