// Package util contains small generic helpers shared across RuleCheck.
package util

import "sort"

// SortBy returns a sorted copy of items. less is called with two elements and
// must return whether the left one comes before the right one. The sort is
// stable.
func SortBy[T any](items []T, less func(left, right T) bool) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	return sorted
}
