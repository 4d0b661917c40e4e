// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with the generic
set-style helpers the query builders rely on (Filter, Unique, Diff).
*/
package slice

// Filter keeps the elements for which keep returns true.
func Filter[T any](input []T, keep func(T) bool) []T {
	var result []T
	for _, v := range input {
		if keep(v) {
			result = append(result, v)
		}
	}

	return result
}

// Unique returns the elements of input in first-seen order without repeats.
func Unique[T comparable](input []T) []T {
	if input == nil {
		return nil
	}

	seen := make(map[T]struct{}, len(input))
	result := make([]T, 0, len(input))
	for _, v := range input {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

// Diff returns the elements of left missing from right, in left's order.
func Diff[T comparable](left, right []T) []T {
	exclude := make(map[T]struct{}, len(right))
	for _, v := range right {
		exclude[v] = struct{}{}
	}

	var result []T
	for _, v := range left {
		if _, ok := exclude[v]; !ok {
			result = append(result, v)
		}
	}

	return result
}
