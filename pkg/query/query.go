// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package query parses list-valued URL parameters. Lists may be given
// comma separated ("include=3,4,5"), repeated ("taxonomy=genre&taxonomy=mood")
// or both.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

/*
IDs parses an ID list the way term and post filters expect it.

Entries that are not positive integers are dropped and duplicates keep
their first position, so "include=4,x,-1,4,9" yields [4 9].
*/
func IDs(values []string) []int64 {
	var (
		ids  []int64
		seen = make(map[int64]struct{})
	)
	for _, item := range List(values) {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// StrictIDs is [IDs] for required filters: the first entry that is not a
// positive integer is reported instead of skipped.
func StrictIDs(values []string) ([]int64, error) {
	for _, item := range List(values) {
		if id, err := strconv.ParseInt(item, 10, 64); err != nil || id <= 0 {
			return nil, fmt.Errorf("%q is not a positive integer", item)
		}
	}
	return IDs(values), nil
}

// List flattens the values of one parameter into trimmed, non-empty items.
func List(values []string) []string {
	var items []string
	for _, value := range values {
		for item := range strings.SplitSeq(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}
