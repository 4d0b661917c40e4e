// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hierarchy

import (
	"context"

	"github.com/taibuivan/multitax/internal/core/term"
)

// # Subset Of Descendants

// SubsetOfDescendants keeps the terms of candidates that descend from rootID,
// in depth-first order. A rootID of 0 selects from the top of the tree.
func (service *Service) SubsetOfDescendants(context context.Context, rootID int64, candidates []*term.Term, taxonomy string) ([]*term.Term, error) {
	children, err := service.Get(context, taxonomy)
	if err != nil {
		return nil, err
	}

	parentOf := func(t *term.Term) (int64, int64) { return t.TermID, t.Parent }
	return subset(rootID, candidates, parentOf, children), nil
}

// SubsetOfDescendantIDs is [Service.SubsetOfDescendants] for bare term IDs.
// Parents are taken from the hierarchy map itself.
func (service *Service) SubsetOfDescendantIDs(context context.Context, rootID int64, candidates []int64, taxonomy string) ([]int64, error) {
	children, err := service.Get(context, taxonomy)
	if err != nil {
		return nil, err
	}

	parents := children.Parents()
	parentOf := func(id int64) (int64, int64) { return id, parents[id] }
	return subset(rootID, candidates, parentOf, children), nil
}

func subset[T any](rootID int64, candidates []T, parentOf func(T) (int64, int64), children Map) []T {
	result := make([]T, 0)
	if len(candidates) == 0 {
		return result
	}
	if rootID != 0 && !children.HasChildren(rootID) {
		return result
	}

	// The root counts as its own ancestor so that a loop back to it stops the walk.
	ancestors := map[int64]bool{rootID: true}

	var collect func(int64)
	collect = func(parent int64) {
		for _, candidate := range candidates {
			id, candidateParent := parentOf(candidate)
			if ancestors[id] || candidateParent != parent {
				continue
			}

			result = append(result, candidate)
			if !children.HasChildren(id) {
				continue
			}
			ancestors[id] = true
			collect(id)
		}
	}
	collect(rootID)

	return result
}
