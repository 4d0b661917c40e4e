// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hierarchy

import (
	"context"
	"fmt"

	"github.com/taibuivan/multitax/internal/core/term"
)

type objectKey struct {
	blogID   int64
	objectID int64
}

/*
PadCounts rewrites the Count of every term in terms to the number of distinct
posts attached to the term or to any of its descendants within terms.

Description: Posts are identified by (blog_id, object_id), so the same post ID on
two sites counts twice. Terms with no attached posts keep their stored count.
Flat taxonomies and empty maps are left untouched.

Parameters:
  - context: context.Context
  - terms: []*term.Term (modified in place)
  - taxonomy: string
*/
func (service *Service) PadCounts(context context.Context, terms []*term.Term, taxonomy string) error {
	if len(terms) == 0 || !service.taxonomies.IsHierarchical(taxonomy) {
		return nil
	}

	children, err := service.Get(context, taxonomy)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	byID := make(map[int64]*term.Term, len(terms))
	termOfMtmt := make(map[int64]int64, len(terms))
	mtmtIDs := make([]int64, 0, len(terms))
	order := make([]int64, 0, len(terms))

	for _, t := range terms {
		if t.Taxonomy != "" && t.Taxonomy != taxonomy {
			continue
		}
		if _, seen := byID[t.TermID]; !seen {
			order = append(order, t.TermID)
		}
		byID[t.TermID] = t
		termOfMtmt[t.MtmtID] = t.TermID
		mtmtIDs = append(mtmtIDs, t.MtmtID)
	}

	relationships, err := service.store.ListRelationships(context, mtmtIDs)
	if err != nil {
		return fmt.Errorf("hierarchy: pad counts of %s: %w", taxonomy, err)
	}

	items := make(map[int64]map[objectKey]int)
	touch := func(termID int64, key objectKey) {
		if items[termID] == nil {
			items[termID] = make(map[objectKey]int)
		}
		items[termID][key]++
	}

	for _, relationship := range relationships {
		termID, ok := termOfMtmt[relationship.MtmtID]
		if !ok {
			continue
		}
		touch(termID, objectKey{blogID: relationship.BlogID, objectID: relationship.ObjectID})
	}

	// Touch every ancestor's row for each post of each term.
	for _, termID := range order {
		child := termID
		visited := make(map[int64]bool)

		for {
			current, ok := byID[child]
			if !ok || current.Parent == 0 {
				break
			}
			parent := current.Parent
			visited[child] = true

			for key := range items[termID] {
				touch(parent, key)
			}

			child = parent
			if visited[parent] {
				break
			}
		}
	}

	for termID, objects := range items {
		if t, ok := byID[termID]; ok {
			t.Count = int64(len(objects))
		}
	}
	return nil
}
