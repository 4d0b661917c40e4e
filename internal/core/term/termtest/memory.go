// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package termtest provides an in-memory [term.Repository] for unit tests.
package termtest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/taibuivan/multitax/internal/core/term"
	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/dberr"
)

type termRow struct {
	id    int64
	name  string
	slug  string
	group int64
}

type pairRow struct {
	mtmtID      int64
	termID      int64
	taxonomy    string
	description string
	parent      int64
	count       int64
}

type relationshipKey struct {
	blogID, objectID, mtmtID int64
}

// Memory keeps terms in maps. Select and SelectCount delegate to SelectFunc
// and CountFunc because SQL cannot be evaluated in memory.
type Memory struct {
	mu            sync.Mutex
	terms         map[int64]*termRow
	pairs         map[int64]*pairRow
	relationships map[relationshipKey]term.Relationship
	meta          []term.Meta
	nextTerm      int64
	nextPair      int64
	nextMeta      int64

	SelectFunc func(query string, args []any, withObject bool) ([]*term.Term, error)
	CountFunc  func(query string, args []any) (int64, error)

	// Calls counts invocations per method name.
	Calls map[string]int
}

// NewMemory creates an empty repository.
func NewMemory() *Memory {
	return &Memory{
		terms:         make(map[int64]*termRow),
		pairs:         make(map[int64]*pairRow),
		relationships: make(map[relationshipKey]term.Relationship),
		Calls:         make(map[string]int),
	}
}

var _ term.Repository = (*Memory)(nil)

// # Seeding

// Seed stores a term with one taxonomy pairing and returns its identity.
func (m *Memory) Seed(taxonomy, name, slug string, parent int64) term.Ref {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextTerm++
	m.terms[m.nextTerm] = &termRow{id: m.nextTerm, name: name, slug: slug}
	m.nextPair++
	m.pairs[m.nextPair] = &pairRow{mtmtID: m.nextPair, termID: m.nextTerm, taxonomy: taxonomy, parent: parent}
	return term.Ref{TermID: m.nextTerm, MtmtID: m.nextPair}
}

// Share pairs an existing term with another taxonomy.
func (m *Memory) Share(termID int64, taxonomy string, parent int64) term.Ref {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPair++
	m.pairs[m.nextPair] = &pairRow{mtmtID: m.nextPair, termID: termID, taxonomy: taxonomy, parent: parent}
	return term.Ref{TermID: termID, MtmtID: m.nextPair}
}

// Attach relates posts to a pairing.
func (m *Memory) Attach(mtmtID int64, blogID int64, objectIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, objectID := range objectIDs {
		key := relationshipKey{blogID: blogID, objectID: objectID, mtmtID: mtmtID}
		m.relationships[key] = term.Relationship{BlogID: blogID, ObjectID: objectID, MtmtID: mtmtID}
	}
}

// SetParent rewrites the parent of a pairing behind the repository's back.
func (m *Memory) SetParent(mtmtID, parent int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[mtmtID].parent = parent
}

// SetStoredCount rewrites the stored count of a pairing.
func (m *Memory) SetStoredCount(mtmtID, count int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[mtmtID].count = count
}

// TermRows returns the number of term rows.
func (m *Memory) TermRows() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.terms)
}

// Pairing returns the current joined view of mtmtID.
func (m *Memory) Pairing(mtmtID int64) *term.Term {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair, ok := m.pairs[mtmtID]
	if !ok {
		return nil
	}
	return m.joined(pair)
}

// # Internal Helpers

func (m *Memory) called(name string) {
	m.Calls[name]++
}

func (m *Memory) joined(pair *pairRow) *term.Term {
	row := m.terms[pair.termID]
	if row == nil {
		row = &termRow{id: pair.termID}
	}
	return &term.Term{
		TermID:      row.id,
		Name:        row.name,
		Slug:        row.slug,
		TermGroup:   row.group,
		MtmtID:      pair.mtmtID,
		Taxonomy:    pair.taxonomy,
		Description: pair.description,
		Parent:      pair.parent,
		Count:       pair.count,
	}
}

// sortedPairs returns the pairings matching keep ordered by term_id then mtmt_id.
func (m *Memory) sortedPairs(keep func(*pairRow) bool) []*pairRow {
	pairs := make([]*pairRow, 0)
	for _, pair := range m.pairs {
		if keep(pair) {
			pairs = append(pairs, pair)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].termID != pairs[j].termID {
			return pairs[i].termID < pairs[j].termID
		}
		return pairs[i].mtmtID < pairs[j].mtmtID
	})
	return pairs
}

func matches(row *termRow, pair *pairRow, field term.Field, value string) bool {
	switch field {
	case term.FieldSlug:
		return row.slug == value
	case term.FieldName:
		return row.name == value
	case term.FieldTermID:
		return row.id == term.ParseIDs([]string{value})[0]
	case term.FieldMtmtID:
		return pair.mtmtID == term.ParseIDs([]string{value})[0]
	}
	return false
}

// # Reader

func (m *Memory) FindByTermID(_ context.Context, termID int64) ([]*term.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByTermID")

	pairs := m.sortedPairs(func(p *pairRow) bool { return p.termID == termID })
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].taxonomy < pairs[j].taxonomy })

	terms := make([]*term.Term, 0, len(pairs))
	for _, pair := range pairs {
		terms = append(terms, m.joined(pair))
	}
	return terms, nil
}

func (m *Memory) FindBy(_ context.Context, taxonomy string, field term.Field, value string) (*term.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindBy")

	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return p.taxonomy == taxonomy }) {
		row := m.terms[pair.termID]
		if row != nil && matches(row, pair, field, value) {
			return m.joined(pair), nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (m *Memory) FindByName(_ context.Context, taxonomy, name string, parent *int64) ([]*term.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("FindByName")

	terms := make([]*term.Term, 0)
	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return p.taxonomy == taxonomy }) {
		row := m.terms[pair.termID]
		if row == nil || !strings.EqualFold(row.name, name) {
			continue
		}
		if parent != nil && pair.parent != *parent {
			continue
		}
		terms = append(terms, m.joined(pair))
	}
	return terms, nil
}

func (m *Memory) ListChildren(_ context.Context, taxonomy string, parent int64) ([]*term.Term, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	terms := make([]*term.Term, 0)
	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return p.taxonomy == taxonomy && p.parent == parent }) {
		terms = append(terms, m.joined(pair))
	}
	return terms, nil
}

func (m *Memory) SlugExists(_ context.Context, slug string, excludeTermID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.terms {
		if row.slug == slug && row.id != excludeTermID {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) FindMtmtID(_ context.Context, termID int64, taxonomy string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, pair := range m.pairs {
		if pair.termID == termID && pair.taxonomy == taxonomy {
			return pair.mtmtID, nil
		}
	}
	return 0, nil
}

func (m *Memory) CountPairings(_ context.Context, termID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, pair := range m.pairs {
		if pair.termID == termID {
			count++
		}
	}
	return count, nil
}

// # Writer

func (m *Memory) CreateTerm(_ context.Context, name, slug string, group int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("CreateTerm")

	m.nextTerm++
	m.terms[m.nextTerm] = &termRow{id: m.nextTerm, name: name, slug: slug, group: group}
	return m.nextTerm, nil
}

func (m *Memory) CreatePairing(_ context.Context, termID int64, taxonomy, description string, parent int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("CreatePairing")

	for _, pair := range m.pairs {
		if pair.termID == termID && pair.taxonomy == taxonomy {
			return 0, apperr.Conflict("Resource already exists")
		}
	}
	m.nextPair++
	m.pairs[m.nextPair] = &pairRow{mtmtID: m.nextPair, termID: termID, taxonomy: taxonomy, description: description, parent: parent}
	return m.nextPair, nil
}

func (m *Memory) UpdateTerm(_ context.Context, termID int64, name, slug string, group int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.terms[termID]
	if !ok {
		return dberr.ErrNotFound
	}
	row.name, row.slug, row.group = name, slug, group
	return nil
}

func (m *Memory) UpdatePairing(_ context.Context, mtmtID int64, description string, parent int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, ok := m.pairs[mtmtID]
	if !ok {
		return dberr.ErrNotFound
	}
	pair.description, pair.parent = description, parent
	return nil
}

func (m *Memory) NextTermGroup(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var highest int64
	for _, row := range m.terms {
		if row.group > highest {
			highest = row.group
		}
	}
	return highest + 1, nil
}

func (m *Memory) Reparent(_ context.Context, taxonomy string, from, to int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	moved := make([]int64, 0)
	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return p.taxonomy == taxonomy && p.parent == from }) {
		pair.parent = to
		moved = append(moved, pair.termID)
	}
	return moved, nil
}

func (m *Memory) DeletePairing(_ context.Context, mtmtID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, mtmtID)
	return nil
}

func (m *Memory) DeleteTerm(_ context.Context, termID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.terms, termID)
	return nil
}

// # Relationship Store

func (m *Memory) ObjectMtmtIDs(_ context.Context, blogID, objectID int64, taxonomies []string) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := make(map[string]bool, len(taxonomies))
	for _, taxonomy := range taxonomies {
		allowed[taxonomy] = true
	}

	ids := make([]int64, 0)
	for key := range m.relationships {
		if key.blogID != blogID || key.objectID != objectID {
			continue
		}
		if len(allowed) > 0 {
			pair, ok := m.pairs[key.mtmtID]
			if !ok || !allowed[pair.taxonomy] {
				continue
			}
		}
		ids = append(ids, key.mtmtID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) AddRelationships(_ context.Context, relationships []term.Relationship) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, relationship := range relationships {
		key := relationshipKey{blogID: relationship.BlogID, objectID: relationship.ObjectID, mtmtID: relationship.MtmtID}
		if _, exists := m.relationships[key]; !exists {
			m.relationships[key] = relationship
		}
	}
	return nil
}

func (m *Memory) RemoveRelationships(_ context.Context, blogID, objectID int64, mtmtIDs []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for _, mtmtID := range mtmtIDs {
		key := relationshipKey{blogID: blogID, objectID: objectID, mtmtID: mtmtID}
		if _, exists := m.relationships[key]; exists {
			delete(m.relationships, key)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) ListRelationships(_ context.Context, mtmtIDs []int64) ([]term.Relationship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("ListRelationships")

	wanted := make(map[int64]bool, len(mtmtIDs))
	for _, id := range mtmtIDs {
		wanted[id] = true
	}

	relationships := make([]term.Relationship, 0)
	for key, relationship := range m.relationships {
		if wanted[key.mtmtID] {
			relationships = append(relationships, relationship)
		}
	}
	sort.Slice(relationships, func(i, j int) bool {
		a, b := relationships[i], relationships[j]
		if a.BlogID != b.BlogID {
			return a.BlogID < b.BlogID
		}
		if a.ObjectID != b.ObjectID {
			return a.ObjectID < b.ObjectID
		}
		return a.MtmtID < b.MtmtID
	})
	return relationships, nil
}

func (m *Memory) CountObjects(_ context.Context, mtmtID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for key := range m.relationships {
		if key.mtmtID == mtmtID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) SetCount(_ context.Context, mtmtID, count int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pair, ok := m.pairs[mtmtID]; ok {
		pair.count = count
	}
	return nil
}

// # Meta Store

func (m *Memory) ListMeta(_ context.Context, termID int64, key string) ([]term.Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metas := make([]term.Meta, 0)
	for _, meta := range m.meta {
		if meta.TermID == termID && (key == "" || meta.Key == key) {
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

func (m *Memory) AddMeta(_ context.Context, termID int64, key, value string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextMeta++
	m.meta = append(m.meta, term.Meta{MetaID: m.nextMeta, TermID: termID, Key: key, Value: value})
	return m.nextMeta, nil
}

func (m *Memory) UpdateMeta(_ context.Context, termID int64, key, value string, previous *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var changed int64
	for i := range m.meta {
		meta := &m.meta[i]
		if meta.TermID != termID || meta.Key != key {
			continue
		}
		if previous != nil && meta.Value != *previous {
			continue
		}
		meta.Value = value
		changed++
	}
	return changed, nil
}

func (m *Memory) DeleteMeta(_ context.Context, termID int64, key string, value *string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.meta[:0]
	var removed int64
	for _, meta := range m.meta {
		if meta.TermID == termID && meta.Key == key && (value == nil || meta.Value == *value) {
			removed++
			continue
		}
		kept = append(kept, meta)
	}
	m.meta = kept
	return removed, nil
}

func (m *Memory) DeleteAllMeta(_ context.Context, termID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.meta[:0]
	for _, meta := range m.meta {
		if meta.TermID != termID {
			kept = append(kept, meta)
		}
	}
	m.meta = kept
	return nil
}

// # Query Store

func (m *Memory) ListParents(_ context.Context, taxonomy string) ([]term.ParentLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("ListParents")

	links := make([]term.ParentLink, 0)
	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return p.taxonomy == taxonomy && p.parent > 0 }) {
		links = append(links, term.ParentLink{TermID: pair.termID, Parent: pair.parent})
	}
	return links, nil
}

func (m *Memory) Resolve(_ context.Context, taxonomy string, field term.Field, values []string, resulting term.Field) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("Resolve")

	ids := make([]int64, 0)
	for _, pair := range m.sortedPairs(func(p *pairRow) bool { return (field == term.FieldMtmtID && taxonomy == "") || p.taxonomy == taxonomy }) {
		row := m.terms[pair.termID]
		if row == nil {
			continue
		}
		for _, value := range values {
			if !matches(row, pair, field, value) {
				continue
			}
			if resulting == term.FieldMtmtID {
				ids = append(ids, pair.mtmtID)
			} else {
				ids = append(ids, pair.termID)
			}
			break
		}
	}
	return ids, nil
}

func (m *Memory) Select(_ context.Context, query string, args []any, withObject bool) ([]*term.Term, error) {
	m.mu.Lock()
	m.called("Select")
	m.mu.Unlock()

	if m.SelectFunc == nil {
		return nil, errors.New("termtest: Select needs SelectFunc")
	}
	return m.SelectFunc(query, args, withObject)
}

func (m *Memory) SelectCount(_ context.Context, query string, args []any) (int64, error) {
	m.mu.Lock()
	m.called("SelectCount")
	m.mu.Unlock()

	if m.CountFunc == nil {
		return 0, errors.New("termtest: SelectCount needs CountFunc")
	}
	return m.CountFunc(query, args)
}

func (m *Memory) Counts(_ context.Context, taxonomy string, termIDs []int64) (map[int64]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[int64]bool, len(termIDs))
	for _, id := range termIDs {
		wanted[id] = true
	}

	counts := make(map[int64]int64)
	for _, pair := range m.pairs {
		if pair.taxonomy == taxonomy && wanted[pair.termID] {
			counts[pair.termID] = pair.count
		}
	}
	return counts, nil
}
