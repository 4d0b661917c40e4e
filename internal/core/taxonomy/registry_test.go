// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterDefaults(t *testing.T) {
	registry := NewRegistry(nil)

	genre, err := registry.Register("genre", []string{"post"}, Options{Hierarchical: true})
	require.NoError(t, err)

	assert.True(t, genre.Hierarchical)
	assert.Equal(t, "genre", genre.QueryVar)
	assert.Equal(t, "manage_multisite_terms", genre.Capability(ActionManage))
	assert.Equal(t, "assign_multisite_terms", genre.Capability(ActionAssign))
	require.NotNil(t, genre.Rewrite)
	assert.Equal(t, "genre", genre.Rewrite.Slug)

	assert.True(t, registry.IsHierarchical("genre"))
	assert.False(t, registry.IsHierarchical("mood"))
}

func TestRegistry_InvalidName(t *testing.T) {
	registry := NewRegistry(nil)

	_, err := registry.Register(strings.Repeat("x", 33), nil, Options{})
	require.Error(t, err)

	_, err = registry.Register("Genre", nil, Options{})
	require.Error(t, err)
}

func TestRegistry_GetUnknownIsInvalidTaxonomy(t *testing.T) {
	registry := NewRegistry(nil)

	_, err := registry.Get("nope")
	assert.True(t, errors.Is(err, ErrInvalidTaxonomy))
	assert.Contains(t, err.Error(), "nope")

	assert.True(t, errors.Is(registry.Validate("nope"), ErrInvalidTaxonomy))
}

func TestRegistry_ObjectTypes(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Register("mood", []string{"post"}, Options{})
	require.NoError(t, err)

	require.NoError(t, registry.RegisterForObjectType("mood", "page"))
	require.NoError(t, registry.RegisterForObjectType("mood", "page"))
	assert.Equal(t, []string{"mood"}, registry.ForObjectType("page"))

	require.NoError(t, registry.UnregisterForObjectType("mood", "post"))
	assert.Empty(t, registry.ForObjectType("post"))

	mood, err := registry.Get("mood")
	require.NoError(t, err)
	assert.Equal(t, []string{"page"}, mood.ObjectTypes)
}

func TestRegistry_Seal(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Register("genre", nil, Options{})
	require.NoError(t, err)

	registry.Seal()

	_, err = registry.Register("mood", nil, Options{})
	assert.True(t, errors.Is(err, ErrRegistrySealed))
	assert.True(t, errors.Is(registry.Unregister("genre"), ErrRegistrySealed))
	assert.True(t, registry.Exists("genre"))
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Register("genre", []string{"post"}, Options{})
	require.NoError(t, err)

	first, _ := registry.Get("genre")
	first.ObjectTypes[0] = "mutated"

	second, _ := registry.Get("genre")
	assert.Equal(t, []string{"post"}, second.ObjectTypes)
}

func TestRegistry_Load(t *testing.T) {
	document := `
taxonomies:
  - name: genre
    object_types: [post]
    hierarchical: true
    labels:
      name: Genres
      singular_name: Genre
  - name: mood
    object_types: [post, page]
    capabilities:
      manage_terms: manage_moods
    no_rewrite: true
`
	registry := NewRegistry(nil)
	require.NoError(t, registry.Load(strings.NewReader(document)))

	assert.Equal(t, []string{"genre", "mood"}, registry.Names())

	genre, _ := registry.Get("genre")
	assert.Equal(t, "Genres", genre.Labels.Name)
	assert.True(t, genre.Hierarchical)

	mood, _ := registry.Get("mood")
	assert.Equal(t, "manage_moods", mood.Capability(ActionManage))
	assert.Equal(t, "edit_multisite_terms", mood.Capability(ActionEdit))
	assert.Nil(t, mood.Rewrite)
}

func TestRegistry_LoadRejectsUnknownFields(t *testing.T) {
	registry := NewRegistry(nil)
	err := registry.Load(strings.NewReader("taxonomies:\n  - name: genre\n    hierarchichal: true\n"))
	assert.Error(t, err)
}
