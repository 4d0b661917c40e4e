// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/taibuivan/multitax/internal/platform/validate"
)

// Registry is the explicit replacement for a global taxonomy map. It is
// constructed once at startup and passed to every component that needs
// taxonomy lookups.
type Registry struct {
	mu         sync.RWMutex
	taxonomies map[string]*Taxonomy
	sealed     bool
	logger     *slog.Logger
}

// NewRegistry creates an empty registry in its registration phase.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		taxonomies: make(map[string]*Taxonomy),
		logger:     logger,
	}
}

// # Registration Phase

/*
Register creates or replaces a taxonomy.

Parameters:
  - name: 1 to 32 characters of lowercase letters, digits, '_' or '-'
  - objectTypes: content types the taxonomy applies to
  - options: settings, zero values select the defaults

Returns:
  - *Taxonomy: the registered entry
  - error: validation failure or [ErrRegistrySealed]
*/
func (registry *Registry) Register(name string, objectTypes []string, options Options) (*Taxonomy, error) {
	if err := (&validate.Validator{}).Taxonomy("taxonomy", name).Err(); err != nil {
		return nil, err
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.sealed {
		return nil, ErrRegistrySealed
	}

	taxonomy := build(name, objectTypes, options)
	registry.taxonomies[name] = taxonomy

	registry.logger.Debug("taxonomy_registered",
		slog.String("taxonomy", name),
		slog.Bool("hierarchical", taxonomy.Hierarchical),
		slog.Any("object_types", taxonomy.ObjectTypes),
	)

	return taxonomy, nil
}

// Unregister removes a taxonomy.
func (registry *Registry) Unregister(name string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.sealed {
		return ErrRegistrySealed
	}
	if _, ok := registry.taxonomies[name]; !ok {
		return Invalid(name)
	}

	delete(registry.taxonomies, name)
	return nil
}

// RegisterForObjectType attaches an existing taxonomy to one more content type.
func (registry *Registry) RegisterForObjectType(name, objectType string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.sealed {
		return ErrRegistrySealed
	}

	taxonomy, ok := registry.taxonomies[name]
	if !ok {
		return Invalid(name)
	}

	if !taxonomy.AppliesTo(objectType) {
		taxonomy.ObjectTypes = append(taxonomy.ObjectTypes, objectType)
	}
	return nil
}

// UnregisterForObjectType detaches a content type from a taxonomy.
func (registry *Registry) UnregisterForObjectType(name, objectType string) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.sealed {
		return ErrRegistrySealed
	}

	taxonomy, ok := registry.taxonomies[name]
	if !ok {
		return Invalid(name)
	}

	taxonomy.ObjectTypes = slices.DeleteFunc(taxonomy.ObjectTypes, func(t string) bool { return t == objectType })
	return nil
}

// Seal ends the registration phase.
func (registry *Registry) Seal() {
	registry.mu.Lock()
	registry.sealed = true
	registry.mu.Unlock()
}

// # Lookups

// Get returns a copy of the named taxonomy.
func (registry *Registry) Get(name string) (*Taxonomy, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	taxonomy, ok := registry.taxonomies[name]
	if !ok {
		return nil, Invalid(name)
	}

	clone := *taxonomy
	clone.ObjectTypes = append([]string(nil), taxonomy.ObjectTypes...)
	return &clone, nil
}

// Exists reports whether name is registered.
func (registry *Registry) Exists(name string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	_, ok := registry.taxonomies[name]
	return ok
}

// IsHierarchical reports whether name is registered and hierarchical.
func (registry *Registry) IsHierarchical(name string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	taxonomy, ok := registry.taxonomies[name]
	return ok && taxonomy.Hierarchical
}

// Names returns the registered taxonomy names in lexical order.
func (registry *Registry) Names() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.taxonomies))
	for name := range registry.taxonomies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns copies of every registered taxonomy in lexical order.
func (registry *Registry) All() []*Taxonomy {
	names := registry.Names()

	result := make([]*Taxonomy, 0, len(names))
	for _, name := range names {
		if taxonomy, err := registry.Get(name); err == nil {
			result = append(result, taxonomy)
		}
	}
	return result
}

// ForObjectType returns the names of the taxonomies attached to objectType.
func (registry *Registry) ForObjectType(objectType string) []string {
	var names []string
	for _, taxonomy := range registry.All() {
		if taxonomy.AppliesTo(objectType) {
			names = append(names, taxonomy.Name)
		}
	}
	return names
}

// Validate fails with [ErrInvalidTaxonomy] on the first unregistered name.
func (registry *Registry) Validate(names ...string) error {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	for _, name := range names {
		if _, ok := registry.taxonomies[name]; !ok {
			return Invalid(name)
		}
	}
	return nil
}
