// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taxonomy holds the Taxonomy Registry: the process-wide map from taxonomy
name to its configuration (hierarchy flag, capabilities, labels, routing).

Lifecycle:

  - Registration phase: taxonomies are added from the YAML registration file and
    by explicit [Registry.Register] calls at startup.
  - [Registry.Seal] ends the phase. Afterwards the registry is read-only and safe
    for concurrent lookups by every request.

A taxonomy is configuration, never a database row. Terms reference it by name.
*/
package taxonomy

import (
	"net/http"

	"github.com/taibuivan/multitax/internal/platform/apperr"
	"github.com/taibuivan/multitax/internal/platform/sec"
)

// # Errors

// ErrInvalidTaxonomy is matched with errors.Is by every entry point that
// accepts a taxonomy name.
var ErrInvalidTaxonomy = apperr.New("INVALID_TAXONOMY", http.StatusBadRequest, "Invalid taxonomy")

// ErrRegistrySealed is returned by mutations after [Registry.Seal].
var ErrRegistrySealed = apperr.New("REGISTRY_SEALED", http.StatusConflict, "Taxonomy registration phase is over")

// Invalid returns an [ErrInvalidTaxonomy] naming the offending taxonomy.
func Invalid(name string) error {
	return apperr.New(ErrInvalidTaxonomy.Code, ErrInvalidTaxonomy.HTTPStatus, "Invalid taxonomy: "+name)
}

// # Configuration

// Capabilities names the permission strings checked for term management.
type Capabilities struct {
	ManageTerms string `yaml:"manage_terms" json:"manage_terms"`
	EditTerms   string `yaml:"edit_terms"   json:"edit_terms"`
	DeleteTerms string `yaml:"delete_terms" json:"delete_terms"`
	AssignTerms string `yaml:"assign_terms" json:"assign_terms"`
}

// Labels are the display strings of a taxonomy.
type Labels struct {
	Name         string `yaml:"name"          json:"name"`
	SingularName string `yaml:"singular_name" json:"singular_name"`
}

// Rewrite is the URL routing configuration of a taxonomy.
type Rewrite struct {
	Slug         string `yaml:"slug"         json:"slug"`
	WithFront    bool   `yaml:"with_front"   json:"with_front"`
	Hierarchical bool   `yaml:"hierarchical" json:"hierarchical"`
}

// Taxonomy is one registry entry.
type Taxonomy struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Hierarchical bool         `json:"hierarchical"`
	Public       bool         `json:"public"`
	ObjectTypes  []string     `json:"object_type"`
	Capabilities Capabilities `json:"cap"`
	Labels       Labels       `json:"labels"`
	QueryVar     string       `json:"query_var"`
	Rewrite      *Rewrite     `json:"rewrite,omitempty"`
}

// Options are the caller-supplied settings of [Registry.Register].
// Zero values select the defaults.
type Options struct {
	Description  string        `yaml:"description"`
	Hierarchical bool          `yaml:"hierarchical"`
	Public       *bool         `yaml:"public"`
	Capabilities *Capabilities `yaml:"capabilities"`
	Labels       *Labels       `yaml:"labels"`
	QueryVar     *string       `yaml:"query_var"`
	Rewrite      *Rewrite      `yaml:"rewrite"`
	NoRewrite    bool          `yaml:"no_rewrite"`
}

// # Capability Lookup

// Action identifies a term management operation.
type Action int

const (
	ActionManage Action = iota
	ActionEdit
	ActionDelete
	ActionAssign
)

// Capability returns the permission string the taxonomy requires for action.
func (taxonomy *Taxonomy) Capability(action Action) string {
	switch action {
	case ActionEdit:
		return taxonomy.Capabilities.EditTerms
	case ActionDelete:
		return taxonomy.Capabilities.DeleteTerms
	case ActionAssign:
		return taxonomy.Capabilities.AssignTerms
	default:
		return taxonomy.Capabilities.ManageTerms
	}
}

// AppliesTo reports whether objectType is attached to the taxonomy.
func (taxonomy *Taxonomy) AppliesTo(objectType string) bool {
	for _, t := range taxonomy.ObjectTypes {
		if t == objectType {
			return true
		}
	}
	return false
}

// build applies defaults to options.
func build(name string, objectTypes []string, options Options) *Taxonomy {
	taxonomy := &Taxonomy{
		Name:         name,
		Description:  options.Description,
		Hierarchical: options.Hierarchical,
		Public:       true,
		ObjectTypes:  append([]string(nil), objectTypes...),
		Capabilities: Capabilities{
			ManageTerms: sec.CapManageTerms,
			EditTerms:   sec.CapEditTerms,
			DeleteTerms: sec.CapDeleteTerms,
			AssignTerms: sec.CapAssignTerms,
		},
		Labels:   Labels{Name: name, SingularName: name},
		QueryVar: name,
	}

	if options.Public != nil {
		taxonomy.Public = *options.Public
	}

	if custom := options.Capabilities; custom != nil {
		if custom.ManageTerms != "" {
			taxonomy.Capabilities.ManageTerms = custom.ManageTerms
		}
		if custom.EditTerms != "" {
			taxonomy.Capabilities.EditTerms = custom.EditTerms
		}
		if custom.DeleteTerms != "" {
			taxonomy.Capabilities.DeleteTerms = custom.DeleteTerms
		}
		if custom.AssignTerms != "" {
			taxonomy.Capabilities.AssignTerms = custom.AssignTerms
		}
	}

	if options.Labels != nil {
		if options.Labels.Name != "" {
			taxonomy.Labels.Name = options.Labels.Name
		}
		if options.Labels.SingularName != "" {
			taxonomy.Labels.SingularName = options.Labels.SingularName
		}
	}

	if options.QueryVar != nil {
		taxonomy.QueryVar = *options.QueryVar
	}

	// Public taxonomies get pretty URLs unless explicitly disabled.
	if taxonomy.Public && !options.NoRewrite {
		rewrite := Rewrite{Slug: name, WithFront: true, Hierarchical: false}
		if options.Rewrite != nil {
			rewrite = *options.Rewrite
			if rewrite.Slug == "" {
				rewrite.Slug = name
			}
		}
		taxonomy.Rewrite = &rewrite
	}

	return taxonomy
}
