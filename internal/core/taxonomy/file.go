// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is one entry of the registration file.
type Definition struct {
	Name        string   `yaml:"name"`
	ObjectTypes []string `yaml:"object_types"`
	Options     `yaml:",inline"`
}

// File is the YAML registration document.
//
//	taxonomies:
//	  - name: genre
//	    object_types: [post]
//	    hierarchical: true
type File struct {
	Taxonomies []Definition `yaml:"taxonomies"`
}

// Decode parses a registration document.
func Decode(reader io.Reader) (*File, error) {
	var file File

	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("taxonomy: decode registration file: %w", err)
	}
	return &file, nil
}

// LoadFile registers every taxonomy declared in the YAML file at path.
func (registry *Registry) LoadFile(path string) error {
	handle, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("taxonomy: open %s: %w", path, err)
	}
	defer handle.Close()

	return registry.Load(handle)
}

// Load registers every taxonomy declared in a registration document.
func (registry *Registry) Load(reader io.Reader) error {
	file, err := Decode(reader)
	if err != nil {
		return err
	}

	for _, definition := range file.Taxonomies {
		if _, err := registry.Register(definition.Name, definition.ObjectTypes, definition.Options); err != nil {
			return fmt.Errorf("taxonomy: register %q: %w", definition.Name, err)
		}
	}
	return nil
}
