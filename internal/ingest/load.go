package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/arborsched/arbor/internal/domain"
)

// LoadJSON reads a Document from r as JSON and builds the frozen graph.
func LoadJSON(r io.Reader) (*domain.Graph, error) {
	doc, err := DecodeJSON(r)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// LoadYAML reads a Document from r as YAML and builds the frozen graph.
func LoadYAML(r io.Reader) (*domain.Graph, error) {
	doc, err := DecodeYAML(r)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// DecodeJSON reads a Document from r as JSON without building it, so a
// caller that needs to mutate the tree (e.g. fold in an exported booking
// set) can do so before a later Build.
func DecodeJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("ingest: decode json: %w", err)
	}
	return &doc, nil
}

// DecodeYAML reads a Document from r as YAML without building it.
func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("ingest: decode yaml: %w", err)
	}
	return &doc, nil
}
