// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	Entities  []EntityResult   `json:"entities" yaml:"entities"`
	Relations []RelationResult `json:"relations" yaml:"relations"`
}

const exportLimit = 1000000

// ExportYAML writes the index to <index>/export.yaml and returns the path.
// It supports the same filters as Entities and Relations.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.indexDir, "export.yaml")
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the index to <index>/export.json and returns the path.
// It supports the same filters as Entities and Relations.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.indexDir, "export.json")
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, append(data, '\n'), 0o644)
}

func (s *Store) export(ctx context.Context, opts QueryOptions) (*Export, error) {
	opts.MaxResults = exportLimit

	// Query is relation-text search; it does not filter the entity list.
	entOpts := opts
	entOpts.Query = ""

	ents, err := s.Entities(ctx, entOpts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	rels, err := s.Relations(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if ents == nil {
		ents = []EntityResult{}
	}
	if rels == nil {
		rels = []RelationResult{}
	}
	return &Export{Entities: ents, Relations: rels}, nil
}
