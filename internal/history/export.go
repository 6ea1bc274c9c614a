// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/mesh-intelligence/deep-research/pkg/types"
)

// ExportYAML writes every stored run, including report bodies and logs,
// to path as a YAML document.
func (s *Store) ExportYAML(ctx context.Context, path string) error {
	results, err := s.exportResults(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every stored run, including report bodies and logs,
// to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	results, err := s.exportResults(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportResults(ctx context.Context) ([]types.ResearchResult, error) {
	summaries, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	// History is capped at the retention limit, so one lookup per run is
	// a bounded cost.
	results := make([]types.ResearchResult, 0, len(summaries))
	for _, summary := range summaries {
		full, err := s.Get(ctx, summary.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, full)
	}
	return results, nil
}
