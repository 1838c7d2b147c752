// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/esukhia/derge-tei/pkg/types"
)

// WriteYAML writes run to path as YAML, creating the parent directory.
func WriteYAML(path string, run types.RunRecord) error {
	data, err := yaml.Marshal(&run)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadYAML loads a run manifest written by WriteYAML.
func ReadYAML(path string) (types.RunRecord, error) {
	var run types.RunRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return run, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return run, nil
}

// ExportYAML writes the stored run id to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, id int64, path string) error {
	run, err := s.Run(ctx, id)
	if err != nil {
		return err
	}
	return WriteYAML(path, run)
}

// ExportJSON writes the stored run id to path as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, id int64, path string) error {
	run, err := s.Run(ctx, id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
