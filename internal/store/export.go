// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// ExportEntry is an idea together with its latest evaluation job.
type ExportEntry struct {
	Idea types.Idea `json:"idea" yaml:"idea"`
	Job  *types.Job `json:"latest_job,omitempty" yaml:"latest_job,omitempty"`
}

// ExportYAML writes every idea and its latest job to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes every idea and its latest job to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	ideas, err := s.ListIdeas(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, 0, len(ideas))
	for _, idea := range ideas {
		e := ExportEntry{Idea: idea}
		job, err := s.LatestJob(ctx, idea.ID)
		switch {
		case err == nil:
			e.Job = &job
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
