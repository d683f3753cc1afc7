// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

// exportEntry is the serialized shape of one catalog row.
type exportEntry struct {
	Name     string `json:"name" yaml:"name"`
	Dose     string `json:"dose,omitempty" yaml:"dose,omitempty"`
	Form     string `json:"form,omitempty" yaml:"form,omitempty"`
	General  string `json:"general" yaml:"general"`
	Specific string `json:"specific,omitempty" yaml:"specific,omitempty"`
	Notes    string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Export writes the full catalog to w in the requested format ("yaml" or
// "json").
func (s *Store) Export(ctx context.Context, w io.Writer, format string) error {
	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}

	out := make([]exportEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, exportEntry{
			Name:     e.Name,
			Dose:     e.Dose,
			Form:     e.Form,
			General:  e.Location.General,
			Specific: e.Location.Specific,
			Notes:    e.Location.Notes,
		})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "", "yaml":
		return yaml.NewEncoder(w).Encode(out)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
