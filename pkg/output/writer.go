// Package output writes fetched value set resources to deterministic
// file paths.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vsacfetch/pkg/fhir"
)

// Mode selects which resource form a file holds.
type Mode string

const (
	// ModeDefinition is the value set's own metadata and composition.
	ModeDefinition Mode = "definition"

	// ModeExpanded is the merged expansion.
	ModeExpanded Mode = "expanded"
)

// Writer persists resources under an output directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer, creating the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Path returns the deterministic file path for a resource:
// <dir>/ValueSet-<oid>-<version>-<mode>.json, with "latest" standing in
// for an unknown version label.
func (w *Writer) Path(oid, version string, mode Mode) string {
	if version == "" {
		version = "latest"
	}
	name := fmt.Sprintf("ValueSet-%s-%s-%s.json", oid, sanitizeLabel(version), mode)
	return filepath.Join(w.dir, name)
}

// Write persists one resource, overwriting any existing file at its path.
func (w *Writer) Write(oid, version string, mode Mode, resource *fhir.ValueSet) error {
	data, err := json.MarshalIndent(resource, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal resource: %w", err)
	}
	data = append(data, '\n')

	path := w.Path(oid, version, mode)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// sanitizeLabel makes a version label safe for use in a file name.
func sanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}
