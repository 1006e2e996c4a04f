// Package metadata implements the small JSON sidecar that accompanies
// a persisted column-store data file on disk: just enough to name it
// and attach free-form tags, without knowing anything about the data
// file's own format.
package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata describes one persisted data file: its logical name and a
// set of caller-defined tags (host, probe kind, whatever a deployment
// wants to filter artifacts on later).
type Metadata struct {
	Name string            `json:"name"`
	Tags map[string]string `json:"tags"`
}

// New creates a Metadata value with an initialized, empty tag set.
func New(name string) *Metadata {
	return &Metadata{Name: name, Tags: make(map[string]string)}
}

// sidecarPath returns folder/name.json, the path Open/Save use.
func sidecarPath(folder, name string) string {
	return filepath.Join(folder, name+".json")
}

// Open reads and decodes the sidecar for name out of folder.
func Open(folder, name string) (*Metadata, error) {
	b, err := os.ReadFile(sidecarPath(folder, name))
	if err != nil {
		return nil, fmt.Errorf("metadata: reading sidecar for %s: %w", name, err)
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("metadata: decoding sidecar for %s: %w", name, err)
	}
	if m.Tags == nil {
		m.Tags = make(map[string]string)
	}
	return &m, nil
}

// Save writes m's sidecar into folder, named after m.Name.
func (m *Metadata) Save(folder string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("metadata: encoding sidecar for %s: %w", m.Name, err)
	}
	if err := os.WriteFile(sidecarPath(folder, m.Name), b, 0o644); err != nil {
		return fmt.Errorf("metadata: writing sidecar for %s: %w", m.Name, err)
	}
	return nil
}

// WithTag sets a tag and returns m, for chaining at construction time.
func (m *Metadata) WithTag(key, value string) *Metadata {
	m.Tags[key] = value
	return m
}
