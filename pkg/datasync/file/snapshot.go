// Package file implements a control plane transport backed by a local
// snapshot file, optionally reloaded when the file changes.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"soul-hq/gateway/pkg/dto"
)

// LoadSnapshot reads and validates a snapshot file. Files ending in .json
// are parsed as JSON, anything else as YAML.
func LoadSnapshot(path string) (*dto.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return ParseSnapshot(data, filepath.Ext(path))
}

// ParseSnapshot decodes data according to ext and validates the result.
func ParseSnapshot(data []byte, ext string) (*dto.Snapshot, error) {
	var snap dto.Snapshot
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("parse snapshot json: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&snap); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse snapshot yaml: %w", err)
		}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// WriteSnapshot renders s as YAML or JSON to path.
func WriteSnapshot(path string, s *dto.Snapshot) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
