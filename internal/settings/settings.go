// Package settings merges a JSON overlay into the agent's project
// settings file before a run.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ProjectPath returns the settings file location for a working directory.
func ProjectPath(workdir string) string {
	return filepath.Join(workdir, ".claude", "settings.json")
}

// ParseOverlay decodes a JSON object. Anything other than an object is an
// error.
func ParseOverlay(data []byte) (map[string]any, error) {
	var overlay map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&overlay); err != nil {
		return nil, fmt.Errorf("settings overlay must be a JSON object: %w", err)
	}
	if overlay == nil {
		return nil, errors.New("settings overlay must be a JSON object, got null")
	}
	return overlay, nil
}

// LoadOverlay reads an overlay from a file.
func LoadOverlay(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings overlay: %w", err)
	}
	overlay, err := ParseOverlay(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return overlay, nil
}

// Merge deep-merges overlay into the JSON object stored at path and writes
// the result back. A missing file starts from an empty object and its
// parent directories are created.
func Merge(path string, overlay map[string]any) (map[string]any, error) {
	base := map[string]any{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(bytes.TrimSpace(data)) > 0 {
			base, err = ParseOverlay(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	merged := DeepMerge(base, overlay)

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write settings: %w", err)
	}
	return merged, nil
}

// DeepMerge returns base with overlay applied. Nested objects merge
// recursively; every other overlay value replaces the base value. Neither
// input is modified.
func DeepMerge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := out[k].(map[string]any); ok {
				out[k] = DeepMerge(existing, sub)
				continue
			}
		}
		out[k] = v
	}
	return out
}
