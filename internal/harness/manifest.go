package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// DefaultModel is used when a manifest does not name a model.
const DefaultModel = "sonnet"

// Manifest declares the routing target and the test cases to run against it.
type Manifest struct {
	// Skill is the target skill identifier. Empty means the skill axis always passes.
	Skill string `yaml:"skill,omitempty" json:"skill,omitempty"`

	// Agent is the target subagent type. Empty means the agent axis always passes.
	Agent string `yaml:"agent,omitempty" json:"agent,omitempty"`

	// Model selects the agent's model. Defaults to DefaultModel.
	Model string `yaml:"model,omitempty" json:"model"`

	// Tests are run in order.
	Tests []TestCase `yaml:"tests" json:"tests"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-" json:"-"`
}

// TestCase is a single prompt with its routing expectation.
type TestCase struct {
	ID            string   `yaml:"id" json:"id"`
	Prompt        string   `yaml:"prompt" json:"prompt"`
	ShouldTrigger bool     `yaml:"should_trigger" json:"should_trigger"`
	ExpectedTools []string `yaml:"expected_tools,omitempty" json:"expected_tools,omitempty"`
	Notes         string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Target returns the manifest's skill/agent routing target.
func (m *Manifest) Target() Target {
	return Target{Skill: m.Skill, Agent: m.Agent}
}

// ManifestError reports a structural problem with a manifest file.
// It is fatal to a run: no test executes when any manifest is invalid.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

// ErrNoManifests is returned when no file matches the given patterns.
var ErrNoManifests = errors.New("no manifest files matched")

// LoadManifest reads, parses and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: fmt.Errorf("failed to read manifest file: %w", err)}
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, &ManifestError{Path: path, Err: err}
	}
	m.Path = path
	return m, nil
}

// ParseManifest parses and validates manifest YAML.
// Unknown fields (typos like "should_trigerr:") are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	if m.Model == "" {
		m.Model = DefaultModel
	}
	return &m, nil
}

// validateManifest checks constraints the schema cannot express.
func validateManifest(m *Manifest) error {
	seen := make(map[string]int, len(m.Tests))
	for i, tc := range m.Tests {
		if prev, ok := seen[tc.ID]; ok {
			return fmt.Errorf("tests[%d]: duplicate id %q (first used by tests[%d])", i, tc.ID, prev)
		}
		seen[tc.ID] = i
	}
	return nil
}

// ResolveManifests expands glob patterns (with ** support) into manifest
// paths. Order follows the patterns, then lexical order within a pattern;
// a file matched twice is listed once. Directories are skipped.
// ErrNoManifests is returned when nothing matched at all.
func ResolveManifests(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid manifest pattern %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, match := range matches {
			if info, err := os.Stat(match); err != nil || info.IsDir() {
				continue
			}
			clean := filepath.Clean(match)
			if seen[clean] {
				continue
			}
			seen[clean] = true
			paths = append(paths, clean)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoManifests, patterns)
	}
	return paths, nil
}

// LoadManifests resolves patterns and loads every matched manifest.
// The first invalid manifest aborts loading.
func LoadManifests(patterns []string) ([]*Manifest, error) {
	paths, err := ResolveManifests(patterns)
	if err != nil {
		return nil, err
	}

	manifests := make([]*Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := LoadManifest(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
