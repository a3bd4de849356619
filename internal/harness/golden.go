package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a manifest result as indented JSON for golden comparison.
// Durations are zeroed so the output is deterministic.
func Snapshot(result ManifestResult) ([]byte, error) {
	results := make([]TestResult, len(result.Results))
	for i, r := range result.Results {
		r.DurationMS = 0
		results[i] = r
	}
	result.Results = results

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// AssertGolden compares a manifest result against a golden file.
// The golden file is stored in testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result ManifestResult) {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		t.Fatalf("snapshot %s: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
