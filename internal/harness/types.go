package harness

import (
	"time"

	"github.com/roach88/routecheck/internal/transcript"
)

// TestResult is the outcome of one test case. It is not modified after
// the runner produces it.
type TestResult struct {
	ID            string `json:"id"`
	Prompt        string `json:"prompt"`
	ShouldTrigger bool   `json:"shouldTrigger"`

	Triggered      bool `json:"triggered"`
	AgentTriggered bool `json:"agentTriggered"`
	SkillPass      bool `json:"skillPass"`
	AgentPass      bool `json:"agentPass"`
	ToolsPass      bool `json:"toolsPass"`
	Pass           bool `json:"pass"`

	ToolsUsed     []string `json:"toolsUsed"`
	SkillsInvoked []string `json:"skillsInvoked"`
	AgentsInvoked []string `json:"agentsInvoked"`
	ExpectedTools []string `json:"expectedTools,omitempty"`
	MissingTools  []string `json:"missingTools,omitempty"`

	Transcript []transcript.Entry `json:"transcript"`

	// Error describes a process failure (start, exit status, timeout).
	// It is diagnostic only and does not affect Pass.
	Error string `json:"error,omitempty"`

	DurationMS int64 `json:"durationMs"`
}

// ManifestResult is the result record for one manifest.
type ManifestResult struct {
	Manifest string       `json:"manifest"`
	Skill    string       `json:"skill,omitempty"`
	Agent    string       `json:"agent,omitempty"`
	Model    string       `json:"model"`
	Results  []TestResult `json:"results"`
}

// Passed returns the number of passing results.
func (m *ManifestResult) Passed() int {
	n := 0
	for _, r := range m.Results {
		if r.Pass {
			n++
		}
	}
	return n
}

// RunResult aggregates every manifest processed in one run.
type RunResult struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Manifests  []ManifestResult `json:"manifests"`
}

// Summary holds aggregate counts derived from a RunResult.
type Summary struct {
	Manifests int     `json:"manifests"`
	Total     int     `json:"total"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Errored   int     `json:"errored"`
	PassRate  float64 `json:"passRate"`
}

// Summary computes aggregate counts. PassRate is in [0,1] and is 0 when
// no test ran.
func (r *RunResult) Summary() Summary {
	s := Summary{Manifests: len(r.Manifests)}
	for _, m := range r.Manifests {
		for _, res := range m.Results {
			s.Total++
			if res.Pass {
				s.Passed++
			} else {
				s.Failed++
			}
			if res.Error != "" {
				s.Errored++
			}
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total)
	}
	return s
}

// AllPassed reports whether every test in the run passed.
func (r *RunResult) AllPassed() bool {
	return r.Summary().Failed == 0
}
