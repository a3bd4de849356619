package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/routecheck/internal/process"
	"github.com/roach88/routecheck/internal/testutil"
)

const (
	skillStream = `{"type":"system","subtype":"init","model":"sonnet","tools":["Skill","Read"]}
{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Skill","input":{"skill":"demo:foo"}}]}}
{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"a.go"}}]}}
{"type":"result","total_cost_usd":0.01,"num_turns":2,"stop_reason":"end_turn","result":"done"}
`
	quietStream = `{"type":"system","subtype":"init","model":"sonnet","tools":["Skill","Read"]}
{"type":"result","total_cost_usd":0.002,"num_turns":1,"stop_reason":"end_turn","result":"hello"}
`
)

const demoManifest = `skill: demo:foo
tests:
  - id: pos
    prompt: use the foo skill
    should_trigger: true
    expected_tools: [Read]
  - id: neg
    prompt: say hello
    should_trigger: false
`

// scriptedExecutor returns canned stdout per prompt.
type scriptedExecutor struct {
	mu      sync.Mutex
	streams map[string]string
	prompts []string
	models  []string
}

func (e *scriptedExecutor) Execute(_ context.Context, prompt, model string) *process.Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prompts = append(e.prompts, prompt)
	e.models = append(e.models, model)
	return &process.Outcome{Stdout: e.streams[prompt], Duration: 1200 * time.Millisecond}
}

func newScripted() *scriptedExecutor {
	return &scriptedExecutor{streams: map[string]string{
		"use the foo skill": skillStream,
		"say hello":         quietStream,
	}}
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testRunOptions(format string, exec *scriptedExecutor) *RunOptions {
	return &RunOptions{
		RootOptions: &RootOptions{Format: format},
		Executor:    exec,
		Clock:       testutil.NewFixedClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)),
		IDs:         testutil.NewFixedIDGenerator("run-1"),
	}
}
