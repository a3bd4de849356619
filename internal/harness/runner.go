package harness

import (
	"context"
	"io"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/routecheck/internal/invocation"
	"github.com/roach88/routecheck/internal/process"
	"github.com/roach88/routecheck/internal/stream"
	"github.com/roach88/routecheck/internal/transcript"
)

// Executor runs the agent for one prompt and returns the process outcome.
// Implementations must return a non-nil Outcome and must not return
// until the process has terminated.
type Executor interface {
	Execute(ctx context.Context, prompt, model string) *process.Outcome
}

// Options configures a Runner. Zero values select the defaults.
type Options struct {
	// Logger receives progress logs. Nil discards them.
	Logger *slog.Logger

	// Clock stamps run start and finish. Defaults to SystemClock.
	Clock Clock

	// IDs generates run IDs. Defaults to UUIDv7Generator.
	IDs IDGenerator

	// Filter is a glob; only tests whose id matches it run.
	Filter string

	// Model overrides every manifest's model when non-empty.
	Model string

	// OnResult is called after each test completes, in execution order.
	OnResult func(m *Manifest, r TestResult)
}

// Runner executes manifests sequentially.
type Runner struct {
	exec     Executor
	logger   *slog.Logger
	clock    Clock
	ids      IDGenerator
	filter   string
	model    string
	onResult func(m *Manifest, r TestResult)
}

// NewRunner creates a Runner that drives exec.
func NewRunner(exec Executor, opts Options) *Runner {
	r := &Runner{
		exec:     exec,
		logger:   opts.Logger,
		clock:    opts.Clock,
		ids:      opts.IDs,
		filter:   opts.Filter,
		model:    opts.Model,
		onResult: opts.OnResult,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.clock == nil {
		r.clock = SystemClock{}
	}
	if r.ids == nil {
		r.ids = UUIDv7Generator{}
	}
	return r
}

// Run executes every manifest in order and returns the aggregate result.
// If ctx is cancelled, the run stops after the in-flight test and returns
// what completed.
func (r *Runner) Run(ctx context.Context, manifests []*Manifest) *RunResult {
	result := &RunResult{
		ID:        r.ids.Generate(),
		StartedAt: r.clock.Now(),
		Manifests: make([]ManifestResult, 0, len(manifests)),
	}

	r.logger.Info("run started", "run_id", result.ID, "manifests", len(manifests))
	for _, m := range manifests {
		if ctx.Err() != nil {
			break
		}
		result.Manifests = append(result.Manifests, r.RunManifest(ctx, m))
	}
	result.FinishedAt = r.clock.Now()

	s := result.Summary()
	r.logger.Info("run finished",
		"run_id", result.ID,
		"total", s.Total,
		"passed", s.Passed,
		"failed", s.Failed,
	)
	return result
}

// RunManifest executes one manifest's tests in order.
func (r *Runner) RunManifest(ctx context.Context, m *Manifest) ManifestResult {
	model := m.Model
	if r.model != "" {
		model = r.model
	}

	mr := ManifestResult{
		Manifest: m.Path,
		Skill:    m.Skill,
		Agent:    m.Agent,
		Model:    model,
		Results:  make([]TestResult, 0, len(m.Tests)),
	}

	if m.Skill == "" && m.Agent == "" {
		r.logger.Warn("manifest targets neither a skill nor an agent; routing axes pass trivially", "manifest", m.Path)
	}

	for _, tc := range m.Tests {
		if ctx.Err() != nil {
			break
		}
		if !r.selected(tc.ID) {
			r.logger.Debug("test filtered out", "manifest", m.Path, "test", tc.ID)
			continue
		}

		res := r.RunTest(ctx, m.Target(), model, tc)
		mr.Results = append(mr.Results, res)
		if r.onResult != nil {
			r.onResult(m, res)
		}
	}
	return mr
}

// RunTest executes a single test case and evaluates it.
func (r *Runner) RunTest(ctx context.Context, target Target, model string, tc TestCase) TestResult {
	r.logger.Info("test started", "test", tc.ID, "model", model)

	outcome := r.exec.Execute(ctx, tc.Prompt, model)
	res := Score(tc, target, outcome)

	r.logger.Info("test finished",
		"test", tc.ID,
		"pass", res.Pass,
		"triggered", res.Triggered,
		"agent_triggered", res.AgentTriggered,
		"tools", res.ToolsUsed,
		"duration_ms", res.DurationMS,
	)
	if res.Error != "" {
		r.logger.Warn("agent process failed", "test", tc.ID, "error", res.Error)
	}
	return res
}

// Score decodes an outcome's stdout and evaluates it against tc.
// A failed outcome is scored the same way; its error is attached.
func Score(tc TestCase, target Target, outcome *process.Outcome) TestResult {
	values := stream.Decode(outcome.Stdout)
	inv := invocation.Extract(values)
	verdict := Evaluate(tc, target, inv)

	res := TestResult{
		ID:             tc.ID,
		Prompt:         tc.Prompt,
		ShouldTrigger:  tc.ShouldTrigger,
		Triggered:      verdict.Triggered,
		AgentTriggered: verdict.AgentTriggered,
		SkillPass:      verdict.SkillPass,
		AgentPass:      verdict.AgentPass,
		ToolsPass:      verdict.ToolsPass,
		Pass:           verdict.Pass,
		ToolsUsed:      inv.Tools.Names(),
		SkillsInvoked:  inv.Skills.Names(),
		AgentsInvoked:  inv.Subagents.Names(),
		ExpectedTools:  tc.ExpectedTools,
		MissingTools:   verdict.MissingTools,
		Transcript:     transcript.Build(values),
		DurationMS:     outcome.Duration.Milliseconds(),
	}
	if outcome.Err != nil {
		res.Error = outcome.Err.Error()
	}
	return res
}

func (r *Runner) selected(id string) bool {
	if r.filter == "" {
		return true
	}
	ok, err := doublestar.Match(r.filter, id)
	return err == nil && ok
}
